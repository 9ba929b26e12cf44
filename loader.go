package valuation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Dir reads ledgers and price histories from JSONL files:
//
//	<dir>/ledgers/<address>.jsonl     transactions of a wallet
//	<dir>/prices/<instrument>.jsonl   price snapshots of an instrument
//
// It implements both TransactionLogProvider and PriceHistoryProvider.
type Dir string

var (
	_ TransactionLogProvider = Dir("")
	_ PriceHistoryProvider   = Dir("")
)

// LedgerPath returns the ledger file of a wallet.
func (d Dir) LedgerPath(address string) string {
	return filepath.Join(string(d), "ledgers", fileName(address)+".jsonl")
}

// PricesPath returns the price file of an instrument.
func (d Dir) PricesPath(id InstrumentID) string {
	return filepath.Join(string(d), "prices", fileName(string(id))+".jsonl")
}

// fileName keeps identifiers from escaping their folder.
func fileName(id string) string {
	return strings.NewReplacer("/", "_", `\`, "_", "..", "_").Replace(strings.ToLower(id))
}

// Transactions reads the wallet's ledger. A wallet without file has no transaction.
func (d Dir) Transactions(ctx context.Context, address string) ([]Transaction, error) {
	f, err := os.Open(d.LedgerPath(address))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	txs, err := DecodeTransactions(f)
	if err != nil {
		return nil, fmt.Errorf("in %q: %w", f.Name(), err)
	}
	return txs, nil
}

// DailySnapshots reads the price file of each instrument. Instruments without
// file are absent from the result.
func (d Dir) DailySnapshots(ctx context.Context, ids []InstrumentID) (map[InstrumentID][]PricePoint, error) {
	result := make(map[InstrumentID][]PricePoint, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		points, err := d.readPrices(id)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result[id] = points
	}
	return result, nil
}

func (d Dir) readPrices(id InstrumentID) ([]PricePoint, error) {
	f, err := os.Open(d.PricesPath(id))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	points, err := DecodePricePoints(f)
	if err != nil {
		return nil, fmt.Errorf("in %q: %w", f.Name(), err)
	}
	return points, nil
}
