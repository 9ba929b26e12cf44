package valuation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// TransactionLogProvider returns the full transaction history of a wallet,
// in any order.
type TransactionLogProvider interface {
	Transactions(ctx context.Context, address string) ([]Transaction, error)
}

// PriceHistoryProvider returns the available price snapshots of instruments.
// Instruments without history may be absent from the result.
type PriceHistoryProvider interface {
	DailySnapshots(ctx context.Context, ids []InstrumentID) (map[InstrumentID][]PricePoint, error)
}

// DefaultConcurrency is the number of price histories fetched at once.
const DefaultConcurrency = 4

// Valuator fetches a wallet's data from providers and values it.
type Valuator struct {
	Ledger      TransactionLogProvider
	Prices      PriceHistoryProvider
	Engine      Engine
	Concurrency int // Concurrency bounds parallel price reads, 0 means DefaultConcurrency.
}

// Fetch reads the wallet's transactions, then the price history of every
// instrument it touched, one read per instrument.
func (v *Valuator) Fetch(ctx context.Context, address string) ([]Transaction, map[InstrumentID][]PricePoint, error) {
	txs, err := v.Ledger.Transactions(ctx, address)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read transactions of %s: %w", address, err)
	}

	seen := make(map[InstrumentID]bool)
	var ids []InstrumentID
	for _, tx := range txs {
		if tx.Instrument != "" && !seen[tx.Instrument] {
			seen[tx.Instrument] = true
			ids = append(ids, tx.Instrument)
		}
	}

	limit := v.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	var mu sync.Mutex
	prices := make(map[InstrumentID][]PricePoint, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, id := range ids {
		g.Go(func() error {
			got, err := v.Prices.DailySnapshots(ctx, []InstrumentID{id})
			if err != nil {
				return fmt.Errorf("cannot read prices of %s: %w", id, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for k, points := range got {
				prices[k] = append(prices[k], points...)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return txs, prices, nil
}

// DailySeries fetches the wallet's data and computes its daily series.
func (v *Valuator) DailySeries(ctx context.Context, address string, windowDays int, now time.Time) (Series, error) {
	if windowDays < 0 {
		return nil, fmt.Errorf("%w: %d days", ErrInvalidWindow, windowDays)
	}
	txs, prices, err := v.Fetch(ctx, address)
	if err != nil {
		return nil, err
	}
	return v.Engine.DailySeries(txs, prices, windowDays, now)
}

// Snapshot fetches the wallet's data and values it at the instant at.
func (v *Valuator) Snapshot(ctx context.Context, address string, at time.Time) (*Snapshot, error) {
	txs, prices, err := v.Fetch(ctx, address)
	if err != nil {
		return nil, err
	}
	return v.Engine.Snapshot(txs, prices, at)
}
