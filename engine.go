package valuation

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/etnz/valuation/date"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Engine computes daily valuation series of a wallet.
//
// The zero value is ready to use: it values in DefaultCurrency, resolves
// prices with ExactDay, computes serially and logs to slog.Default().
// An Engine holds no state between calls and is safe for concurrent use.
type Engine struct {
	Currency   string       // Currency is the reference currency of prices and results.
	Resolution Resolution   // Resolution is the price lookup policy.
	Workers    int          // Workers bounds the days computed in parallel, <= 1 is serial.
	Logger     *slog.Logger // Logger receives data quality warnings.
}

// ComputeDailySeries is DailySeries on the zero Engine.
func ComputeDailySeries(txs []Transaction, prices map[InstrumentID][]PricePoint, windowDays int, now time.Time) (Series, error) {
	var e Engine
	return e.DailySeries(txs, prices, windowDays, now)
}

func (e *Engine) currency() string {
	if e.Currency == "" {
		return DefaultCurrency
	}
	return e.Currency
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// prepare indexes the inputs, logging and dropping what is malformed.
func (e *Engine) prepare(txs []Transaction, prices map[InstrumentID][]PricePoint) (*Ledger, *PriceIndex, error) {
	if err := ValidateCurrency(e.currency()); err != nil {
		return nil, nil, fmt.Errorf("invalid reference currency: %w", err)
	}
	log := e.logger()
	ledger, err := NewLedger(txs)
	for _, err := range multierr.Errors(err) {
		log.Warn("skipping transaction", "error", err)
	}
	index, err := NewPriceIndex(prices)
	for _, err := range multierr.Errors(err) {
		log.Warn("skipping price point", "error", err)
	}
	for id := range ledger.Instruments() {
		if !index.Has(id) {
			log.Warn("instrument has no price history, valued at zero", "instrument", id)
			continue
		}
		log.Debug("indexed prices", "instrument", id, "days", index.Len(id))
	}
	return ledger, index, nil
}

// Snapshot returns the valuation of the wallet at the instant at.
func (e *Engine) Snapshot(txs []Transaction, prices map[InstrumentID][]PricePoint, at time.Time) (*Snapshot, error) {
	ledger, index, err := e.prepare(txs, prices)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(ledger, index, at.UTC(), e.currency(), e.Resolution), nil
}

// DailySeries returns windowDays+1 daily valuations, from the day of
// now-windowDays to the day of now, oldest first.
//
// The entry d days before now values the positions held at the instant
// now-d days (events at that very instant included) with the price resolved
// for that instant's UTC calendar day. Positions without a resolvable price
// are left out of that day's total.
//
// Only a negative window or an unknown currency is an error. Malformed
// transactions and price points are logged and skipped.
func (e *Engine) DailySeries(txs []Transaction, prices map[InstrumentID][]PricePoint, windowDays int, now time.Time) (Series, error) {
	if windowDays < 0 {
		return nil, fmt.Errorf("%w: %d days", ErrInvalidWindow, windowDays)
	}
	ledger, index, err := e.prepare(txs, prices)
	if err != nil {
		return nil, err
	}
	now = now.UTC()
	cur := e.currency()

	window := date.LastDays(date.Of(now), windowDays)
	series := make(Series, window.Len())
	// negatives[i] lists the instruments short on the day of series[i].
	negatives := make([][]InstrumentID, len(series))
	valuate := func(i int, day date.Date) {
		cutoff := now.AddDate(0, 0, -window.To.Sub(day))
		s := NewSnapshot(ledger, index, cutoff, cur, e.Resolution)
		series[i] = DailyValuation{Date: s.On(), Value: s.Total()}
		for id := range ledger.Instruments() {
			if s.Position(id).IsNegative() {
				negatives[i] = append(negatives[i], id)
			}
		}
	}

	var g errgroup.Group
	g.SetLimit(max(1, e.Workers))
	for day := range window.Days() {
		i := day.Sub(window.From)
		if e.Workers <= 1 {
			valuate(i, day)
			continue
		}
		g.Go(func() error {
			valuate(i, day)
			return nil
		})
	}
	_ = g.Wait() // valuate never fails

	// One warning per instrument, on the first day it went short.
	log := e.logger()
	warned := make(map[InstrumentID]bool)
	for i, ids := range negatives {
		for _, id := range ids {
			if !warned[id] {
				warned[id] = true
				log.Warn("negative position, sells exceed buys", "instrument", id, "since", series[i].Date)
			}
		}
	}
	log.Debug("computed daily series", "days", len(series), "transactions", ledger.Len(), "resolution", e.Resolution)
	return series, nil
}
