package valuation

import (
	"iter"
	"slices"
	"time"

	"go.uber.org/multierr"
)

// Ledger is a wallet's transaction log partitioned by instrument.
//
// Each partition is in chronological order. A Ledger is never modified once
// built and can be shared between goroutines.
type Ledger struct {
	instruments  []InstrumentID // first appearance order
	transactions map[InstrumentID][]Transaction
	size         int
}

// NewLedger builds a Ledger from an unordered list of transactions.
//
// Malformed transactions are skipped. They are returned, combined with
// multierr, next to a ledger holding every valid transaction.
func NewLedger(txs []Transaction) (*Ledger, error) {
	l := &Ledger{transactions: make(map[InstrumentID][]Transaction)}
	var errs error
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if _, exists := l.transactions[tx.Instrument]; !exists {
			l.instruments = append(l.instruments, tx.Instrument)
		}
		l.transactions[tx.Instrument] = append(l.transactions[tx.Instrument], tx)
		l.size++
	}
	for _, list := range l.transactions {
		// Stable: events sharing an instant keep the provider's order.
		slices.SortStableFunc(list, func(a, b Transaction) int {
			return a.Timestamp.Compare(b.Timestamp)
		})
	}
	return l, errs
}

// Len returns the number of valid transactions.
func (l *Ledger) Len() int { return l.size }

// Instruments returns an iterator over the instruments with at least one
// transaction, in order of first appearance.
func (l *Ledger) Instruments() iter.Seq[InstrumentID] {
	return slices.Values(l.instruments)
}

// Transactions returns an iterator over the transactions of an instrument
// that happened on or before cutoff, in chronological order.
func (l *Ledger) Transactions(id InstrumentID, cutoff time.Time) iter.Seq[Transaction] {
	return func(yield func(Transaction) bool) {
		for _, tx := range l.transactions[id] {
			if tx.Timestamp.After(cutoff) {
				return
			}
			if !yield(tx) {
				return
			}
		}
	}
}

// Position replays every transaction of id up to and including cutoff and
// returns the units held at that instant.
//
// Nothing is carried between calls: each position is recomputed from the
// first event. The result is not clamped and may be negative when the log
// is partial.
func (l *Ledger) Position(id InstrumentID, cutoff time.Time) Quantity {
	var position Quantity
	for tx := range l.Transactions(id, cutoff) {
		position = position.Add(tx.Signed())
	}
	return position
}
