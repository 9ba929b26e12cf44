package valuation

import (
	"iter"
	"time"

	"github.com/etnz/valuation/date"
)

// Snapshot represents a view of the portfolio at a single point in time.
// It is a stateless calculator that computes all values on-the-fly by
// replaying ledger events up to its cutoff instant.
type Snapshot struct {
	ledger *Ledger
	prices *PriceIndex
	cutoff time.Time
	cur    string
	mode   Resolution
}

// NewSnapshot returns the snapshot of ledger at the instant cutoff, valued in
// currency with prices resolved for the cutoff's UTC calendar day.
func NewSnapshot(ledger *Ledger, prices *PriceIndex, cutoff time.Time, currency string, mode Resolution) *Snapshot {
	return &Snapshot{ledger: ledger, prices: prices, cutoff: cutoff, cur: currency, mode: mode}
}

// On returns the calendar day of the snapshot.
func (s *Snapshot) On() date.Date { return date.Of(s.cutoff) }

// Cutoff returns the instant of the snapshot; later events are ignored.
func (s *Snapshot) Cutoff() time.Time { return s.cutoff }

// Instruments returns an iterator over every instrument of the ledger.
func (s *Snapshot) Instruments() iter.Seq[InstrumentID] { return s.ledger.Instruments() }

// Position calculates the units held of a single instrument at the cutoff.
func (s *Snapshot) Position(id InstrumentID) Quantity {
	return s.ledger.Position(id, s.cutoff)
}

// Price returns the unit price of id for the snapshot's day, and false when
// it cannot be resolved.
func (s *Snapshot) Price(id InstrumentID) (Money, bool) {
	p, ok := s.prices.Resolve(id, s.On(), s.mode)
	if !ok {
		return Money{}, false
	}
	return M(p, s.cur), true
}

// MarketValue returns the value of the position in id. It is false when the
// price is unresolved, and the position must then be left out of totals.
func (s *Snapshot) MarketValue(id InstrumentID) (Money, bool) {
	position := s.Position(id)
	if position.IsZero() {
		// Nothing held is worth nothing, priced or not.
		return M(0, s.cur), true
	}
	price, ok := s.Price(id)
	if !ok {
		return Money{}, false
	}
	return price.Mul(position), true
}

// Total returns the sum of the market values of all priced positions.
func (s *Snapshot) Total() Money {
	total := M(0, s.cur)
	for id := range s.Instruments() {
		if value, ok := s.MarketValue(id); ok {
			total = total.Add(value)
		}
	}
	return total
}

// Holding is one line of a snapshot breakdown.
type Holding struct {
	Instrument InstrumentID
	Units      Quantity
	Price      Money // zero when not Priced
	Value      Money // zero when not Priced
	Priced     bool
}

// Holdings returns the per-instrument breakdown of the snapshot.
func (s *Snapshot) Holdings() []Holding {
	var holdings []Holding
	for id := range s.Instruments() {
		h := Holding{Instrument: id, Units: s.Position(id), Price: M(0, s.cur), Value: M(0, s.cur)}
		if price, ok := s.Price(id); ok {
			h.Price, h.Value, h.Priced = price, price.Mul(h.Units), true
		}
		holdings = append(holdings, h)
	}
	return holdings
}
