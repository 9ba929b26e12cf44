package valuation

import (
	"fmt"
	"strings"
	"time"

	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// Resolution selects how a price is found for a day.
type Resolution int

const (
	// ExactDay uses only a snapshot taken on the very same UTC calendar day.
	// Days without one leave the instrument out of the total.
	ExactDay Resolution = iota
	// LastKnown carries the latest snapshot on or before the day forward.
	LastKnown
)

func (r Resolution) String() string {
	switch r {
	case ExactDay:
		return "exact"
	case LastKnown:
		return "carry"
	default:
		return fmt.Sprintf("Resolution(%d)", int(r))
	}
}

// ParseResolution parses "exact" or "carry" (also "locf", "last").
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(s) {
	case "", "exact", "exact-day":
		return ExactDay, nil
	case "carry", "locf", "last", "last-known":
		return LastKnown, nil
	default:
		return ExactDay, fmt.Errorf("unknown price resolution %q", s)
	}
}

// observation is a daily price and the instant it was observed.
type observation struct {
	at    time.Time
	price decimal.Decimal
}

// supersedes reports whether o replaces prev as the price of their day.
func (o observation) supersedes(prev observation) bool {
	if !o.at.Equal(prev.at) {
		return o.at.After(prev.at)
	}
	return o.price.GreaterThan(prev.price)
}

// PriceIndex holds one daily price history per instrument.
// It is read-only once built.
type PriceIndex struct {
	histories map[InstrumentID]*date.History[observation]
}

// NewPriceIndex indexes price snapshots by instrument and UTC calendar day.
//
// When an instrument has several snapshots on one day, the latest one wins,
// and the highest price among snapshots taken at the very same instant.
// Malformed points are skipped and returned combined with multierr.
func NewPriceIndex(series map[InstrumentID][]PricePoint) (*PriceIndex, error) {
	idx := &PriceIndex{histories: make(map[InstrumentID]*date.History[observation], len(series))}
	var errs error
	for id, points := range series {
		h := new(date.History[observation])
		for _, p := range points {
			if p.Instrument == "" {
				p.Instrument = id
			}
			if err := p.Validate(); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			if p.Instrument != id {
				errs = multierr.Append(errs, &MalformedPricePointError{PricePoint: p, Reason: fmt.Sprintf("listed under instrument %s", id)})
				continue
			}
			day := date.Of(p.Timestamp)
			obs := observation{at: p.Timestamp, price: p.Price.Decimal()}
			if prev, ok := h.Get(day); ok && !obs.supersedes(prev) {
				continue
			}
			h.Append(day, obs)
		}
		idx.histories[id] = h
	}
	return idx, errs
}

// Has reports whether the index knows the instrument, even with no point.
func (idx *PriceIndex) Has(id InstrumentID) bool {
	_, ok := idx.histories[id]
	return ok
}

// Len returns the number of daily prices known for an instrument.
func (idx *PriceIndex) Len(id InstrumentID) int {
	if h, ok := idx.histories[id]; ok {
		return h.Len()
	}
	return 0
}

// Resolve returns the price of one unit of id for the given day.
func (idx *PriceIndex) Resolve(id InstrumentID, day date.Date, mode Resolution) (decimal.Decimal, bool) {
	h, ok := idx.histories[id]
	if !ok {
		return decimal.Zero, false
	}
	var obs observation
	switch mode {
	case LastKnown:
		obs, ok = h.ValueAsOf(day)
	default:
		obs, ok = h.Get(day)
	}
	return obs.price, ok
}
