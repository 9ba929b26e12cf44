package valuation

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SENIOR InstrumentID = "0xpool-senior"
	JUNIOR InstrumentID = "0xpool-junior"
)

// USD is a helper for test to create usd money from const
func USD(v int) Money { return M(v, "USD") }

// usd parses a decimal usd amount like "20.5".
func usd(s string) Money { return M(decimal.RequireFromString(s), "USD") }

// at parses an RFC3339 instant.
func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func buy(id InstrumentID, units int, when string) Transaction {
	return NewTransaction(id, BuyExecuted, Q(units), at(when))
}

func sell(id InstrumentID, units int, when string) Transaction {
	return NewTransaction(id, SellExecuted, Q(units), at(when))
}

// point returns a price point with a 1e9 scaled raw price.
func point(id InstrumentID, when, raw string) PricePoint {
	return PricePoint{Instrument: id, Timestamp: at(when), Price: MustParsePrice(raw, 9)}
}
