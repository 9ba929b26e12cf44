package valuation

import (
	"github.com/etnz/valuation/date"
)

// DailyValuation is the total value of a wallet at the end of a calendar day.
type DailyValuation struct {
	Date  date.Date
	Value Money
}

func (v DailyValuation) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("date", v.Date)
	w.Append("value", v.Value.Decimal().String())
	w.Optional("currency", v.Value.Currency())
	return w.MarshalJSON()
}

// Series is a dense, chronological list of daily valuations: one entry per
// calendar day, oldest first.
type Series []DailyValuation

// Range returns the days covered by the series.
func (s Series) Range() date.Range {
	if len(s) == 0 {
		return date.Range{}
	}
	return date.Range{From: s[0].Date, To: s[len(s)-1].Date}
}

// Latest returns the most recent valuation, the zero value if empty.
func (s Series) Latest() DailyValuation {
	if len(s) == 0 {
		return DailyValuation{}
	}
	return s[len(s)-1]
}

// High returns the entry with the highest value, the earliest one on ties.
func (s Series) High() DailyValuation {
	return s.pick(func(v, best Money) bool { return v.GreaterThan(best) })
}

// Low returns the entry with the lowest value, the earliest one on ties.
func (s Series) Low() DailyValuation {
	return s.pick(func(v, best Money) bool { return v.LessThan(best) })
}

func (s Series) pick(better func(v, best Money) bool) DailyValuation {
	if len(s) == 0 {
		return DailyValuation{}
	}
	best := s[0]
	for _, v := range s[1:] {
		if better(v.Value, best.Value) {
			best = v
		}
	}
	return best
}

// Change returns the value difference between the last and the first day.
func (s Series) Change() Money {
	if len(s) == 0 {
		return Money{}
	}
	return s[len(s)-1].Value.Sub(s[0].Value)
}

// Return returns the change relative to the first day's value, and false
// when the wallet was worth nothing on the first day.
func (s Series) Return() (Percent, bool) {
	if len(s) == 0 {
		return Percent{}, false
	}
	return Ratio(s.Change(), s[0].Value)
}

// Sample keeps the last entry of each period, for instance one point per
// week for a chart. The latest entry is always kept, even when its period
// is not over.
func (s Series) Sample(period date.Period) Series {
	if period == date.Daily {
		return s
	}
	var sampled Series
	for i, v := range s {
		if i == len(s)-1 || !date.NewRange(v.Date, period).Contains(s[i+1].Date) {
			sampled = append(sampled, v)
		}
	}
	return sampled
}
