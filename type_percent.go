package valuation

import "github.com/shopspring/decimal"

// Percent is an exact percentage, 12.5 meaning 12.5%.
type Percent struct {
	value decimal.Decimal
}

// Ratio returns a/b as a percentage, and false when b is zero.
func Ratio(a, b Money) (Percent, bool) {
	if b.IsZero() {
		return Percent{}, false
	}
	return Percent{value: a.value.Mul(decimal.NewFromInt(100)).Div(b.value)}, true
}

func (p Percent) Decimal() decimal.Decimal { return p.value }

// Equal compares percentages to the hundredth of a percent, as printed.
func (p Percent) Equal(q Percent) bool { return p.value.Round(2).Equal(q.value.Round(2)) }

func (p Percent) String() string { return p.value.StringFixed(2) + "%" }

// SignedString is like String with an explicit sign, or "-" for no change.
func (p Percent) SignedString() string {
	s := p.value.StringFixed(2)
	switch {
	case s == "0.00" || s == "-0.00":
		return "-"
	case p.value.IsPositive():
		return "+" + s + "%"
	default:
		return s + "%"
	}
}
