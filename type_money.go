package valuation

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the reference currency used when none is configured.
const DefaultCurrency = "USD"

// Money represents a monetary value in the reference currency.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

func M[T int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// ValidateCurrency checks that code is a known ISO 4217 currency.
func ValidateCurrency(code string) error {
	if money.GetCurrency(code) == nil {
		return fmt.Errorf("unknown currency %q", code)
	}
	return nil
}

// currency returns the money's currency
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.cur).Currency()
}

// String returns the string representation of the money value, rounded to the
// currency's minor unit.
func (m Money) String() string {
	cur := m.currency()
	minor := m.value.Shift(int32(cur.Fraction)).Round(0).BigInt()
	if minor.IsInt64() {
		return cur.Formatter().Format(minor.Int64())
	}
	return formatMinor(cur, minor)
}

// formatMinor formats an amount of minor units that does not fit an int64,
// the way money.Formatter does.
func formatMinor(cur money.Currency, minor *big.Int) string {
	digits := new(big.Int).Abs(minor).String()
	if len(digits) <= cur.Fraction {
		digits = strings.Repeat("0", cur.Fraction-len(digits)+1) + digits
	}
	if cur.Thousand != "" {
		for i := len(digits) - cur.Fraction - 3; i > 0; i -= 3 {
			digits = digits[:i] + cur.Thousand + digits[i:]
		}
	}
	if cur.Fraction > 0 {
		digits = digits[:len(digits)-cur.Fraction] + cur.Decimal + digits[len(digits)-cur.Fraction:]
	}
	s := strings.Replace(cur.Template, "1", digits, 1)
	s = strings.Replace(s, "$", cur.Grapheme, 1)
	if minor.Sign() < 0 {
		s = "-" + s
	}
	return s
}

func (m Money) Currency() string         { return m.cur }
func (m Money) Decimal() decimal.Decimal { return m.value }
func (m Money) Equal(n Money) bool       { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) IsZero() bool             { return m.value.IsZero() }
func (m Money) IsNegative() bool         { return m.value.IsNegative() }
func (m Money) IsPositive() bool         { return m.value.IsPositive() }
func (m Money) LessThan(n Money) bool    { return m.value.LessThan(n.value) }
func (m Money) GreaterThan(n Money) bool { return m.value.GreaterThan(n.value) }
func (m Money) Neg() Money               { return Money{value: m.value.Neg(), cur: m.cur} }
func (m Money) Mul(n Quantity) Money     { return Money{value: m.value.Mul(n.value), cur: m.cur} }

// binary operators.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }

// makes the "" currency totally weak.
func cur(A, B Money) string {
	if A.cur == "" {
		return B.cur
	}
	if B.cur == "" {
		return A.cur
	}
	if A.cur != B.cur {
		panic("currency mismatch " + A.cur + "!=" + B.cur)
	}
	return A.cur
}

// MarshalJSON writes every digit, the value is exact.
func (m Money) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("value", m.value.String())
	w.Optional("currency", m.cur)
	return w.MarshalJSON()
}
