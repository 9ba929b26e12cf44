package valuation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// MaxDecimals bounds the scale a price feed may declare.
const MaxDecimals = 36

// Price is the price of one unit of an instrument in the reference currency.
//
// It is a fixed-point integer carried with its own scale: the value is
// raw / 10^decimals. A feed quoting 1e18-scaled integers and one quoting
// 1e9-scaled integers are told apart by the decimals field, never by the
// number of digits of raw.
type Price struct {
	raw      *big.Int
	decimals int32
}

// NewPrice returns the price raw / 10^decimals.
func NewPrice(raw *big.Int, decimals int32) (Price, error) {
	if raw == nil {
		return Price{}, errors.New("price has no raw value")
	}
	if decimals < 0 || decimals > MaxDecimals {
		return Price{}, fmt.Errorf("price decimals %d out of range [0, %d]", decimals, MaxDecimals)
	}
	if raw.Sign() < 0 {
		return Price{}, fmt.Errorf("price %s is negative", raw)
	}
	return Price{raw: new(big.Int).Set(raw), decimals: decimals}, nil
}

// ParsePrice parses raw as a base 10 integer scaled by 10^decimals.
func ParsePrice(raw string, decimals int32) (Price, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return Price{}, fmt.Errorf("invalid raw price %q: not an integer", raw)
	}
	return NewPrice(v, decimals)
}

// MustParsePrice is like ParsePrice but panics on error.
func MustParsePrice(raw string, decimals int32) Price {
	p, err := ParsePrice(raw, decimals)
	if err != nil {
		panic(err.Error())
	}
	return p
}

// IsValid is false for the zero Price.
func (p Price) IsValid() bool { return p.raw != nil }

// Raw returns a copy of the scaled integer.
func (p Price) Raw() *big.Int {
	if p.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(p.raw)
}

// Decimals returns the scale of the price.
func (p Price) Decimals() int32 { return p.decimals }

// Decimal returns the exact value raw / 10^decimals.
func (p Price) Decimal() decimal.Decimal {
	if p.raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(p.raw, -p.decimals)
}

// Equal compares values, not representations: 1000/3 equals 10/1.
func (p Price) Equal(q Price) bool { return p.Decimal().Equal(q.Decimal()) }

func (p Price) String() string { return p.Decimal().String() }

type priceJSON struct {
	Raw      string `json:"raw"`
	Decimals int32  `json:"decimals"`
}

func (p Price) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("raw", p.Raw().String())
	w.Append("decimals", p.decimals)
	return w.MarshalJSON()
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var v priceJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := ParsePrice(v.Raw, v.Decimals)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
