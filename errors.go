package valuation

import (
	"errors"
	"fmt"
)

// ErrInvalidWindow is returned when the lookback window is negative.
var ErrInvalidWindow = errors.New("invalid window")

// ErrMalformed matches every malformed input error with errors.Is.
var ErrMalformed = errors.New("malformed input")

// MalformedTransactionError describes a transaction that was skipped.
type MalformedTransactionError struct {
	Transaction Transaction
	Reason      string
}

func (e *MalformedTransactionError) Error() string {
	return fmt.Sprintf("malformed transaction %v: %s", e.Transaction, e.Reason)
}

func (e *MalformedTransactionError) Is(target error) bool { return target == ErrMalformed }

// MalformedPricePointError describes a price snapshot that was skipped.
type MalformedPricePointError struct {
	PricePoint PricePoint
	Reason     string
}

func (e *MalformedPricePointError) Error() string {
	p := e.PricePoint
	return fmt.Sprintf("malformed price point %s@%s: %s", p.Instrument, p.Timestamp.UTC().Format("2006-01-02T15:04:05Z"), e.Reason)
}

func (e *MalformedPricePointError) Is(target error) bool { return target == ErrMalformed }
