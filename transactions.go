package valuation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// InstrumentID identifies a tradable unit, e.g. a tranche of a pool.
type InstrumentID string

// Kind is the kind of a ledger event.
type Kind int

// Kinds of transactions. Only the first four move a position.
const (
	unknownKind Kind = iota
	BuyExecuted
	SellExecuted
	TransferIn
	TransferOut
	Other
)

var kindNames = [...]string{
	unknownKind:  "unknown",
	BuyExecuted:  "buy",
	SellExecuted: "sell",
	TransferIn:   "transfer-in",
	TransferOut:  "transfer-out",
	Other:        "other",
}

// feedKinds maps upstream event names (normalized to lower-kebab-case) to kinds.
var feedKinds = map[string]Kind{
	"invest-execution":    BuyExecuted,
	"invest-executed":     BuyExecuted,
	"redeem-execution":    SellExecuted,
	"redeem-executed":     SellExecuted,
	"transfer-in":         TransferIn,
	"transfer-out":        TransferOut,
	"invest-order-update": Other,
	"redeem-order-update": Other,
	"invest-order-cancel": Other,
	"redeem-order-cancel": Other,
	"invest-collect":      Other,
	"redeem-collect":      Other,
}

func (k Kind) String() string {
	if k < unknownKind || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsValid reports whether k is one of the declared kinds.
func (k Kind) IsValid() bool { return k > unknownKind && k <= Other }

// ParseKind parses a canonical kind name ("buy", "transfer-in", ...) or an
// upstream event name ("INVEST_EXECUTION", "TRANSFER_OUT", ...).
func ParseKind(s string) (Kind, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for k, name := range kindNames {
		if Kind(k) != unknownKind && name == n {
			return Kind(k), nil
		}
	}
	if k, ok := feedKinds[n]; ok {
		return k, nil
	}
	return unknownKind, fmt.Errorf("unknown transaction kind %q", s)
}

func (k Kind) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

// UnmarshalJSON never fails on an unknown name: the kind stays invalid and
// the transaction is rejected by Validate, not by the decoder.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*k, _ = ParseKind(s)
	return nil
}

// Transaction is an immutable ledger event affecting one instrument.
type Transaction struct {
	Instrument InstrumentID `json:"instrument"`
	Kind       Kind         `json:"kind"`
	Units      Quantity     `json:"units"`     // Units is a positive magnitude, the direction comes from Kind.
	Timestamp  time.Time    `json:"timestamp"` // Timestamp is compared as an UTC instant.
}

// NewTransaction returns a Transaction.
func NewTransaction(instrument InstrumentID, kind Kind, units Quantity, at time.Time) Transaction {
	return Transaction{Instrument: instrument, Kind: kind, Units: units, Timestamp: at}
}

// Validate reports a *MalformedTransactionError when the transaction cannot be
// applied to a position.
func (t Transaction) Validate() error {
	switch {
	case !t.Kind.IsValid():
		return &MalformedTransactionError{Transaction: t, Reason: "unknown kind"}
	case t.Instrument == "":
		return &MalformedTransactionError{Transaction: t, Reason: "missing instrument"}
	case t.Units.IsNegative():
		return &MalformedTransactionError{Transaction: t, Reason: fmt.Sprintf("negative units %s", t.Units)}
	case t.Timestamp.IsZero():
		return &MalformedTransactionError{Transaction: t, Reason: "missing timestamp"}
	}
	return nil
}

// Signed returns the change in position caused by the transaction.
func (t Transaction) Signed() Quantity {
	switch t.Kind {
	case BuyExecuted, TransferIn:
		return t.Units
	case SellExecuted, TransferOut:
		return t.Units.Neg()
	default:
		return Quantity{}
	}
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s %s %s %s", t.Timestamp.UTC().Format(time.RFC3339), t.Kind, t.Units, t.Instrument)
}

// MarshalJSON keeps a stable field order in ledger files.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("timestamp", t.Timestamp.UTC())
	w.Append("kind", t.Kind)
	w.Append("instrument", t.Instrument)
	w.Append("units", t.Units)
	return w.MarshalJSON()
}

// PricePoint is a snapshot of an instrument's price at a given instant.
type PricePoint struct {
	Instrument InstrumentID `json:"instrument"`
	Timestamp  time.Time    `json:"timestamp"`
	Price      Price        `json:"price"`
}

// Validate reports a *MalformedPricePointError when the point cannot be used.
func (p PricePoint) Validate() error {
	switch {
	case p.Instrument == "":
		return &MalformedPricePointError{PricePoint: p, Reason: "missing instrument"}
	case p.Timestamp.IsZero():
		return &MalformedPricePointError{PricePoint: p, Reason: "missing timestamp"}
	case !p.Price.IsValid():
		return &MalformedPricePointError{PricePoint: p, Reason: "missing price"}
	}
	return nil
}

func (p PricePoint) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("timestamp", p.Timestamp.UTC())
	w.Append("instrument", p.Instrument)
	w.Append("price", p.Price)
	return w.MarshalJSON()
}
