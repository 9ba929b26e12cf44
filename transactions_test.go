package valuation

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"buy", BuyExecuted},
		{"sell", SellExecuted},
		{"transfer-in", TransferIn},
		{"transfer-out", TransferOut},
		{"other", Other},
		{"INVEST_EXECUTION", BuyExecuted},
		{"REDEEM_EXECUTION", SellExecuted},
		{"TRANSFER_IN", TransferIn},
		{" Transfer_Out ", TransferOut},
		{"INVEST_ORDER_UPDATE", Other},
		{"REDEEM_COLLECT", Other},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil {
			t.Errorf("ParseKind(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	for _, in := range []string{"", "unknown", "dividend"} {
		if got, err := ParseKind(in); err == nil {
			t.Errorf("ParseKind(%q) = %v, want error", in, got)
		}
	}
}

func TestTransaction_Signed(t *testing.T) {
	when := at("2025-01-01T00:00:00Z")
	tests := []struct {
		kind Kind
		want Quantity
	}{
		{BuyExecuted, Q(3)},
		{TransferIn, Q(3)},
		{SellExecuted, Q(-3)},
		{TransferOut, Q(-3)},
		{Other, Q(0)},
	}
	for _, tt := range tests {
		if got := NewTransaction(SENIOR, tt.kind, Q(3), when).Signed(); !got.Equal(tt.want) {
			t.Errorf("%v.Signed() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestTransaction_Validate(t *testing.T) {
	when := at("2025-01-01T00:00:00Z")
	tests := []struct {
		name  string
		tx    Transaction
		valid bool
	}{
		{"valid", NewTransaction(SENIOR, BuyExecuted, Q(1), when), true},
		{"zero units", NewTransaction(SENIOR, SellExecuted, Q(0), when), true},
		{"other", NewTransaction(SENIOR, Other, Q(0), when), true},
		{"unknown kind", NewTransaction(SENIOR, Kind(0), Q(1), when), false},
		{"out of range kind", NewTransaction(SENIOR, Kind(42), Q(1), when), false},
		{"no instrument", NewTransaction("", BuyExecuted, Q(1), when), false},
		{"negative units", NewTransaction(SENIOR, BuyExecuted, Q(-1), when), false},
		{"no timestamp", NewTransaction(SENIOR, BuyExecuted, Q(1), time.Time{}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.valid && err != nil {
				t.Errorf("Validate() error = %v", err)
			}
			if !tt.valid {
				var malformed *MalformedTransactionError
				if !errors.As(err, &malformed) || !errors.Is(err, ErrMalformed) {
					t.Errorf("Validate() error = %v, want a MalformedTransactionError", err)
				}
			}
		})
	}
}

func TestTransaction_JSON(t *testing.T) {
	tx := NewTransaction(SENIOR, TransferIn, Q(12), at("2025-01-01T10:00:00+01:00"))
	data, err := json.Marshal(tx)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"timestamp":"2025-01-01T09:00:00Z","kind":"transfer-in","instrument":"0xpool-senior","units":"12"}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}

	var feed Transaction
	if err := json.Unmarshal([]byte(`{"instrument":"x","kind":"INVEST_EXECUTION","units":1.5,"timestamp":"2025-01-01T00:00:00Z"}`), &feed); err != nil {
		t.Fatal(err)
	}
	if feed.Kind != BuyExecuted || !feed.Units.Equal(must(ParseQuantity("1.5"))) {
		t.Errorf("unmarshal = %v", feed)
	}

	var unknown Transaction
	if err := json.Unmarshal([]byte(`{"instrument":"x","kind":"airdrop","units":"1","timestamp":"2025-01-01T00:00:00Z"}`), &unknown); err != nil {
		t.Fatalf("unknown kind should decode, got %v", err)
	}
	if unknown.Validate() == nil {
		t.Error("unknown kind should not validate")
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
