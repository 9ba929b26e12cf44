package valuation

import (
	"bytes"
	"strings"
	"testing"
)

func TestDecodeTransactions(t *testing.T) {
	input := `{"timestamp":"2025-01-01T09:00:00Z","kind":"buy","instrument":"0xpool-senior","units":"12"}

{"timestamp":"2025-01-02T09:00:00Z","kind":"REDEEM_EXECUTION","instrument":"0xpool-senior","units":2.5}
{"timestamp":"2025-01-03T09:00:00Z","kind":"airdrop","instrument":"0xpool-senior","units":"1"}
`
	txs, err := DecodeTransactions(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeTransactions() error = %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("DecodeTransactions() = %d transactions, want 3", len(txs))
	}
	if txs[1].Kind != SellExecuted || txs[1].Units.String() != "2.5" {
		t.Errorf("second transaction = %v", txs[1])
	}
	if txs[2].Validate() == nil {
		t.Errorf("third transaction should be malformed")
	}
}

func TestDecodeTransactions_Error(t *testing.T) {
	input := `{"timestamp":"2025-01-01T09:00:00Z","kind":"buy","instrument":"x","units":"1"}
{"timestamp":
`
	_, err := DecodeTransactions(strings.NewReader(input))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("DecodeTransactions() error = %v, want an error on line 2", err)
	}
}

func TestEncodeTransactions(t *testing.T) {
	txs := []Transaction{
		buy(SENIOR, 10, "2025-01-01T09:00:00Z"),
		sell(JUNIOR, 3, "2025-01-02T09:00:00Z"),
	}
	var buf bytes.Buffer
	if err := EncodeTransactions(&buf, txs); err != nil {
		t.Fatal(err)
	}
	want := `{"timestamp":"2025-01-01T09:00:00Z","kind":"buy","instrument":"0xpool-senior","units":"10"}
{"timestamp":"2025-01-02T09:00:00Z","kind":"sell","instrument":"0xpool-junior","units":"3"}
`
	if got := buf.String(); got != want {
		t.Errorf("EncodeTransactions() =\n%s\nwant\n%s", got, want)
	}
	back, err := DecodeTransactions(&buf)
	if err != nil {
		t.Fatal(err)
	}
	for i := range txs {
		if back[i].String() != txs[i].String() {
			t.Errorf("decoded %v, want %v", back[i], txs[i])
		}
	}
}

func TestPricePoints_Codec(t *testing.T) {
	points := []PricePoint{
		point(SENIOR, "2025-01-01T00:00:00Z", "1015000000"),
		{Instrument: SENIOR, Timestamp: at("2025-01-02T00:00:00Z"), Price: MustParsePrice("1016000000000000000", 18)},
	}
	var buf bytes.Buffer
	if err := EncodePricePoints(&buf, points); err != nil {
		t.Fatal(err)
	}
	want := `{"timestamp":"2025-01-01T00:00:00Z","instrument":"0xpool-senior","price":{"raw":"1015000000","decimals":9}}
{"timestamp":"2025-01-02T00:00:00Z","instrument":"0xpool-senior","price":{"raw":"1016000000000000000","decimals":18}}
`
	if got := buf.String(); got != want {
		t.Errorf("EncodePricePoints() =\n%s\nwant\n%s", got, want)
	}
	back, err := DecodePricePoints(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 2 || back[1].Price.Decimals() != 18 || back[1].Price.String() != "1.016" {
		t.Errorf("DecodePricePoints() = %v", back)
	}
}
