package valuation

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// decodeLines decodes one JSON value per line of r, skipping empty lines.
func decodeLines[T any](r io.Reader, what string) ([]T, error) {
	var list []T
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}
		var v T
		if err := json.Unmarshal(lineBytes, &v); err != nil {
			return nil, fmt.Errorf("line %d: could not decode %s %q: %w", line, what, string(lineBytes), err)
		}
		list = append(list, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// encodeLines writes one JSON value per line.
func encodeLines[T any](w io.Writer, list []T) error {
	enc := json.NewEncoder(w)
	for _, v := range list {
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

// DecodeTransactions decodes a JSONL ledger.
//
// A line that is not valid JSON is an error. A well formed line describing a
// malformed transaction (e.g. an unknown kind) is returned as is, it is up to
// the engine to skip it.
func DecodeTransactions(r io.Reader) ([]Transaction, error) {
	return decodeLines[Transaction](r, "transaction")
}

// EncodeTransactions writes transactions as JSONL.
func EncodeTransactions(w io.Writer, txs []Transaction) error { return encodeLines(w, txs) }

// DecodePricePoints decodes a JSONL price history.
func DecodePricePoints(r io.Reader) ([]PricePoint, error) {
	return decodeLines[PricePoint](r, "price point")
}

// EncodePricePoints writes price points as JSONL.
func EncodePricePoints(w io.Writer, points []PricePoint) error { return encodeLines(w, points) }
