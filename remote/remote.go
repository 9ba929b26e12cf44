// Package remote reads ledgers and price histories from an HTTP JSON API.
//
// The API is expected to serve
//
//	GET {base}/wallets/{address}/transactions
//	GET {base}/instruments/{id}/prices
//
// Each answer holds a list of items located by a JSONPath expression, "$.data[*]"
// by default. A transaction item looks like
//
//	{"instrument": "0xpool-senior", "type": "INVEST_EXECUTION", "amount": "10.5", "timestamp": "2025-03-01T10:00:00Z"}
//
// and a price item like
//
//	{"instrument": "0xpool-senior", "timestamp": 1740787200, "raw": "1015000000", "decimals": 9}
//
// Timestamps are RFC 3339 strings or unix seconds. Amounts and raw prices are
// strings or JSON numbers, never read as floats.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/valuation"
	"golang.org/x/time/rate"
)

// DefaultPath locates the items in an answer.
const DefaultPath = "$.data[*]"

// errNotFound is returned by get on a 404.
var errNotFound = errors.New("not found")

// Client implements valuation.TransactionLogProvider and
// valuation.PriceHistoryProvider over HTTP.
type Client struct {
	BaseURL          string
	Token            string        // Token is sent as a bearer token when set.
	HTTP             *http.Client  // HTTP defaults to a client with a 30s timeout.
	Limiter          *rate.Limiter // Limiter paces every request.
	TransactionsPath string
	PricesPath       string
	Logger           *slog.Logger
}

var (
	_ valuation.TransactionLogProvider = (*Client)(nil)
	_ valuation.PriceHistoryProvider   = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithToken authenticates requests with a bearer token.
func WithToken(token string) Option { return func(c *Client) { c.Token = token } }

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTP = h } }

// WithRate limits requests to r per second with the given burst.
func WithRate(r rate.Limit, burst int) Option {
	return func(c *Client) { c.Limiter = rate.NewLimiter(r, burst) }
}

// WithPaths sets the JSONPath expressions locating transaction and price items.
func WithPaths(transactions, prices string) Option {
	return func(c *Client) { c.TransactionsPath, c.PricesPath = transactions, prices }
}

// WithLogger sets the logger receiving skipped items.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.Logger = l } }

// New returns a Client for the API at baseURL, allowing 10 requests per second.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:          strings.TrimSuffix(baseURL, "/"),
		HTTP:             &http.Client{Timeout: 30 * time.Second},
		Limiter:          rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
		TransactionsPath: DefaultPath,
		PricesPath:       DefaultPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// get performs an HTTP GET request and decodes the JSON answer, keeping
// numbers as json.Number.
func (c *Client) get(ctx context.Context, path string) (any, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	c.logger().Debug("http get", "path", path, "status", resp.StatusCode)

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("cannot http GET %v: %v", path, resp.Status)
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var jobj any
	if err := dec.Decode(&jobj); err != nil {
		return nil, fmt.Errorf("cannot decode %v: %w", path, err)
	}
	return jobj, nil
}

// items evaluates path and always returns a list.
func items(path string, jobj any) ([]any, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("error evaluating %q: %w", path, err)
	}
	// jsonpath returns a list for wildcards and a single value otherwise.
	if list, ok := jval.([]any); ok {
		return list, nil
	}
	return []any{jval}, nil
}

// Transactions returns the wallet's transactions. An unknown wallet has none.
func (c *Client) Transactions(ctx context.Context, address string) ([]valuation.Transaction, error) {
	jobj, err := c.get(ctx, "/wallets/"+url.PathEscape(address)+"/transactions")
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	list, err := items(c.TransactionsPath, jobj)
	if err != nil {
		return nil, err
	}
	txs := make([]valuation.Transaction, 0, len(list))
	for i, item := range list {
		tx, err := parseTransaction(item)
		if err != nil {
			c.logger().Warn("skipping transaction item", "wallet", address, "index", i, "error", err)
			continue
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// DailySnapshots reads the price history of each instrument in turn.
// Instruments unknown to the API are absent from the result.
func (c *Client) DailySnapshots(ctx context.Context, ids []valuation.InstrumentID) (map[valuation.InstrumentID][]valuation.PricePoint, error) {
	result := make(map[valuation.InstrumentID][]valuation.PricePoint, len(ids))
	for _, id := range ids {
		jobj, err := c.get(ctx, "/instruments/"+url.PathEscape(string(id))+"/prices")
		if errors.Is(err, errNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		list, err := items(c.PricesPath, jobj)
		if err != nil {
			return nil, err
		}
		points := make([]valuation.PricePoint, 0, len(list))
		for i, item := range list {
			p, err := parsePricePoint(item, id)
			if err != nil {
				c.logger().Warn("skipping price item", "instrument", id, "index", i, "error", err)
				continue
			}
			points = append(points, p)
		}
		result[id] = points
	}
	return result, nil
}

func parseTransaction(item any) (valuation.Transaction, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return valuation.Transaction{}, fmt.Errorf("item is a %T, not an object", item)
	}
	var tx valuation.Transaction
	tx.Instrument = valuation.InstrumentID(text(obj["instrument"]))
	// Unknown types are kept, as an invalid kind, for the engine to report.
	tx.Kind, _ = valuation.ParseKind(text(obj["type"]))

	units, err := valuation.ParseQuantity(text(obj["amount"]))
	if err != nil {
		return tx, fmt.Errorf("invalid amount %v: %w", obj["amount"], err)
	}
	tx.Units = units

	if tx.Timestamp, err = timestamp(obj["timestamp"]); err != nil {
		return tx, err
	}
	return tx, nil
}

func parsePricePoint(item any, id valuation.InstrumentID) (valuation.PricePoint, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return valuation.PricePoint{}, fmt.Errorf("item is a %T, not an object", item)
	}
	p := valuation.PricePoint{Instrument: valuation.InstrumentID(text(obj["instrument"]))}
	if p.Instrument == "" {
		p.Instrument = id
	}
	var err error
	if p.Timestamp, err = timestamp(obj["timestamp"]); err != nil {
		return p, err
	}
	decimals, ok := obj["decimals"].(json.Number)
	if !ok {
		return p, fmt.Errorf("missing decimals")
	}
	d, err := decimals.Int64()
	if err != nil || d < 0 || d > valuation.MaxDecimals {
		return p, fmt.Errorf("invalid decimals %v", decimals)
	}
	if p.Price, err = valuation.ParsePrice(text(obj["raw"]), int32(d)); err != nil {
		return p, err
	}
	return p, nil
}

// text returns strings and numbers as their literal text.
func text(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// timestamp reads an RFC 3339 string or unix seconds.
func timestamp(v any) (time.Time, error) {
	switch v := v.(type) {
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", v, err)
		}
		return t.UTC(), nil
	case json.Number:
		s, err := v.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %v: %w", v, err)
		}
		return time.Unix(s, 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
}
