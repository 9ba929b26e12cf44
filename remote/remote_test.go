package remote

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/etnz/valuation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const transactionsBody = `{"data":[
	{"instrument":"0xpool-senior","type":"INVEST_EXECUTION","amount":"10","timestamp":"2025-03-01T10:00:00Z"},
	{"instrument":"0xpool-senior","type":"REDEEM_EXECUTION","amount":2.5,"timestamp":1740996000},
	{"instrument":"0xpool-junior","type":"AIRDROP","amount":"1","timestamp":"2025-03-02T10:00:00Z"},
	{"instrument":"0xpool-junior","type":"TRANSFER_IN","amount":"abc","timestamp":"2025-03-02T10:00:00Z"},
	"garbage"
]}`

const pricesBody = `{"data":[
	{"instrument":"0xpool-senior","timestamp":"2025-03-01T00:00:00Z","raw":"1015000000","decimals":9},
	{"timestamp":"2025-03-02T00:00:00Z","raw":1016000000000000000,"decimals":18},
	{"timestamp":"2025-03-03T00:00:00Z","raw":"1","decimals":99}
]}`

func newServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wallets/{address}/transactions", func(w http.ResponseWriter, r *http.Request) {
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.PathValue("address") != "0xwallet" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, transactionsBody)
	})
	mux.HandleFunc("GET /instruments/{id}/prices", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "0xpool-senior":
			io.WriteString(w, pricesBody)
		case "0xpool-broken":
			http.Error(w, "oops", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func quiet() Option { return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))) }

func TestClient_Transactions(t *testing.T) {
	srv := newServer(t, "secret")
	c := New(srv.URL+"/", WithToken("secret"), quiet())
	ctx := context.Background()

	txs, err := c.Transactions(ctx, "0xwallet")
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, valuation.InstrumentID("0xpool-senior"), txs[0].Instrument)
	assert.Equal(t, valuation.BuyExecuted, txs[0].Kind)
	assert.True(t, txs[0].Units.Equal(valuation.Q(10)))

	assert.Equal(t, valuation.SellExecuted, txs[1].Kind)
	assert.Equal(t, "2.5", txs[1].Units.String())
	assert.Equal(t, time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC), txs[1].Timestamp)

	// Unknown types are returned, and rejected later.
	assert.False(t, txs[2].Kind.IsValid())
	assert.Error(t, txs[2].Validate())

	none, err := c.Transactions(ctx, "0xnobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestClient_Unauthorized(t *testing.T) {
	srv := newServer(t, "secret")
	c := New(srv.URL, quiet())
	_, err := c.Transactions(context.Background(), "0xwallet")
	assert.ErrorContains(t, err, "401")
}

func TestClient_DailySnapshots(t *testing.T) {
	srv := newServer(t, "")
	c := New(srv.URL, quiet())
	ctx := context.Background()

	got, err := c.DailySnapshots(ctx, []valuation.InstrumentID{"0xpool-senior", "0xpool-unknown"})
	require.NoError(t, err)
	require.Contains(t, got, valuation.InstrumentID("0xpool-senior"))
	assert.NotContains(t, got, valuation.InstrumentID("0xpool-unknown"))

	points := got["0xpool-senior"]
	require.Len(t, points, 2)
	assert.Equal(t, "1.015", points[0].Price.String())
	assert.Equal(t, int32(18), points[1].Price.Decimals())
	assert.Equal(t, "1.016", points[1].Price.String())
	assert.Equal(t, valuation.InstrumentID("0xpool-senior"), points[1].Instrument)

	_, err = c.DailySnapshots(ctx, []valuation.InstrumentID{"0xpool-broken"})
	assert.ErrorContains(t, err, "500")
}

func TestClient_Paths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"result":{"events":[{"instrument":"x","type":"buy","amount":"1","timestamp":"2025-03-01T10:00:00Z"}]}}`)
	}))
	defer srv.Close()
	c := New(srv.URL, WithPaths("$.result.events[*]", DefaultPath), quiet())
	txs, err := c.Transactions(context.Background(), "0xwallet")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, valuation.BuyExecuted, txs[0].Kind)
}

func TestClient_RateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	c := New(srv.URL, WithRate(rate.Every(time.Hour), 1), quiet())
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := c.Transactions(ctx, "0xwallet")
	require.NoError(t, err)
	// The burst is spent, the next request cannot be scheduled before the deadline.
	_, err = c.Transactions(ctx, "0xwallet")
	assert.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_Valuator(t *testing.T) {
	srv := newServer(t, "")
	c := New(srv.URL, quiet())
	v := &valuation.Valuator{Ledger: c, Prices: c, Engine: valuation.Engine{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}}
	s, err := v.Snapshot(context.Background(), "0xwallet", time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	// 10 units at 1.015, the junior tranche has no price.
	assert.Equal(t, "10.15", s.Total().Decimal().String())
}
