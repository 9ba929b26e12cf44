// Package store keeps ledgers and price histories in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/etnz/valuation"
	"go.uber.org/multierr"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	wallet     TEXT    NOT NULL,
	instrument TEXT    NOT NULL,
	kind       TEXT    NOT NULL,
	units      TEXT    NOT NULL,
	at         INTEGER NOT NULL,
	UNIQUE (wallet, instrument, kind, units, at)
);
CREATE INDEX IF NOT EXISTS transactions_wallet ON transactions (wallet);

CREATE TABLE IF NOT EXISTS prices (
	instrument TEXT    NOT NULL,
	at         INTEGER NOT NULL,
	raw        TEXT    NOT NULL,
	decimals   INTEGER NOT NULL,
	PRIMARY KEY (instrument, at)
);
`

// Store implements valuation.TransactionLogProvider and
// valuation.PriceHistoryProvider on SQLite.
//
// Timestamps are stored as unix nanoseconds, prices as their raw integer
// text and decimals so that no digit is lost.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var (
	_ valuation.TransactionLogProvider = (*Store)(nil)
	_ valuation.PriceHistoryProvider   = (*Store)(nil)
)

// Open opens the database at dsn (a file path or ":memory:") and creates the
// schema if needed.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("database path is required")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection: one writer, and ":memory:" is per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	logger := slog.Default()
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		logger.Warn("pragma busy_timeout failed", "err", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AddTransactions appends transactions to the wallet's ledger.
//
// Transactions already stored are ignored, so importing a file twice is
// harmless. Malformed transactions are not stored, they are returned
// combined with multierr after the valid ones are committed.
func (s *Store) AddTransactions(ctx context.Context, address string, txs []valuation.Transaction) (int, error) {
	var malformed error
	added := 0
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() // no-op once committed
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO transactions (wallet, instrument, kind, units, at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, t := range txs {
		if err := t.Validate(); err != nil {
			malformed = multierr.Append(malformed, err)
			continue
		}
		res, err := stmt.ExecContext(ctx, address, string(t.Instrument), t.Kind.String(), t.Units.String(), t.Timestamp.UnixNano())
		if err != nil {
			return 0, fmt.Errorf("insert %v: %w", t, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	s.logger.Debug("stored transactions", "wallet", address, "added", added, "received", len(txs))
	return added, malformed
}

// AddPricePoints stores price points, replacing a previous price recorded
// for the same instrument at the same instant.
func (s *Store) AddPricePoints(ctx context.Context, points []valuation.PricePoint) error {
	var malformed error
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // no-op once committed
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO prices (instrument, at, raw, decimals) VALUES (?, ?, ?, ?)
		ON CONFLICT (instrument, at) DO UPDATE SET raw = excluded.raw, decimals = excluded.decimals`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range points {
		if err := p.Validate(); err != nil {
			malformed = multierr.Append(malformed, err)
			continue
		}
		if _, err := stmt.ExecContext(ctx, string(p.Instrument), p.Timestamp.UnixNano(), p.Price.Raw().String(), p.Price.Decimals()); err != nil {
			return fmt.Errorf("insert price of %s: %w", p.Instrument, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return malformed
}

// Transactions returns the wallet's ledger in insertion order.
func (s *Store) Transactions(ctx context.Context, address string) ([]valuation.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT instrument, kind, units, at FROM transactions WHERE wallet = ? ORDER BY id`, address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []valuation.Transaction
	for rows.Next() {
		var instrument, kind, units string
		var at int64
		if err := rows.Scan(&instrument, &kind, &units, &at); err != nil {
			return nil, err
		}
		q, err := valuation.ParseQuantity(units)
		if err != nil {
			return nil, fmt.Errorf("invalid units %q in database: %w", units, err)
		}
		k, _ := valuation.ParseKind(kind)
		txs = append(txs, valuation.NewTransaction(valuation.InstrumentID(instrument), k, q, time.Unix(0, at).UTC()))
	}
	return txs, rows.Err()
}

// DailySnapshots returns the stored prices of each instrument. Instruments
// without any price are absent from the result.
func (s *Store) DailySnapshots(ctx context.Context, ids []valuation.InstrumentID) (map[valuation.InstrumentID][]valuation.PricePoint, error) {
	result := make(map[valuation.InstrumentID][]valuation.PricePoint, len(ids))
	for _, id := range ids {
		points, err := s.prices(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("cannot read prices of %s: %w", id, err)
		}
		if len(points) > 0 {
			result[id] = points
		}
	}
	return result, nil
}

func (s *Store) prices(ctx context.Context, id valuation.InstrumentID) ([]valuation.PricePoint, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT at, raw, decimals FROM prices WHERE instrument = ? ORDER BY at`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []valuation.PricePoint
	for rows.Next() {
		var at int64
		var raw string
		var decimals int32
		if err := rows.Scan(&at, &raw, &decimals); err != nil {
			return nil, err
		}
		price, err := valuation.ParsePrice(raw, decimals)
		if err != nil {
			return nil, err
		}
		points = append(points, valuation.PricePoint{Instrument: id, Timestamp: time.Unix(0, at).UTC(), Price: price})
	}
	return points, rows.Err()
}
