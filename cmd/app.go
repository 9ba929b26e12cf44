// Package cmd implements the CLI application to value wallets.
package cmd

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/etnz/valuation/remote"
	"github.com/etnz/valuation/store"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/natefinch/atomic"
	"golang.org/x/time/rate"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&seriesCmd{}, "valuation")
	c.Register(&positionCmd{}, "valuation")
	c.Register(&importCmd{}, "data")
}

// TokenEnv is the environment variable holding the API token.
const TokenEnv = "VALS_API_TOKEN"

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	configFile   = flag.String("config", "vals.yaml", "Path to the YAML configuration file")
	sourceFlag   = flag.String("source", "dir", "Data source: dir, sqlite or http")
	dataFlag     = flag.String("data", "", "Data folder (dir, defaults to .) or database file (sqlite, defaults to vals.db)")
	urlFlag      = flag.String("url", "", "API base URL (http source)")
	currencyFlag = flag.String("currency", valuation.DefaultCurrency, "Reference currency of prices")
	verbose      = flag.Bool("v", false, "Log debug messages")
)

// settings returns the configuration file values overridden by the flags set
// on the command line, and the token from the environment (or a .env file).
func settings() (*Config, error) {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := ReadConfig(*configFile)
	if errors.Is(err, fs.ErrNotExist) && !set["config"] {
		cfg, err = new(Config), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read config %q: %w", *configFile, err)
	}

	override := func(name string, dst *string, value string) {
		if set[name] || *dst == "" {
			*dst = value
		}
	}
	override("source", &cfg.Source, *sourceFlag)
	override("data", &cfg.Data, *dataFlag)
	override("url", &cfg.URL, *urlFlag)
	override("currency", &cfg.Currency, *currencyFlag)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning, cannot load .env: %v", err)
	}
	cfg.Token = os.Getenv(TokenEnv)
	return cfg, nil
}

// logger returns the structured logger of the engine and providers.
func logger() *slog.Logger {
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openSource returns the providers selected by cfg and a function to release them.
func openSource(ctx context.Context, cfg *Config) (valuation.TransactionLogProvider, valuation.PriceHistoryProvider, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Source {
	case "dir", "":
		data := cfg.Data
		if data == "" {
			data = "."
		}
		d := valuation.Dir(data)
		return d, d, noop, nil
	case "sqlite":
		s, err := openStore(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, s, s.Close, nil
	case "http":
		if cfg.URL == "" {
			return nil, nil, nil, errors.New("the http source needs an API url (-url)")
		}
		opts := []remote.Option{remote.WithToken(cfg.Token), remote.WithLogger(logger())}
		if cfg.Rate > 0 {
			opts = append(opts, remote.WithRate(rate.Limit(cfg.Rate), max(1, int(cfg.Rate))))
		}
		if cfg.Paths.Transactions != "" || cfg.Paths.Prices != "" {
			opts = append(opts, remote.WithPaths(orDefault(cfg.Paths.Transactions), orDefault(cfg.Paths.Prices)))
		}
		c := remote.New(cfg.URL, opts...)
		return c, c, noop, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown source %q, want dir, sqlite or http", cfg.Source)
	}
}

func orDefault(path string) string {
	if path == "" {
		return remote.DefaultPath
	}
	return path
}

func openStore(ctx context.Context, cfg *Config) (*store.Store, error) {
	data := cfg.Data
	if data == "" || data == "." {
		data = "vals.db"
	}
	return store.Open(ctx, data)
}

// valuator returns a Valuator over the configured source. mode overrides the
// configured price resolution when not empty.
func valuator(ctx context.Context, cfg *Config, mode string) (*valuation.Valuator, func() error, error) {
	if mode == "" {
		mode = cfg.Prices
	}
	resolution, err := valuation.ParseResolution(mode)
	if err != nil {
		return nil, nil, err
	}
	ledger, prices, closer, err := openSource(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return &valuation.Valuator{
		Ledger:      ledger,
		Prices:      prices,
		Concurrency: cfg.Concurrency,
		Engine: valuation.Engine{
			Currency:   cfg.Currency,
			Resolution: resolution,
			Workers:    cfg.Workers,
			Logger:     logger(),
		},
	}, closer, nil
}

// parseInstant reads an RFC 3339 instant, or a day meaning its last instant.
// The empty string is now.
func parseInstant(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	day, err := date.Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid instant %q, want a date or an RFC 3339 time", s)
	}
	return day.Add(1).Time().Add(-time.Nanosecond), nil
}

// printMarkdown renders md for the terminal, or prints it as is when it
// cannot be rendered.
func printMarkdown(w io.Writer, md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Fprint(w, out)
			return
		}
	}
	fmt.Fprint(w, md)
}

// writeOutput atomically replaces the file at path with data.
func writeOutput(path string, data []byte) error {
	return atomic.WriteFile(path, bytes.NewReader(data))
}
