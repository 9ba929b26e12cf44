package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/etnz/valuation"
	"github.com/google/subcommands"
	"go.uber.org/multierr"
)

type importCmd struct {
	wallet string
	ledger string
	prices string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import JSONL ledgers and prices into the SQLite database" }
func (*importCmd) Usage() string {
	return `vals import [-w <wallet> -ledger <file.jsonl>] [-prices <file.jsonl>]

  Imports transactions of a wallet, and price points of any instrument, into
  the database given by -data (defaults to vals.db). Malformed lines are
  reported and skipped, importing the same file twice is harmless.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.wallet, "w", "", "wallet address or alias owning the ledger")
	f.StringVar(&c.ledger, "ledger", "", "JSONL file of transactions")
	f.StringVar(&c.prices, "prices", "", "JSONL file of price points")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.ledger == "" && c.prices == "" {
		fmt.Fprintln(os.Stderr, "one of -ledger or -prices is required")
		return subcommands.ExitUsageError
	}
	if c.ledger != "" && c.wallet == "" {
		fmt.Fprintln(os.Stderr, "-ledger requires -w")
		return subcommands.ExitUsageError
	}
	cfg, err := settings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	s, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	if c.ledger != "" {
		txs, err := readJSONL(c.ledger, valuation.DecodeTransactions)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		address := cfg.Wallet(c.wallet)
		added, err := s.AddTransactions(ctx, address, txs)
		if err != nil && !isMalformed(err) {
			fmt.Fprintf(os.Stderr, "Error importing %q: %v\n", c.ledger, err)
			return subcommands.ExitFailure
		}
		report(err)
		log.Printf("imported %d new transactions of %s from %s", added, address, c.ledger)
	}

	if c.prices != "" {
		points, err := readJSONL(c.prices, valuation.DecodePricePoints)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		err = s.AddPricePoints(ctx, points)
		if err != nil && !isMalformed(err) {
			fmt.Fprintf(os.Stderr, "Error importing %q: %v\n", c.prices, err)
			return subcommands.ExitFailure
		}
		report(err)
		log.Printf("imported %d price points from %s", len(points)-len(multierr.Errors(err)), c.prices)
	}
	return subcommands.ExitSuccess
}

func readJSONL[T any](path string, decode func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	list, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("in %q: %w", path, err)
	}
	return list, nil
}

// isMalformed is true when every error of err is about a malformed input.
func isMalformed(err error) bool {
	for _, e := range multierr.Errors(err) {
		if !errors.Is(e, valuation.ErrMalformed) {
			return false
		}
	}
	return true
}

// report logs each skipped input.
func report(err error) {
	for _, e := range multierr.Errors(err) {
		log.Printf("skipped: %v", e)
	}
}
