package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
)

type positionCmd struct {
	wallet string
	date   string
	prices string
}

func (*positionCmd) Name() string     { return "position" }
func (*positionCmd) Synopsis() string { return "display the positions of a wallet" }
func (*positionCmd) Usage() string {
	return `vals position -w <wallet> [-d <date>] [-prices exact|carry]

  Displays the units, price and value of every instrument of a wallet at the
  end of a day.
`
}

func (c *positionCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.wallet, "w", "", "wallet address or alias")
	f.StringVar(&c.date, "d", "", "day or RFC 3339 time of the positions (defaults to now)")
	f.StringVar(&c.prices, "prices", "", "price resolution: exact or carry")
}

func (c *positionCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.wallet == "" {
		fmt.Fprintln(os.Stderr, "-w is required")
		return subcommands.ExitUsageError
	}
	at, err := parseInstant(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	cfg, err := settings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	v, closer, err := valuator(ctx, cfg, c.prices)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closer()

	s, err := v.Snapshot(ctx, cfg.Wallet(c.wallet), at)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(os.Stdout, renderer.PositionsMarkdown(s))
	return subcommands.ExitSuccess
}
