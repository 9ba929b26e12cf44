package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/valuation/date"
	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
)

// seriesCmd holds the flags for the 'series' subcommand.
type seriesCmd struct {
	wallet string
	days   int
	now    string
	prices string
	sample string
	json   bool
	output string
}

func (*seriesCmd) Name() string     { return "series" }
func (*seriesCmd) Synopsis() string { return "display the daily value of a wallet" }
func (*seriesCmd) Usage() string {
	return `vals series -w <wallet> [-days 30] [-now <time>] [-prices exact|carry] [-sample daily|weekly|monthly] [-json] [-o <file>]

  Displays one value per day, from -days days before -now to -now.
`
}

func (c *seriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.wallet, "w", "", "wallet address or alias")
	f.IntVar(&c.days, "days", 30, "number of days to look back")
	f.StringVar(&c.now, "now", "", "end of the series, a date or an RFC 3339 time (defaults to now)")
	f.StringVar(&c.prices, "prices", "", "price resolution: exact (same day only) or carry (last known price)")
	f.StringVar(&c.sample, "sample", "daily", "keep one value per period: daily, weekly, monthly, quarterly or yearly")
	f.BoolVar(&c.json, "json", false, "print JSON instead of Markdown")
	f.StringVar(&c.output, "o", "", "write to a file instead of the standard output")
}

func (c *seriesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.wallet == "" {
		fmt.Fprintln(os.Stderr, "-w is required")
		return subcommands.ExitUsageError
	}
	period, err := date.ParsePeriod(c.sample)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	now, err := parseInstant(c.now)
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

	address := cfg.Wallet(c.wallet)
	series, err := v.DailySeries(ctx, address, c.days, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing the series of %s: %v\n", address, err)
		return subcommands.ExitFailure
	}
	series = series.Sample(period)

	var out []byte
	if c.json {
		if out, err = json.MarshalIndent(series, "", "  "); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		out = append(out, '\n')
	} else {
		out = []byte(renderer.SeriesMarkdown(fmt.Sprintf("Wallet %s", c.wallet), series))
	}

	switch {
	case c.output != "":
		if err := writeOutput(c.output, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %q: %v\n", c.output, err)
			return subcommands.ExitFailure
		}
	case c.json:
		os.Stdout.Write(out)
	default:
		printMarkdown(os.Stdout, string(out))
	}
	return subcommands.ExitSuccess
}
