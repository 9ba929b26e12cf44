// Command vals values crypto wallets day by day.
//
//	vals series -w <wallet> [-days 30]
//	vals position -w <wallet> [-d <date>]
//	vals import -w <wallet> -ledger <file.jsonl>
//
// Run `vals help` for the complete list of commands and flags. Shell
// completion is installed with `COMP_INSTALL=1 vals`.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/valuation/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

var resolutions = predict.Set{"exact", "carry"}

// completion describes the command line for shell completion.
var completion = &complete.Command{
	Sub: map[string]*complete.Command{
		"series": {Flags: map[string]complete.Predictor{
			"w":      predict.Nothing,
			"days":   predict.Nothing,
			"now":    predict.Nothing,
			"prices": resolutions,
			"sample": predict.Set{"daily", "weekly", "monthly", "quarterly", "yearly"},
			"json":   predict.Nothing,
			"o":      predict.Files("*"),
		}},
		"position": {Flags: map[string]complete.Predictor{
			"w":      predict.Nothing,
			"d":      predict.Nothing,
			"prices": resolutions,
		}},
		"import": {Flags: map[string]complete.Predictor{
			"w":      predict.Nothing,
			"ledger": predict.Files("*.jsonl"),
			"prices": predict.Files("*.jsonl"),
		}},
		"help":     {},
		"commands": {},
		"flags":    {},
	},
	Flags: map[string]complete.Predictor{
		"config":   predict.Files("*.yaml"),
		"source":   predict.Set{"dir", "sqlite", "http"},
		"data":     predict.Files("*"),
		"url":      predict.Nothing,
		"currency": predict.Nothing,
		"v":        predict.Nothing,
	},
}

func main() {
	completion.Complete(path.Base(os.Args[0]))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
