package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ledgerJSONL = `{"timestamp":"2025-03-01T10:00:00Z","kind":"buy","instrument":"0xpool-senior","units":"10"}
{"timestamp":"2025-03-02T10:00:00Z","kind":"sell","instrument":"0xpool-senior","units":"4"}
{"timestamp":"2025-03-02T10:00:00Z","kind":"airdrop","instrument":"0xpool-senior","units":"4"}
`

const pricesJSONL = `{"timestamp":"2025-03-01T00:00:00Z","instrument":"0xpool-senior","price":{"raw":"2000000000","decimals":9}}
{"timestamp":"2025-03-03T00:00:00Z","instrument":"0xpool-senior","price":{"raw":"2500000000","decimals":9}}
`

func write(t *testing.T, name, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
	return name
}

// useGlobals sets the global flags for the duration of the test.
func useGlobals(t *testing.T, source, data string) {
	t.Helper()
	old := [...]string{*sourceFlag, *dataFlag, *configFile}
	*sourceFlag, *dataFlag, *configFile = source, data, filepath.Join(t.TempDir(), "absent.yaml")
	t.Cleanup(func() { *sourceFlag, *dataFlag, *configFile = old[0], old[1], old[2] })
}

func run(t *testing.T, c subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	require.NoError(t, f.Parse(args))
	return c.Execute(context.Background(), f)
}

type entry struct {
	Date     string `json:"date"`
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

func readSeries(t *testing.T, path string) []entry {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []entry
	require.NoError(t, json.Unmarshal(data, &entries))
	return entries
}

func TestSeries_Dir(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "ledgers", "0xwallet.jsonl"), ledgerJSONL)
	write(t, filepath.Join(dir, "prices", "0xpool-senior.jsonl"), pricesJSONL)
	useGlobals(t, "dir", dir)
	out := filepath.Join(dir, "series.json")

	status := run(t, &seriesCmd{}, "-w", "0xwallet", "-days", "3", "-now", "2025-03-03", "-json", "-o", out)
	require.Equal(t, subcommands.ExitSuccess, status)

	got := readSeries(t, out)
	want := []entry{
		{"2025-02-28", "0", "USD"},
		{"2025-03-01", "20", "USD"},
		{"2025-03-02", "0", "USD"}, // no price that day
		{"2025-03-03", "15", "USD"},
	}
	assert.Equal(t, want, got)

	status = run(t, &seriesCmd{}, "-w", "0xwallet", "-days", "3", "-now", "2025-03-03", "-prices", "carry", "-json", "-o", out)
	require.Equal(t, subcommands.ExitSuccess, status)
	got = readSeries(t, out)
	assert.Equal(t, "12", got[2].Value)

	status = run(t, &seriesCmd{}, "-w", "0xwallet", "-days", "3", "-now", "2025-03-03", "-o", filepath.Join(dir, "series.md"))
	require.Equal(t, subcommands.ExitSuccess, status)
	md, err := os.ReadFile(filepath.Join(dir, "series.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "# Wallet 0xwallet"), "markdown = %s", md)
}

func TestSeries_Usage(t *testing.T) {
	useGlobals(t, "dir", t.TempDir())
	assert.Equal(t, subcommands.ExitUsageError, run(t, &seriesCmd{}))
	assert.Equal(t, subcommands.ExitUsageError, run(t, &seriesCmd{}, "-w", "x", "-sample", "hourly"))
	assert.Equal(t, subcommands.ExitUsageError, run(t, &seriesCmd{}, "-w", "x", "-now", "yesterday-ish"))
	assert.Equal(t, subcommands.ExitFailure, run(t, &seriesCmd{}, "-w", "x", "-days", "-1"))
	assert.Equal(t, subcommands.ExitFailure, run(t, &seriesCmd{}, "-w", "x", "-prices", "nearest"))
}

func TestImport_SQLite(t *testing.T) {
	dir := t.TempDir()
	ledger := write(t, filepath.Join(dir, "ledger.jsonl"), ledgerJSONL)
	prices := write(t, filepath.Join(dir, "prices.jsonl"), pricesJSONL)
	useGlobals(t, "sqlite", filepath.Join(dir, "vals.db"))

	require.Equal(t, subcommands.ExitSuccess, run(t, &importCmd{}, "-w", "0xwallet", "-ledger", ledger, "-prices", prices))
	// Twice is harmless.
	require.Equal(t, subcommands.ExitSuccess, run(t, &importCmd{}, "-w", "0xwallet", "-ledger", ledger))

	out := filepath.Join(dir, "series.json")
	require.Equal(t, subcommands.ExitSuccess, run(t, &seriesCmd{}, "-w", "0xwallet", "-days", "2", "-now", "2025-03-03", "-json", "-o", out))
	got := readSeries(t, out)
	require.Len(t, got, 3)
	assert.Equal(t, "20", got[0].Value)
	assert.Equal(t, "15", got[2].Value)

	assert.Equal(t, subcommands.ExitUsageError, run(t, &importCmd{}))
	assert.Equal(t, subcommands.ExitUsageError, run(t, &importCmd{}, "-ledger", ledger))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := write(t, filepath.Join(dir, "vals.yaml"), `source: http
url: https://api.example.com
currency: EUR
prices: carry
workers: 4
rate: 2.5
paths:
  transactions: $.result[*]
wallets:
  main: "0xabc"
`)
	cfg, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http", cfg.Source)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 2.5, cfg.Rate)
	assert.Equal(t, "$.result[*]", cfg.Paths.Transactions)
	assert.Equal(t, "0xabc", cfg.Wallet("main"))
	assert.Equal(t, "0xdef", cfg.Wallet("0xdef"))

	bad := write(t, filepath.Join(dir, "bad.yaml"), "sauce: dir\n")
	_, err = ReadConfig(bad)
	assert.Error(t, err, "unknown keys must be rejected")
}

func TestSettings(t *testing.T) {
	dir := t.TempDir()
	useGlobals(t, "dir", "")
	*configFile = write(t, filepath.Join(dir, "vals.yaml"), "source: sqlite\ndata: other.db\n")
	t.Setenv(TokenEnv, "secret")

	cfg, err := settings()
	require.NoError(t, err)
	// Flags not set on the command line do not override the file.
	assert.Equal(t, "sqlite", cfg.Source)
	assert.Equal(t, "other.db", cfg.Data)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, "secret", cfg.Token)
}

func TestParseInstant(t *testing.T) {
	got, err := parseInstant("2025-03-03")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-03T23:59:59.999999999Z", got.Format("2006-01-02T15:04:05.999999999Z07:00"))

	got, err = parseInstant("2025-03-03T10:00:00+01:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-03T09:00:00Z", got.Format("2006-01-02T15:04:05Z07:00"))

	_, err = parseInstant("03/03/2025")
	assert.Error(t, err)
}
