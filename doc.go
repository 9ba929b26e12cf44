// Package valuation computes the daily value history of a wallet from its
// transaction ledger and the sparse price snapshots of the instruments it
// holds.
//
// The computation is stateless: every day of a series is a Snapshot that
// replays the ledger up to a cutoff instant and prices the resulting
// positions with the snapshot of that calendar day (UTC). Nothing is
// carried from one day to the next, so a series can be computed in any
// order, or in parallel.
//
// Inputs come from a TransactionLogProvider and a PriceHistoryProvider. Dir
// reads them from JSONL files, the store and remote packages from a SQLite
// database and an HTTP API. A Valuator fetches them and hands them to an
// Engine.
//
// This package serves as the foundation of the `vals` command-line tool.
package valuation
