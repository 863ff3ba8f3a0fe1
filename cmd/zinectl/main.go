/*
zinectl - command-line access to the zine ledger

PURPOSE:
  Reads totals and batches straight from the SQLite database the server
  uses, imports fixture documents and loads demo scenarios. Every write
  goes through ledger.Ledger, the same path the HTTP API uses.

COMMANDS:
  zinectl stats user                 Totals for --user
  zinectl stats zine ZINE_ID         Aggregates for one zine
  zinectl batches [--zine ZINE_ID]   Batches for --user, or for one zine
  zinectl checkins [--as-of DATE]    Active batches due a store visit
  zinectl import FILE                Load a fixture document as --user
  zinectl scenario list              Built-in fixtures
  zinectl scenario load ID           Reset the database and load a fixture

GLOBAL FLAGS:
  --config, --env   as for the server
  --db              overrides database.path
  --user            acting user (ZINE_LEDGER_USER)
  --json            machine-readable output
*/
package main

import (
	"os"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}
