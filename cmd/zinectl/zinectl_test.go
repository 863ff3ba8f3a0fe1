package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/zine-ledger/api"
	"github.com/warp/zine-ledger/factory"
)

// execute runs zinectl with fresh flag values and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	flagConfig, flagEnv, flagDB, flagUser = "", "", "", ""
	flagJSON = false
	flagBatchesZine = ""
	flagCheckinsAsOf = "today"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := run()
	return out.String(), err
}

func TestZinectl_ScenarioThenStats(t *testing.T) {
	db := filepath.Join(t.TempDir(), "zines.db")

	out, err := execute(t, "scenario", "load", "first-drop", "--db", db, "-u", "alice", "--json")
	require.NoError(t, err, out)
	var loaded factory.LoadResult
	require.NoError(t, json.Unmarshal([]byte(out), &loaded))
	assert.Equal(t, 2, loaded.Batches)

	out, err = execute(t, "stats", "user", "--db", db, "-u", "alice", "--json")
	require.NoError(t, err, out)
	var stats api.UserStatsDTO
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, "129.60", stats.Earnings)
	assert.Equal(t, 35, stats.CopiesOut)

	out, err = execute(t, "stats", "zine", string(loaded.Zines[0]), "--db", db)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Earnings:")
	assert.Contains(t, out, "129.60")

	out, err = execute(t, "checkins", "--db", db, "-u", "alice", "--as-of", "today+14", "--json")
	require.NoError(t, err, out)
	var due []api.BatchDTO
	require.NoError(t, json.Unmarshal([]byte(out), &due))
	assert.Len(t, due, 1)

	out, err = execute(t, "batches", "--db", db, "-u", "alice")
	require.NoError(t, err, out)
	assert.Contains(t, out, "store-quimbys")
	assert.Contains(t, out, "upfront")
}

func TestZinectl_RequiresUser(t *testing.T) {
	db := filepath.Join(t.TempDir(), "zines.db")

	_, err := execute(t, "stats", "user", "--db", db)

	assert.Error(t, err)
}

func TestZinectl_FailedCommandClosesStore(t *testing.T) {
	// GIVEN: A session opened against a database file
	// WHEN: The subcommand fails after the store was opened
	// THEN: The session is released anyway

	db := filepath.Join(t.TempDir(), "zines.db")

	_, err := execute(t, "stats", "zine", "missing", "--db", db, "-u", "alice")

	require.Error(t, err)
	assert.Nil(t, current)
	assert.NoError(t, closeSession())
}

func TestZinectl_ScenarioList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "zines.db")

	out, err := execute(t, "scenario", "list", "--db", db)

	require.NoError(t, err, out)
	assert.Contains(t, out, "busy-season")
	assert.Contains(t, out, "quiet-shelf")
}
