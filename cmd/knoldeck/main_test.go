package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_ImportDueReviewStats(t *testing.T) {
	t.Setenv("KNOLDECK_LOG_LEVEL", "error")
	dir := t.TempDir()
	db := filepath.Join(dir, "data", "knoldeck.db")
	csvPath := filepath.Join(dir, "capitals.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("front,back\nFrance,Paris\nPeru,Lima\n"), 0o644))

	out, err := run(t, "", "import", csvPath, "--deck", "Capitals", "--db", db)
	require.NoError(t, err, out)
	assert.Contains(t, out, "with 2 cards")
	m := regexp.MustCompile(`Created deck Capitals \(([^)]+)\)`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	deckID := m[1]

	out, err = run(t, "", "due", "--db", db)
	require.NoError(t, err, out)
	assert.Contains(t, out, "2 cards due")

	out, err = run(t, "\n7\n5\n\nq\n", "review", "--db", db, "--deck", deckID)
	require.NoError(t, err, out)
	assert.Contains(t, out, "please enter a number from 0 to 5")
	assert.Contains(t, out, "next review in 1 days")
	assert.Contains(t, out, "Reviewed 1 of 2 due cards.")

	out, err = run(t, "", "due", "--db", db, "--deck", deckID)
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 cards due")

	out, err = run(t, "", "stats", deckID, "--db", db)
	require.NoError(t, err, out)
	assert.Regexp(t, `Cards\s+2`, out)
	assert.Regexp(t, `New\s+1`, out)
}

func TestCLI_SourcesAndSync(t *testing.T) {
	t.Setenv("KNOLDECK_LOG_LEVEL", "error")
	dir := t.TempDir()
	db := filepath.Join(dir, "knoldeck.db")
	decks := filepath.Join(dir, "decks")
	require.NoError(t, os.MkdirAll(decks, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(decks, "go.md"), []byte("Q: Zero value of a slice?\nA: nil\n"), 0o644))

	out, err := run(t, "", "source", "add", decks, "--db", db)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Added local source 1")

	out, err = run(t, "", "sync", "--db", db, "--repos-dir", filepath.Join(dir, "repos"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "Synced 1 sources: 1 decks, 1 new cards")

	out, err = run(t, "", "source", "list", "--db", db)
	require.NoError(t, err, out)
	assert.Contains(t, out, decks)
	assert.NotContains(t, out, "never")

	out, err = run(t, "", "source", "rm", "1", "--db", db)
	require.NoError(t, err, out)

	_, err = run(t, "", "source", "rm", "1", "--db", db)
	assert.Error(t, err)
}

func TestCLI_InvalidConfig(t *testing.T) {
	_, err := run(t, "", "due", "--db", filepath.Join(t.TempDir(), "x.db"), "--log-format", "xml")
	assert.Error(t, err)
}
