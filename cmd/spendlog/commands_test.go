package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlog/internal/core"
	"spendlog/internal/services"
)

// run executes the root command against a SQLite file so state survives
// between invocations.
func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", dbPath)
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRecordCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "spendlog.db")

	out, err := run(t, db, "add", "--date", "2025-01-01", "--category", "Food", "--amount", "10", "--note", "lunch")
	require.NoError(t, err)
	assert.Contains(t, out, "Added 2025-01-01 Food 10.00")

	_, err = run(t, db, "add", "--date", "2025-01-03", "--category", "Transport", "--amount", "2,5")
	require.NoError(t, err)
	_, err = run(t, db, "add", "--date", "2025-02-01", "--category", "Food", "--amount", "5")
	require.NoError(t, err)

	_, err = run(t, db, "add", "--date", "2025-02-01", "--amount", "0")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	out, err = run(t, db, "--json", "list", "--category", "Food")
	require.NoError(t, err)
	var food []core.Record
	require.NoError(t, json.Unmarshal([]byte(out), &food))
	require.Len(t, food, 2)
	assert.Equal(t, "lunch", food[0].Note)

	out, err = run(t, db, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[2], "Transport")

	out, err = run(t, db, "delete", "--at", "1", "--category", "Food")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 2025-02-01 Food 5.00")

	_, err = run(t, db, "delete", food[0].ID)
	require.NoError(t, err)
	_, err = run(t, db, "delete", food[0].ID)
	assert.ErrorIs(t, err, core.ErrRecordNotFound)

	_, err = run(t, db, "delete")
	assert.Error(t, err)
	_, err = run(t, db, "delete", "some-id", "--at", "0")
	assert.Error(t, err)

	out, err = run(t, db, "--json", "list")
	require.NoError(t, err)
	var remaining []core.Record
	require.NoError(t, json.Unmarshal([]byte(out), &remaining))
	require.Len(t, remaining, 1)
	assert.Equal(t, "Transport", remaining[0].Category)
}

func TestCategoryCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "spendlog.db")

	out, err := run(t, db, "categories")
	require.NoError(t, err)
	assert.Equal(t, strings.Join(core.DefaultCategories(), "\n")+"\n", out)

	out, err = run(t, db, "categories", "add", "Pets")
	require.NoError(t, err)
	assert.Equal(t, "Category added\n", out)

	out, err = run(t, db, "categories", "add", "Pets")
	require.NoError(t, err)
	assert.Equal(t, "Category already exists\n", out)

	out, err = run(t, db, "--json", "categories")
	require.NoError(t, err)
	var categories []string
	require.NoError(t, json.Unmarshal([]byte(out), &categories))
	assert.Equal(t, "Pets", categories[len(categories)-1])
}

func TestDashboardCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "spendlog.db")
	for _, args := range [][]string{
		{"add", "--date", "2025-01-01", "--category", "Food", "--amount", "10"},
		{"add", "--date", "2025-01-02", "--category", "Food", "--amount", "5"},
		{"add", "--date", "2025-02-01", "--category", "Transport", "--amount", "20"},
	} {
		_, err := run(t, db, args...)
		require.NoError(t, err)
	}

	out, err := run(t, db, "--json", "dashboard", "--month", "2025-01")
	require.NoError(t, err)
	var view services.DashboardView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, core.Monthly, view.Period)
	assert.Equal(t, 35.0, view.TotalAll)
	assert.Equal(t, 15.0, view.TotalSelected)
	assert.Equal(t, []core.PieSlice{{Name: "Food", Value: 15}}, view.Pie)

	out, err = run(t, db, "dashboard", "--period", "weekly")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-W1")
	assert.Contains(t, out, "35.00")

	_, err = run(t, db, "dashboard", "--period", "yearly")
	assert.ErrorIs(t, err, core.ErrInvalidPeriod)
	_, err = run(t, db, "dashboard", "--month", "2025/01")
	assert.Error(t, err)
}
