package database

import (
	"context"
	"testing"

	"github.com/alexisbeaulieu97/streamy/internal/config"
	"github.com/alexisbeaulieu97/streamy/internal/variables"
	"github.com/stretchr/testify/require"
)

func dbStep(dsn, operation, sqlText string, params []any) config.Step {
	return config.Step{
		Name: "db",
		Type: "database",
		Database: &config.DatabaseStep{
			Database:  config.DatabaseConnConfig{Dialect: "sqlite", DSN: dsn},
			Operation: operation,
			SQL:       sqlText,
			Params:    params,
		},
	}
}

func TestRunExecThenQueryRoundTrip(t *testing.T) {
	t.Parallel()

	dsn := t.TempDir() + "/test.db"
	r := New()
	vars := variables.New(config.GlobalConfig{}, "")
	ctx := context.Background()

	create := dbStep(dsn, "exec", "CREATE TABLE IF NOT EXISTS items (id INTEGER, name TEXT)", nil)
	_, err := r.Run(ctx, create, vars, nil)
	require.NoError(t, err)

	insert := dbStep(dsn, "exec", "INSERT INTO items (id, name) VALUES (?, ?)", []any{1, "widget"})
	envelope, err := r.Run(ctx, insert, vars, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), envelope["rowcount"])

	query := dbStep(dsn, "query", "SELECT id, name FROM items WHERE id = ?", []any{1})
	result, err := r.Run(ctx, query, vars, nil)
	require.NoError(t, err)

	rows := result["rows"].([]map[string]any)
	require.Len(t, rows, 1)
	require.Equal(t, "widget", rows[0]["name"])
}

func TestRunUnknownDialectErrors(t *testing.T) {
	t.Parallel()

	step := config.Step{
		Name: "db",
		Type: "database",
		Database: &config.DatabaseStep{
			Database:  config.DatabaseConnConfig{Dialect: "oracle", DSN: "whatever"},
			Operation: "query",
			SQL:       "SELECT 1",
		},
	}

	r := New()
	vars := variables.New(config.GlobalConfig{}, "")
	_, err := r.Run(context.Background(), step, vars, nil)
	require.Error(t, err)
}

func TestRunUnsupportedOperationErrors(t *testing.T) {
	t.Parallel()

	dsn := t.TempDir() + "/test.db"
	step := dbStep(dsn, "drop-everything", "SELECT 1", nil)
	r := New()
	vars := variables.New(config.GlobalConfig{}, "")
	_, err := r.Run(context.Background(), step, vars, nil)
	require.Error(t, err)
}

func TestRunRendersSQLTemplates(t *testing.T) {
	t.Parallel()

	dsn := t.TempDir() + "/test.db"
	r := New()
	vars := variables.New(config.GlobalConfig{}, "")
	vars.Set("table", "items")
	ctx := context.Background()

	create := dbStep(dsn, "exec", "CREATE TABLE IF NOT EXISTS items (id INTEGER)", nil)
	_, err := r.Run(ctx, create, vars, nil)
	require.NoError(t, err)

	query := dbStep(dsn, "query", "SELECT * FROM {{table}}", nil)
	_, err = r.Run(ctx, query, vars, nil)
	require.NoError(t, err)
}
