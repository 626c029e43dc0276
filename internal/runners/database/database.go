// Package database implements the SQL step runner (spec §4.7.2). It opens a
// connection using the step's dialect + DSN, runs the operation, and
// closes the connection deterministically regardless of outcome.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/alexisbeaulieu97/streamy/internal/config"
	"github.com/alexisbeaulieu97/streamy/internal/plugin"
	"github.com/alexisbeaulieu97/streamy/internal/template"
	"github.com/alexisbeaulieu97/streamy/internal/variables"
	streamyerrors "github.com/alexisbeaulieu97/streamy/pkg/errors"
)

// registeredDialects maps a step's `database.dialect` to a database/sql
// driver name. Only sqlite ships wired (SPEC_FULL.md OPERATIONS, C7); this
// map is the extension point for additional dialects.
var (
	dialectsMu sync.RWMutex
	dialects   = map[string]string{
		"sqlite": "sqlite",
	}
)

// RegisterDialect adds or replaces the database/sql driver name used for a
// given step dialect string.
func RegisterDialect(dialect, driverName string) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[dialect] = driverName
}

func driverFor(dialect string) (string, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	name, ok := dialects[dialect]
	return name, ok
}

// Runner executes a SQL operation via database/sql.
type Runner struct{}

func New() *Runner { return &Runner{} }

func (r *Runner) Type() string { return "database" }

func (r *Runner) Run(ctx context.Context, step config.Step, vars *variables.Manager, _ plugin.StepRunner) (map[string]any, error) {
	db := step.Database
	if db == nil {
		return nil, streamyerrors.NewExecutionError(step.Name, fmt.Errorf("database step has no database configuration"))
	}

	driverName, ok := driverFor(db.Database.Dialect)
	if !ok {
		return nil, streamyerrors.NewExecutionError(step.Name, fmt.Errorf("no driver registered for dialect %q", db.Database.Dialect))
	}

	env := vars.All()
	renderedSQL, err := template.Render(db.SQL, env)
	if err != nil {
		return nil, err
	}

	params := make([]any, len(db.Params))
	for i, p := range db.Params {
		rendered, err := template.RenderDict(p, env)
		if err != nil {
			return nil, err
		}
		params[i] = rendered
	}

	conn, err := sql.Open(driverName, db.Database.DSN)
	if err != nil {
		return nil, streamyerrors.NewExecutionError(step.Name, err)
	}
	defer conn.Close()

	switch db.Operation {
	case "query":
		return runQuery(ctx, conn, renderedSQL, params)
	case "exec", "executemany", "script":
		return runExec(ctx, conn, renderedSQL, params)
	default:
		return nil, streamyerrors.NewExecutionError(step.Name, fmt.Errorf("unsupported database operation %q", db.Operation))
	}
}

func runQuery(ctx context.Context, conn *sql.DB, query string, params []any) (map[string]any, error) {
	rows, err := conn.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, streamyerrors.NewExecutionError("", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, streamyerrors.NewExecutionError("", err)
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, streamyerrors.NewExecutionError("", err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, streamyerrors.NewExecutionError("", err)
	}

	return map[string]any{
		"rows":     result,
		"rowcount": int64(len(result)),
		"body":     result,
	}, nil
}

func runExec(ctx context.Context, conn *sql.DB, query string, params []any) (map[string]any, error) {
	res, err := conn.ExecContext(ctx, query, params...)
	if err != nil {
		return nil, streamyerrors.NewExecutionError("", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}
	return map[string]any{
		"rowcount": affected,
		"body":     map[string]any{"rowcount": affected},
	}, nil
}

// normalizeValue converts database/sql's []byte scan results (used by many
// drivers for TEXT/BLOB columns) into plain strings so comparators and
// extractors see ordinary Go values.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
