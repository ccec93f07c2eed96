package dialect

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/syssam/querycraft"
)

// Dialect names.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// aliases maps folded alternative spellings to dialect names.
var aliases = map[string]string{
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pg":         Postgres,
	"pgx":        Postgres,
	"mysql":      MySQL,
	"mariadb":    MySQL,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
}

// fold case-folds s. Casers are stateful, so each call builds its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Lookup resolves an engine name or alias (case-insensitive) to one of
// Postgres, MySQL or SQLite.
func Lookup(name string) (string, error) {
	if d, ok := aliases[fold(strings.TrimSpace(name))]; ok {
		return d, nil
	}
	return "", querycraft.NewUnsupportedDatabaseError(name)
}

// Names returns the dialect names in sorted order.
func Names() []string {
	return []string{MySQL, Postgres, SQLite}
}

// Aliases returns the accepted spellings of the dialect d, sorted.
func Aliases(d string) []string {
	var out []string
	for a, name := range aliases {
		if name == d {
			out = append(out, a)
		}
	}
	sort.Strings(out)
	return out
}

// ExecQuerier wraps the 2 database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for executing
// rendered statements.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}
