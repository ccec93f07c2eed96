// Package dialect names the supported database engines and holds their
// data type tables.
//
// # Supported Dialects
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// Lookup also accepts common aliases ("postgresql", "pg", "mariadb",
// "sqlite3", ...) in any letter case. Unknown names fail with an
// UnsupportedDatabaseError.
//
// # Data Types
//
// DataType maps a generic logical type name to the native keyword of a
// dialect:
//
//	dialect.DataType(dialect.Postgres, "DOUBLE") // "DOUBLE PRECISION"
//	dialect.DataType(dialect.SQLite, "DOUBLE")   // "REAL"
//
// ParseType additionally parses the keyword with the atlas driver of the
// dialect, which exposes size, precision and scale.
//
// # Driver Interface
//
// Driver, Tx and ExecQuerier describe the execution side. They are
// implemented by dialect/sql.Driver:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Sub-packages
//
//   - dialect/sql: statement renderers, the renderer registry and the
//     database/sql driver handoff
package dialect
