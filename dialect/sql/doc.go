// Package sql renders querycraft statements into dialect-specific SQL and
// executes them through database/sql.
//
// # Rendering
//
// A Renderer turns an ast.Statement into a Query, the SQL text plus its
// bound arguments. Every call validates the statement first and sanitizes
// every identifier, so a Query is never produced from rejected input.
//
//	r, err := sql.For("postgres")
//	if err != nil {
//		return err
//	}
//	q, err := r.Render(&ast.Insert{
//		Into: "users",
//		Rows: []ast.Row{{{Column: "name", Value: "John"}, {Column: "age", Value: 30}}},
//	})
//	// q.SQL:  INSERT INTO "users" ("name", "age") VALUES ($1, $2)
//	// q.Args: [John 30]
//
// # Dialects
//
// Three dialects are available through For: postgres ($N markers, double
// quoted identifiers), mysql (? markers, backticks) and sqlite (? markers,
// double quotes). Constructs that a dialect cannot express, such as FULL
// JOIN on mysql or MERGE outside postgres, fail with an
// UnsupportedFeatureError instead of being approximated.
//
// Some constructs are emulated where the result is equivalent:
//
//   - NULLS FIRST/LAST on mysql sorts on "col IS NULL" first.
//   - ILIKE on mysql and sqlite compares LOWER(col) with LOWER(pattern).
//   - PIVOT on mysql uses one CASE aggregate per value.
//   - ON CONFLICT on mysql renders ON DUPLICATE KEY UPDATE.
//
// # Caching
//
// CachedRenderer keeps rendered queries in a querycraft.Cache keyed by a
// caller chosen statement name and version:
//
//	cr := sql.NewCachedRenderer(r, sql.WithTTL(time.Hour))
//	q, err := cr.RenderCached(ctx, cr.Key("active-users", 1), stmt)
//
// # Executing
//
// Open connects through pgx, go-sql-driver/mysql or modernc.org/sqlite
// and returns a Driver.
// ExecStmt and QueryStmt render a statement and run it on any
// dialect.ExecQuerier, including transactions and the StatsDriver and
// DebugDriver wrappers:
//
//	drv, err := sql.Open("sqlite", "file:app.db")
//	if err != nil {
//		return err
//	}
//	r, _ := drv.Renderer()
//	rows, err := sql.QueryStmt(ctx, drv, r, stmt)
//
// Constraint violations reported by any of the drivers are returned as
// *querycraft.ConstraintError.
package sql
