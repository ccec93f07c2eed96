// Package querycraft renders SQL statements from a typed syntax tree.
//
// A statement is assembled as plain data with the types of package ast,
// checked by package validate and rendered for one database engine by a
// Renderer from package dialect/sql:
//
//	r, err := sql.For(dialect.Postgres)
//	if err != nil {
//	    return err
//	}
//	q, err := r.Render(&ast.Select{
//	    Columns: []string{"id", "name"},
//	    From:    ast.Table{Name: "users"},
//	    Where:   []ast.Condition{{Column: "age", Operator: ast.OpGT, Value: 18}},
//	})
//	// q.SQL:  SELECT "id", "name" FROM "users" WHERE "age" > $1
//	// q.Args: [18]
//
// Identifiers are validated against a strict grammar before they reach the
// SQL text; values are always bound as parameters.
//
// This package holds the error taxonomy shared by all sub-packages and the
// Cache contract used by the render cache.
package querycraft
