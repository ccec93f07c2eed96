package sql

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/querycraft"
	"github.com/syssam/querycraft/ast"
	"github.com/syssam/querycraft/dialect"
)

func openSQLite(t *testing.T) *Driver {
	t.Helper()
	drv, err := Open("sqlite3", filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = drv.Close() })
	require.Equal(t, dialect.SQLite, drv.Dialect())

	err = drv.Exec(context.Background(), `CREATE TABLE users (
		id INTEGER PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT,
		age INTEGER CHECK (age >= 0),
		tags TEXT
	)`, []any{}, nil)
	require.NoError(t, err)
	return drv
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)
	r, err := drv.Renderer()
	require.NoError(t, err)

	res, err := ExecStmt(ctx, drv, r, &ast.Insert{
		Into: "users",
		Rows: []ast.Row{
			{{Column: "email", Value: "a@example.com"}, {Column: "name", Value: "it's a"}, {Column: "age", Value: 30}, {Column: "tags", Value: map[string]any{"y": 2, "x": 1}}},
			{{Column: "email", Value: "b@example.com"}, {Column: "name", Value: "50% off"}, {Column: "age", Value: 17}, {Column: "tags", Value: ast.Null{}}},
		},
	})
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	rows, err := QueryStmt(ctx, drv, r, &ast.Select{
		Columns: []string{"email", "name", "tags"},
		From:    ast.Table{Name: "users"},
		Where:   []ast.Condition{{Column: "name", Operator: ast.OpLike, Value: "50%"}},
		OrderBy: []ast.OrderBy{{Column: "email"}},
	})
	require.NoError(t, err)
	var names []string
	for rows.Next() {
		var (
			email, name string
			tags        NullString
		)
		require.NoError(t, rows.Scan(&email, &name, &tags))
		assert.False(t, tags.Valid)
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
	assert.Empty(t, names, "wildcards in plain LIKE values match literally")

	rows, err = QueryStmt(ctx, drv, r, &ast.Select{
		Columns: []string{"name", "tags"},
		From:    ast.Table{Name: "users"},
		Where:   []ast.Condition{{Column: "name", Operator: ast.OpILike, Value: ast.Pattern("IT'S%")}},
	})
	require.NoError(t, err)
	require.True(t, rows.Next())
	var (
		name string
		tags NullString
	)
	require.NoError(t, rows.Scan(&name, &tags))
	assert.Equal(t, "it's a", name)
	assert.Equal(t, `{"x":1,"y":2}`, tags.String)
	assert.False(t, rows.Next())
	require.NoError(t, rows.Close())
}

func TestSQLiteAggregateAndUpsert(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)
	r := MustFor(drv.Dialect())
	for _, email := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		_, err := ExecStmt(ctx, drv, r, &ast.Insert{
			Into: "users",
			Rows: []ast.Row{{{Column: "email", Value: email}, {Column: "age", Value: 20}}},
		})
		require.NoError(t, err)
	}

	_, err := ExecStmt(ctx, drv, r, &ast.Insert{
		Into: "users",
		Rows: []ast.Row{{{Column: "email", Value: "a@x.io"}, {Column: "age", Value: 40}}},
		OnConflict: &ast.OnConflict{
			Target: []string{"email"},
			Action: ast.DoUpdate,
			Update: []ast.Assignment{{Column: "age", Value: ast.Excluded("age")}},
		},
	})
	require.NoError(t, err)

	rows, err := QueryStmt(ctx, drv, r, &ast.Select{
		Aggregations: []ast.Aggregation{
			{Func: ast.Count, Column: "*", Alias: "n"},
			{Func: ast.Max, Column: "age", Alias: "oldest"},
			{Func: ast.GroupConcat, Column: "email", Separator: ";", OrderBy: []ast.OrderBy{{Column: "email"}}, Alias: "emails"},
		},
		From: ast.Table{Name: "users"},
	})
	require.NoError(t, err)
	require.True(t, rows.Next())
	var (
		count, oldest int
		emails        string
	)
	require.NoError(t, rows.Scan(&count, &oldest, &emails))
	require.NoError(t, rows.Close())
	assert.Equal(t, 3, count)
	assert.Equal(t, 40, oldest)
	assert.Equal(t, "a@x.io;b@x.io;c@x.io", emails)

	rows, err = QueryStmt(ctx, drv, r, &ast.Delete{
		From:      "users",
		Where:     []ast.Condition{{Column: "age", Operator: ast.OpLT, Value: 30}},
		Returning: []string{"email"},
	})
	require.NoError(t, err)
	var deleted int
	for rows.Next() {
		deleted++
	}
	require.NoError(t, rows.Close())
	assert.Equal(t, 2, deleted)
}

func TestSQLiteConstraintErrors(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)
	r := MustFor(dialect.SQLite)
	insert := func(email string, age int) error {
		_, err := ExecStmt(ctx, drv, r, &ast.Insert{
			Into: "users",
			Rows: []ast.Row{{{Column: "email", Value: email}, {Column: "age", Value: age}}},
		})
		return err
	}
	require.NoError(t, insert("a@x.io", 1))

	err := insert("a@x.io", 2)
	require.Error(t, err)
	assert.True(t, IsUniqueConstraintError(err))
	var ce *querycraft.ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, querycraft.ConstraintUnique, ce.Kind)

	err = insert("b@x.io", -1)
	assert.True(t, IsCheckConstraintError(err))

	_, err = ExecStmt(ctx, drv, r, &ast.Insert{Into: "users", Rows: []ast.Row{{{Column: "age", Value: 3}}}})
	kind, ok := ConstraintKindOf(err)
	assert.True(t, ok)
	assert.Equal(t, querycraft.ConstraintNotNull, kind)
}

func TestSQLiteTx(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)
	r := MustFor(dialect.SQLite)

	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	_, err = ExecStmt(ctx, tx, r, &ast.Insert{Into: "users", Rows: []ast.Row{{{Column: "email", Value: "tx@x.io"}}}})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	rows, err := QueryStmt(ctx, drv, r, &ast.Select{
		Aggregations: []ast.Aggregation{{Func: ast.Count, Column: "*"}},
		From:         ast.Table{Name: "users"},
	})
	require.NoError(t, err)
	require.True(t, rows.Next())
	var n int
	require.NoError(t, rows.Scan(&n))
	require.NoError(t, rows.Close())
	assert.Zero(t, n)
}

func TestOpenErrors(t *testing.T) {
	_, err := Open("oracle", "x")
	assert.True(t, querycraft.IsUnsupportedDatabase(err))
	_, err = Open("mysql", "not a dsn")
	assert.Error(t, err)
	_, err = Open("postgres", "host=localhost port=notaport")
	assert.Error(t, err)
}
