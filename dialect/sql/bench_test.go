package sql

import (
	"context"
	"testing"

	"github.com/syssam/querycraft/ast"
	"github.com/syssam/querycraft/dialect"
)

func BenchmarkRender_Insert(b *testing.B) {
	stmt := &ast.Insert{
		Into: "users",
		Rows: []ast.Row{{
			{Column: "id", Value: 1},
			{Column: "age", Value: 30},
			{Column: "first_name", Value: "Ariel"},
			{Column: "last_name", Value: "Mashraki"},
			{Column: "nickname", Value: "a8m"},
			{Column: "spouse_id", Value: 2},
			{Column: "created_at", Value: "2009-11-10 23:00:00"},
			{Column: "updated_at", Value: "2009-11-10 23:00:00"},
		}},
	}
	for _, d := range []string{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		b.Run(d, func(b *testing.B) {
			r := MustFor(d)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = r.Render(stmt)
			}
		})
	}
}

func BenchmarkRender_Simple(b *testing.B) {
	stmt := &ast.Select{Columns: []string{"id", "name", "email"}, From: ast.Table{Name: "users"}}
	for _, d := range []string{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		b.Run(d, func(b *testing.B) {
			r := MustFor(d)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = r.Render(stmt)
			}
		})
	}
}

func BenchmarkRender_WithJoins(b *testing.B) {
	stmt := &ast.Select{
		Columns: []string{"u.id", "u.name", "p.title"},
		From:    ast.Table{Name: "users", Alias: "u"},
		Joins: []ast.Join{{
			Table: ast.Table{Name: "posts", Alias: "p"},
			On:    []ast.Condition{{Column: "u.id", Value: "p.user_id"}},
		}},
		Where:   []ast.Condition{{Column: "u.active", Value: true}},
		OrderBy: []ast.OrderBy{{Column: "u.created_at"}},
		Limit:   ast.Int(10),
	}
	for _, d := range []string{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		b.Run(d, func(b *testing.B) {
			r := MustFor(d)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = r.Render(stmt)
			}
		})
	}
}

func BenchmarkRender_Complex(b *testing.B) {
	stmt := &ast.Select{
		With: []ast.CTE{{
			Name:  "active",
			Query: &ast.Select{Columns: []string{"id"}, From: ast.Table{Name: "users"}, Where: []ast.Condition{{Column: "status", Value: "active"}}},
		}},
		Columns: []string{"dept"},
		Aggregations: []ast.Aggregation{
			{Func: ast.Count, Column: "*", Alias: "n"},
			{Func: ast.Avg, Column: "salary", Alias: "avg_salary"},
		},
		Windows: []ast.WindowFunction{{
			Func:  ast.Rank,
			Over:  ast.Window{PartitionBy: []string{"dept"}, OrderBy: []ast.OrderBy{{Column: "salary", Desc: true}}},
			Alias: "r",
		}},
		From: ast.Table{Name: "employees"},
		Where: []ast.Condition{
			{Column: "id", Operator: ast.OpIn, Value: &ast.Select{Columns: []string{"id"}, From: ast.Table{Name: "active"}}},
			{Column: "age", Operator: ast.OpGT, Value: 18},
			{Column: "role", Value: "admin", Logical: ast.Or},
			{Column: "name", Operator: ast.OpLike, Value: "a%"},
		},
		GroupBy: []string{"dept"},
		Having:  []ast.Condition{{Column: "COUNT(*)", Operator: ast.OpGT, Value: 5}},
		OrderBy: []ast.OrderBy{{Column: "dept"}},
		Limit:   ast.Int(50),
		Offset:  ast.Int(100),
	}
	for _, d := range []string{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		b.Run(d, func(b *testing.B) {
			r := MustFor(d)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = r.Render(stmt)
			}
		})
	}
}

func BenchmarkRenderCached(b *testing.B) {
	stmt := &ast.Select{
		Columns: []string{"id", "name"},
		From:    ast.Table{Name: "users"},
		Where:   []ast.Condition{{Column: "age", Operator: ast.OpGT, Value: 18}},
	}
	ctx := context.Background()
	for _, d := range []string{dialect.SQLite, dialect.MySQL, dialect.Postgres} {
		b.Run(d, func(b *testing.B) {
			cr := NewCachedRenderer(MustFor(d))
			key := cr.Key("adults", 1)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = cr.RenderCached(ctx, key, stmt)
			}
		})
	}
}
