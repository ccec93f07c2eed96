package sql

import (
	"strings"

	"github.com/syssam/querycraft/ast"
)

func (b *builder) insert(s *ast.Insert) (string, error) {
	table, err := b.ident(s.Into)
	if err != nil {
		return "", err
	}
	cols, err := b.idents(s.Rows[0].Columns())
	if err != nil {
		return "", err
	}
	rows := make([]string, len(s.Rows))
	for i, r := range s.Rows {
		vs := make([]string, len(r))
		for j, a := range r {
			if vs[j], err = b.value(a.Value, false); err != nil {
				return "", err
			}
		}
		rows[i] = "(" + strings.Join(vs, ", ") + ")"
	}
	sql := "INSERT INTO " + table + " (" + cols + ") VALUES " + strings.Join(rows, ", ")
	if s.OnConflict != nil {
		oc, err := b.d.onConflict(b, s.OnConflict)
		if err != nil {
			return "", err
		}
		sql += " " + oc
	}
	return b.withReturning(sql, s.Returning)
}

func (b *builder) update(s *ast.Update) (string, error) {
	table, err := b.ident(s.Table)
	if err != nil {
		return "", err
	}
	set, err := b.assignments(s.Set)
	if err != nil {
		return "", err
	}
	sql := "UPDATE " + table + " SET " + set
	if len(s.Where) > 0 {
		where, err := b.conditions(s.Where)
		if err != nil {
			return "", err
		}
		sql += " WHERE " + where
	}
	return b.withReturning(sql, s.Returning)
}

func (b *builder) delete(s *ast.Delete) (string, error) {
	table, err := b.ident(s.From)
	if err != nil {
		return "", err
	}
	where, err := b.conditions(s.Where)
	if err != nil {
		return "", err
	}
	return b.withReturning("DELETE FROM "+table+" WHERE "+where, s.Returning)
}

func (b *builder) withReturning(sql string, cols []string) (string, error) {
	if len(cols) == 0 {
		return sql, nil
	}
	ret, err := b.d.returning(b, cols)
	if err != nil {
		return "", err
	}
	return sql + " " + ret, nil
}

// returningClause renders RETURNING for the dialects that have it.
func returningClause(b *builder, cols []string) (string, error) {
	out := make([]string, len(cols))
	for i, c := range cols {
		col, err := b.column(c)
		if err != nil {
			return "", err
		}
		out[i] = col
	}
	return "RETURNING " + strings.Join(out, ", "), nil
}

// onConflictClause renders the ON CONFLICT upsert clause shared by
// postgres and sqlite.
func onConflictClause(b *builder, oc *ast.OnConflict) (string, error) {
	target, err := b.idents(oc.Target)
	if err != nil {
		return "", err
	}
	clause := "ON CONFLICT (" + target + ")"
	if oc.Action == ast.DoNothing {
		return clause + " DO NOTHING", nil
	}
	set, err := b.assignments(oc.Update)
	if err != nil {
		return "", err
	}
	return clause + " DO UPDATE SET " + set, nil
}
