package sql

import (
	"fmt"
	"strings"

	"github.com/syssam/querycraft/ast"
)

// selectStmt renders s. Clauses are emitted in text order so that bound
// markers follow the order of the SQL.
func (b *builder) selectStmt(s *ast.Select) (string, error) {
	var parts []string
	if len(s.With) > 0 {
		with, err := b.with(s.With)
		if err != nil {
			return "", err
		}
		parts = append(parts, with)
	}
	list, err := b.selectList(s)
	if err != nil {
		return "", err
	}
	if s.Distinct {
		parts = append(parts, "SELECT DISTINCT "+list)
	} else {
		parts = append(parts, "SELECT "+list)
	}
	from, err := b.source(s.From)
	if err != nil {
		return "", err
	}
	parts = append(parts, "FROM "+from)
	for _, j := range s.Joins {
		join, err := b.join(j)
		if err != nil {
			return "", err
		}
		parts = append(parts, join)
	}
	if s.Unpivot != nil {
		u, err := b.d.unpivot(b, s.Unpivot)
		if err != nil {
			return "", err
		}
		parts = append(parts, u)
	}
	if s.Ordinality != nil {
		o, err := b.d.ordinality(b, s.Ordinality)
		if err != nil {
			return "", err
		}
		parts = append(parts, o)
	}
	if where, err := b.where(s.Where, s.ArrayOps); err != nil {
		return "", err
	} else if where != "" {
		parts = append(parts, "WHERE "+where)
	}
	if len(s.GroupBy) > 0 {
		group, err := b.idents(s.GroupBy)
		if err != nil {
			return "", err
		}
		parts = append(parts, "GROUP BY "+group)
	}
	if len(s.Having) > 0 {
		having, err := b.conditions(s.Having)
		if err != nil {
			return "", err
		}
		parts = append(parts, "HAVING "+having)
	}
	if len(s.OrderBy) > 0 {
		order, err := b.orderBy(s.OrderBy)
		if err != nil {
			return "", err
		}
		parts = append(parts, "ORDER BY "+order)
	}
	parts = append(parts, b.d.limit(normLimit(s.Limit), normOffset(s.Offset))...)
	for _, op := range s.SetOps {
		sub, err := b.selectStmt(op.Query)
		if err != nil {
			return "", err
		}
		parts = append(parts, setOpKeyword(op.Type), sub)
	}
	return strings.Join(parts, " "), nil
}

func (b *builder) with(ctes []ast.CTE) (string, error) {
	var (
		recursive bool
		defs      = make([]string, len(ctes))
	)
	for i, c := range ctes {
		recursive = recursive || c.Recursive
		name, err := b.ident(c.Name)
		if err != nil {
			return "", err
		}
		if len(c.Columns) > 0 {
			cols, err := b.idents(c.Columns)
			if err != nil {
				return "", err
			}
			name += " (" + cols + ")"
		}
		q, err := b.selectStmt(c.Query)
		if err != nil {
			return "", err
		}
		defs[i] = name + " AS (" + q + ")"
	}
	if recursive {
		return "WITH RECURSIVE " + strings.Join(defs, ", "), nil
	}
	return "WITH " + strings.Join(defs, ", "), nil
}

// selectList renders the projections in the order: columns, aggregations,
// windows, conditionals, JSON paths, JSON functions, array functions,
// array slices and pivot columns. An empty list renders "*".
func (b *builder) selectList(s *ast.Select) (string, error) {
	var list []string
	for _, c := range s.Columns {
		it, err := b.item(c)
		if err != nil {
			return "", err
		}
		list = append(list, it)
	}
	for _, a := range s.Aggregations {
		agg, err := b.aggregation(a)
		if err != nil {
			return "", err
		}
		list = append(list, agg)
	}
	for _, w := range s.Windows {
		win, err := b.window(w)
		if err != nil {
			return "", err
		}
		list = append(list, win)
	}
	for _, c := range s.Conditionals {
		cond, err := b.conditional(c)
		if err != nil {
			return "", err
		}
		list = append(list, cond)
	}
	for _, p := range s.JSONPaths {
		expr, err := b.d.jsonPath(b, p)
		if err != nil {
			return "", err
		}
		if expr, err = b.as(expr, p.Alias); err != nil {
			return "", err
		}
		list = append(list, expr)
	}
	for _, f := range s.JSONFuncs {
		expr, err := b.d.jsonFunc(b, f)
		if err != nil {
			return "", err
		}
		if expr, err = b.as(expr, f.Alias); err != nil {
			return "", err
		}
		list = append(list, expr)
	}
	for _, f := range s.ArrayFuncs {
		expr, err := b.d.arrayFunc(b, f)
		if err != nil {
			return "", err
		}
		if expr, err = b.as(expr, f.Alias); err != nil {
			return "", err
		}
		list = append(list, expr)
	}
	for _, sl := range s.ArraySlices {
		expr, err := b.d.arraySlice(b, sl)
		if err != nil {
			return "", err
		}
		if expr, err = b.as(expr, sl.Alias); err != nil {
			return "", err
		}
		list = append(list, expr)
	}
	if s.Pivot != nil {
		cols, err := b.d.pivot(b, s.Pivot)
		if err != nil {
			return "", err
		}
		list = append(list, cols...)
	}
	if len(list) == 0 {
		return "*", nil
	}
	return strings.Join(list, ", "), nil
}

// source renders a table or an aliased subquery.
func (b *builder) source(src ast.Source) (string, error) {
	switch s := src.(type) {
	case ast.Table:
		name, err := b.ident(s.Name)
		if err != nil {
			return "", err
		}
		return b.as(name, s.Alias)
	case ast.Subquery:
		q, err := b.selectStmt(s.Query)
		if err != nil {
			return "", err
		}
		return b.as("("+q+")", s.Alias)
	default:
		return "", fmt.Errorf("querycraft: unexpected source type %T", src)
	}
}

func (b *builder) join(j ast.Join) (string, error) {
	kw, err := b.d.join(j.Type)
	if err != nil {
		return "", err
	}
	src, err := b.source(j.Table)
	if err != nil {
		return "", err
	}
	if j.Type == ast.LateralJoin && len(j.On) > 0 {
		kw = "JOIN LATERAL"
	}
	if len(j.On) == 0 {
		return kw + " " + src, nil
	}
	on, err := b.conditions(j.On)
	if err != nil {
		return "", err
	}
	return kw + " " + src + " ON " + on, nil
}

// where renders the WHERE conditions followed by the array predicates,
// joined with AND. It returns "" when both are empty.
func (b *builder) where(conds []ast.Condition, ops []ast.ArrayOperation) (string, error) {
	var where string
	if len(conds) > 0 {
		var err error
		if where, err = b.conditions(conds); err != nil {
			return "", err
		}
		if len(ops) > 0 && hasOr(conds) {
			where = "(" + where + ")"
		}
	}
	for _, op := range ops {
		expr, err := b.d.arrayOp(b, op)
		if err != nil {
			return "", err
		}
		if where == "" {
			where = expr
		} else {
			where += " AND " + expr
		}
	}
	return where, nil
}

func hasOr(conds []ast.Condition) bool {
	for _, c := range conds[1:] {
		if c.Logical == ast.Or {
			return true
		}
	}
	return false
}

func (b *builder) orderBy(terms []ast.OrderBy) (string, error) {
	out := make([]string, len(terms))
	for i, o := range terms {
		col, err := b.ident(o.Column)
		if err != nil {
			return "", err
		}
		out[i] = b.d.order(col, o)
	}
	return strings.Join(out, ", "), nil
}

func normLimit(n *int) *int {
	switch {
	case n == nil || *n < 0:
		return nil
	case *n > MaxLimit:
		return ast.Int(MaxLimit)
	}
	return n
}

func normOffset(n *int) *int {
	if n == nil || *n < 0 {
		return nil
	}
	return n
}

func setOpKeyword(t ast.SetOpType) string {
	if t == ast.Minus {
		return ast.Except.String()
	}
	return t.String()
}
