package sql

import (
	"reflect"
	"strings"

	"github.com/syssam/querycraft"
	"github.com/syssam/querycraft/ast"
	"github.com/syssam/querycraft/sanitize"
)

// conditions renders a condition list. The Logical connector of the first
// condition is ignored.
func (b *builder) conditions(conds []ast.Condition) (string, error) {
	var sb strings.Builder
	for i, c := range conds {
		expr, err := b.condition(c)
		if err != nil {
			return "", err
		}
		if i > 0 {
			sb.WriteString(" " + c.Logical.String() + " ")
		}
		sb.WriteString(expr)
	}
	return sb.String(), nil
}

func (b *builder) condition(c ast.Condition) (string, error) {
	switch c.Operator {
	case ast.OpRaw:
		args, _ := c.Value.([]any)
		return b.raw(c.Column, args)
	case ast.OpExists, ast.OpNotExists:
		sub, err := b.selectStmt(c.Value.(*ast.Select))
		if err != nil {
			return "", err
		}
		return c.Operator.String() + " (" + sub + ")", nil
	}
	col, err := b.ident(c.Column)
	if err != nil {
		return "", err
	}
	switch op := c.Operator; {
	case op == ast.OpIsNull, op == ast.OpIsNotNull:
		return col + " " + op.String(), nil
	case op == ast.OpBetween, op == ast.OpNotBetween:
		vs := list(c.Value)
		if len(vs) != 2 {
			return "", querycraft.NewValidationError("", "%s on %q requires exactly two values", op, c.Column)
		}
		lo, err := b.value(vs[0], true)
		if err != nil {
			return "", err
		}
		hi, err := b.value(vs[1], true)
		if err != nil {
			return "", err
		}
		return col + " " + op.String() + " " + lo + " AND " + hi, nil
	case op == ast.OpIn, op == ast.OpNotIn:
		if sub, ok := c.Value.(*ast.Select); ok {
			q, err := b.selectStmt(sub)
			if err != nil {
				return "", err
			}
			return col + " " + op.String() + " (" + q + ")", nil
		}
		vs := list(c.Value)
		markers := make([]string, len(vs))
		for i, v := range vs {
			markers[i] = b.bind(v)
		}
		return col + " " + op.String() + " (" + strings.Join(markers, ", ") + ")", nil
	case op.IsLike():
		marker := b.bind(likeValue(c.Value))
		if op == ast.OpILike || op == ast.OpNotILike {
			return b.d.ilike(col, marker, op == ast.OpNotILike) + b.d.likeEscape(), nil
		}
		return col + " " + op.String() + " " + marker + b.d.likeEscape(), nil
	default:
		tok, err := b.d.operator(op)
		if err != nil {
			return "", err
		}
		rhs, err := b.value(c.Value, true)
		if err != nil {
			return "", err
		}
		return col + " " + tok + " " + rhs, nil
	}
}

// likeValue escapes the wildcards of textual LIKE operands. Pattern values
// keep theirs.
func likeValue(v any) any {
	switch x := v.(type) {
	case ast.Pattern:
		return string(x)
	case ast.Text:
		return sanitize.EscapeLike(string(x))
	case string:
		return sanitize.EscapeLike(x)
	}
	return v
}

// list flattens a slice or array value into its elements.
func list(v any) []any {
	if vs, ok := v.([]any); ok {
		return vs
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	vs := make([]any, rv.Len())
	for i := range vs {
		vs[i] = rv.Index(i).Interface()
	}
	return vs
}

// standardOps are the comparison tokens every dialect shares.
var standardOps = map[ast.Operator]string{
	ast.OpEQ:       "=",
	ast.OpNEQ:      "!=",
	ast.OpNotEqual: "<>",
	ast.OpLT:       "<",
	ast.OpLTE:      "<=",
	ast.OpGT:       ">",
	ast.OpGTE:      ">=",
}

func (d baseDialect) operator(op ast.Operator) (string, error) {
	if tok, ok := standardOps[op]; ok {
		return tok, nil
	}
	switch op {
	case ast.OpRegexp:
		return "REGEXP", nil
	case ast.OpSimilarTo:
		return "", querycraft.NewUnsupportedFeatureError(d.dialect, "SIMILAR TO")
	}
	return "", querycraft.NewValidationError("", "unknown operator %d", op)
}

func (baseDialect) ilike(col, marker string, not bool) string {
	if not {
		return "LOWER(" + col + ") NOT LIKE LOWER(" + marker + ")"
	}
	return "LOWER(" + col + ") LIKE LOWER(" + marker + ")"
}

func (baseDialect) likeEscape() string { return "" }
