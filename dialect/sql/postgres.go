package sql

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/syssam/querycraft/ast"
	"github.com/syssam/querycraft/bind"
	"github.com/syssam/querycraft/dialect"
)

// postgresDialect renders PostgreSQL. It is the most complete dialect:
// every dialect-gated construct is native here.
type postgresDialect struct {
	baseDialect
}

func newPostgres() *postgresDialect {
	return &postgresDialect{baseDialect{
		dialect: dialect.Postgres,
		lit: literalStyle{
			quote:      func(s string) string { return strings.TrimSpace(pq.QuoteLiteral(s)) },
			trueTok:    "TRUE",
			falseTok:   "FALSE",
			timeLayout: "2006-01-02 15:04:05.999999",
			timePrefix: "TIMESTAMP ",
			array:      func(items []string) string { return "ARRAY[" + strings.Join(items, ", ") + "]" },
		},
	}}
}

func (*postgresDialect) QuoteIdent(s string) string { return pq.QuoteIdentifier(s) }

func (*postgresDialect) style() bind.Style { return bind.Positional }

func (d *postgresDialect) operator(op ast.Operator) (string, error) {
	switch op {
	case ast.OpRegexp:
		return "~", nil
	case ast.OpSimilarTo:
		return "SIMILAR TO", nil
	}
	return d.baseDialect.operator(op)
}

func (*postgresDialect) ilike(col, marker string, not bool) string {
	if not {
		return col + " NOT ILIKE " + marker
	}
	return col + " ILIKE " + marker
}

// aggName maps GROUP_CONCAT to STRING_AGG, which postgres names it.
func (d *postgresDialect) aggName(f ast.AggFunc) (string, error) {
	if f == ast.GroupConcat {
		return ast.StringAgg.String(), nil
	}
	return d.baseDialect.aggName(f)
}

func (*postgresDialect) returning(b *builder, cols []string) (string, error) {
	return returningClause(b, cols)
}

func (*postgresDialect) onConflict(b *builder, oc *ast.OnConflict) (string, error) {
	return onConflictClause(b, oc)
}

func (*postgresDialect) merge(b *builder, m *ast.Merge) (string, error) {
	into, err := b.ident(m.Into)
	if err != nil {
		return "", err
	}
	if into, err = b.as(into, m.Alias); err != nil {
		return "", err
	}
	using, err := b.source(m.Using)
	if err != nil {
		return "", err
	}
	on, err := b.conditions(m.On)
	if err != nil {
		return "", err
	}
	sql := "MERGE INTO " + into + " USING " + using + " ON " + on
	if wm := m.WhenMatched; wm != nil {
		if wm.Delete {
			sql += " WHEN MATCHED THEN DELETE"
		} else {
			set, err := b.assignments(wm.Set)
			if err != nil {
				return "", err
			}
			sql += " WHEN MATCHED THEN UPDATE SET " + set
		}
	}
	if wn := m.WhenNotMatched; wn != nil {
		cols, err := b.idents(wn.Values.Columns())
		if err != nil {
			return "", err
		}
		vals := make([]string, len(wn.Values))
		for i, a := range wn.Values {
			if vals[i], err = b.value(a.Value, false); err != nil {
				return "", err
			}
		}
		sql += " WHEN NOT MATCHED THEN INSERT (" + cols + ") VALUES (" + strings.Join(vals, ", ") + ")"
	}
	return sql, nil
}

// pivot renders one filtered aggregate per pivot value.
func (d *postgresDialect) pivot(b *builder, p *ast.Pivot) ([]string, error) {
	col, err := b.ident(p.Column)
	if err != nil {
		return nil, err
	}
	agg, err := pivotAggregate(b, p.Aggregate, "")
	if err != nil {
		return nil, err
	}
	out := make([]string, len(p.Values))
	for i, v := range p.Values {
		lit, err := d.literal(v)
		if err != nil {
			return nil, err
		}
		if out[i], err = b.as(agg+" FILTER (WHERE "+col+" = "+lit+")", pivotAlias(p.Aggregate.Alias, v)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *postgresDialect) unpivot(b *builder, u *ast.Unpivot) (string, error) {
	rows := make([]string, len(u.Columns))
	for i, c := range u.Columns {
		col, err := b.ident(c)
		if err != nil {
			return "", err
		}
		rows[i] = "(" + strings.TrimSpace(pq.QuoteLiteral(c)) + ", " + col + ")"
	}
	cols, err := b.idents([]string{u.NameColumn, u.ValueColumn})
	if err != nil {
		return "", err
	}
	return "CROSS JOIN LATERAL (VALUES " + strings.Join(rows, ", ") + ") AS " + d.QuoteIdent("unpivot") + " (" + cols + ")", nil
}

func (d *postgresDialect) ordinality(b *builder, o *ast.Ordinality) (string, error) {
	col, err := b.ident(o.Column)
	if err != nil {
		return "", err
	}
	alias := o.Alias
	if alias == "" {
		alias = "ord"
	}
	names, err := b.idents([]string{o.ValueColumn, o.OrdinalityColumn})
	if err != nil {
		return "", err
	}
	return "CROSS JOIN LATERAL unnest(" + col + ") WITH ORDINALITY AS " + d.QuoteIdent(alias) + " (" + names + ")", nil
}

// jsonPath binds the path as a text array, so numeric segments address
// array elements.
func (*postgresDialect) jsonPath(b *builder, p ast.JSONPath) (string, error) {
	col, err := b.ident(p.Column)
	if err != nil {
		return "", err
	}
	op := " #> "
	if p.Op == ast.JSONExtractText {
		op = " #>> "
	}
	return col + op + b.params.BindRaw(pq.Array(p.Path)), nil
}

func (*postgresDialect) jsonFunc(b *builder, f ast.JSONFunction) (string, error) {
	col, err := b.ident(f.Column)
	if err != nil {
		return "", err
	}
	switch f.Func {
	case ast.JSONArrayLength:
		return "jsonb_array_length(" + col + ")", nil
	case ast.JSONTypeOf:
		return "jsonb_typeof(" + col + ")", nil
	case ast.JSONKeys:
		return "jsonb_object_keys(" + col + ")", nil
	case ast.JSONContains:
		doc, err := jsonText(f.Value)
		if err != nil {
			return "", err
		}
		return col + " @> " + b.params.BindRaw(doc) + "::jsonb", nil
	}
	return "", b.unsupported(f.Func.String())
}

var arrayOperators = map[ast.ArrayOp]string{
	ast.ArrayContains:    "@>",
	ast.ArrayContainedBy: "<@",
	ast.ArrayOverlaps:    "&&",
}

func (*postgresDialect) arrayOp(b *builder, op ast.ArrayOperation) (string, error) {
	col, err := b.ident(op.Column)
	if err != nil {
		return "", err
	}
	if op.Op == ast.ArrayAny {
		return b.bind(op.Value) + " = ANY(" + col + ")", nil
	}
	return col + " " + arrayOperators[op.Op] + " " + b.params.BindRaw(pq.Array(op.Value)), nil
}

func (*postgresDialect) arrayFunc(b *builder, f ast.ArrayFunction) (string, error) {
	col, err := b.ident(f.Column)
	if err != nil {
		return "", err
	}
	switch f.Func {
	case ast.ArrayLength:
		return "array_length(" + col + ", 1)", nil
	case ast.Cardinality, ast.Unnest:
		return strings.ToLower(f.Func.String()) + "(" + col + ")", nil
	default:
		return strings.ToLower(f.Func.String()) + "(" + col + ", " + b.bind(f.Value) + ")", nil
	}
}

func (*postgresDialect) arraySlice(b *builder, s ast.ArraySlice) (string, error) {
	col, err := b.ident(s.Column)
	if err != nil {
		return "", err
	}
	var lo, hi string
	if s.Start != nil {
		lo = strconv.Itoa(*s.Start)
	}
	if s.End != nil {
		hi = strconv.Itoa(*s.End)
	}
	return col + "[" + lo + ":" + hi + "]", nil
}

// pivotAggregate renders the aggregate of a pivot without its alias. A
// non-empty col replaces the aggregated column.
func pivotAggregate(b *builder, a ast.Aggregation, col string) (string, error) {
	if col == "" {
		col = "*"
		if a.Column != "*" {
			var err error
			if col, err = b.ident(a.Column); err != nil {
				return "", err
			}
		}
	}
	return b.aggregate(a, col)
}

// pivotAlias names the projection of the pivot value v. Characters that
// cannot appear in an identifier become "_", and a leading digit gets a "_"
// prefix. The result still goes through the identifier grammar.
func pivotAlias(prefix string, v any) string {
	s := fmt.Sprint(v)
	if prefix != "" {
		s = prefix + "_" + s
	}
	s = strings.Map(func(r rune) rune {
		if r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			return r
		}
		return '_'
	}, s)
	if s == "" || s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	return s
}

// jsonText returns v as JSON text. Strings and byte slices are taken to
// hold JSON already.
func jsonText(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case json.RawMessage:
		return string(x), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("querycraft: encode JSON operand: %w", err)
	}
	return string(b), nil
}
