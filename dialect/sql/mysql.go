package sql

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/syssam/querycraft/ast"
	"github.com/syssam/querycraft/dialect"
	"github.com/syssam/querycraft/sanitize"
)

// mysqlMaxRows is the row count of an OFFSET without LIMIT, as the MySQL
// manual recommends.
const mysqlMaxRows = "18446744073709551615"

type mysqlDialect struct {
	baseDialect
}

func newMySQL() *mysqlDialect {
	return &mysqlDialect{baseDialect{
		dialect: dialect.MySQL,
		lit: literalStyle{
			quote:      func(s string) string { return "'" + escapeStringValue(s) + "'" },
			trueTok:    "1",
			falseTok:   "0",
			timeLayout: "2006-01-02 15:04:05.999999",
			array:      tuple,
		},
	}}
}

// escapeStringValue escapes a string value for safe use in SQL.
// It escapes both single quotes (by doubling) and backslashes (for MySQL compatibility).
func escapeStringValue(s string) string {
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return s
}

func (*mysqlDialect) QuoteIdent(s string) string {
	return "`" + sanitize.EscapeForDialect(s, dialect.MySQL) + "`"
}

func (d *mysqlDialect) join(t ast.JoinType) (string, error) {
	if t == ast.FullJoin {
		return "", d.unsupported("FULL JOIN")
	}
	return d.baseDialect.join(t)
}

// order emulates NULLS FIRST/LAST by sorting on "col IS NULL" first.
func (d *mysqlDialect) order(col string, o ast.OrderBy) string {
	term := d.baseDialect.order(col, ast.OrderBy{Desc: o.Desc})
	switch o.Nulls {
	case ast.NullsFirst:
		return col + " IS NULL DESC, " + term
	case ast.NullsLast:
		return col + " IS NULL ASC, " + term
	}
	return term
}

func (*mysqlDialect) limit(limit, offset *int) []string {
	switch {
	case limit != nil && offset != nil:
		return []string{"LIMIT " + strconv.Itoa(*offset) + ", " + strconv.Itoa(*limit)}
	case limit != nil:
		return []string{"LIMIT " + strconv.Itoa(*limit)}
	case offset != nil:
		return []string{"LIMIT " + strconv.Itoa(*offset) + ", " + mysqlMaxRows}
	}
	return nil
}

func (d *mysqlDialect) frame(f *ast.Frame) error {
	if f.Unit == ast.Groups {
		return d.unsupported("GROUPS frame")
	}
	if f.Exclude != ast.ExcludeNone {
		return d.unsupported("frame EXCLUDE")
	}
	return nil
}

func (d *mysqlDialect) aggName(f ast.AggFunc) (string, error) {
	switch f {
	case ast.StringAgg:
		return ast.GroupConcat.String(), nil
	case ast.JSONAgg:
		return "JSON_ARRAYAGG", nil
	case ast.ArrayAgg, ast.PercentileCont, ast.PercentileDisc:
		return "", d.unsupported(f.String())
	}
	return d.baseDialect.aggName(f)
}

func (*mysqlDialect) excluded(b *builder, col string) (string, error) {
	c, err := b.ident(col)
	if err != nil {
		return "", err
	}
	return "VALUES(" + c + ")", nil
}

// onConflict renders ON DUPLICATE KEY UPDATE. MySQL has no DO NOTHING, so
// it assigns the first target column to itself.
func (*mysqlDialect) onConflict(b *builder, oc *ast.OnConflict) (string, error) {
	if oc.Action == ast.DoNothing {
		col, err := b.ident(oc.Target[0])
		if err != nil {
			return "", err
		}
		return "ON DUPLICATE KEY UPDATE " + col + " = " + col, nil
	}
	set, err := b.assignments(oc.Update)
	if err != nil {
		return "", err
	}
	return "ON DUPLICATE KEY UPDATE " + set, nil
}

// pivot emulates PIVOT with one conditional aggregate per value.
func (d *mysqlDialect) pivot(b *builder, p *ast.Pivot) ([]string, error) {
	col, err := b.ident(p.Column)
	if err != nil {
		return nil, err
	}
	then := "1"
	if p.Aggregate.Column != "*" {
		if then, err = b.ident(p.Aggregate.Column); err != nil {
			return nil, err
		}
	}
	out := make([]string, len(p.Values))
	for i, v := range p.Values {
		lit, err := d.literal(v)
		if err != nil {
			return nil, err
		}
		agg, err := pivotAggregate(b, p.Aggregate, "CASE WHEN "+col+" = "+lit+" THEN "+then+" END")
		if err != nil {
			return nil, err
		}
		if out[i], err = b.as(agg, pivotAlias(p.Aggregate.Alias, v)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (*mysqlDialect) jsonPath(b *builder, p ast.JSONPath) (string, error) {
	col, err := b.ident(p.Column)
	if err != nil {
		return "", err
	}
	expr := "JSON_EXTRACT(" + col + ", " + b.bind(jsonPathText(p.Path)) + ")"
	if p.Op == ast.JSONExtractText {
		return "JSON_UNQUOTE(" + expr + ")", nil
	}
	return expr, nil
}

func (*mysqlDialect) jsonFunc(b *builder, f ast.JSONFunction) (string, error) {
	col, err := b.ident(f.Column)
	if err != nil {
		return "", err
	}
	switch f.Func {
	case ast.JSONArrayLength:
		return "JSON_LENGTH(" + col + ")", nil
	case ast.JSONTypeOf:
		return "JSON_TYPE(" + col + ")", nil
	case ast.JSONKeys:
		return "JSON_KEYS(" + col + ")", nil
	case ast.JSONValid:
		return "JSON_VALID(" + col + ")", nil
	case ast.JSONContains:
		doc, err := jsonText(f.Value)
		if err != nil {
			return "", err
		}
		return "JSON_CONTAINS(" + col + ", " + b.params.BindRaw(doc) + ")", nil
	}
	return "", b.unsupported(f.Func.String())
}

var (
	pathKeyRe   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	pathIndexRe = regexp.MustCompile(`^[0-9]+$`)
)

// jsonPathText builds a "$.a[0].b" path. Keys that are not plain words are
// double-quoted.
func jsonPathText(path []string) string {
	var sb strings.Builder
	sb.WriteString("$")
	for _, seg := range path {
		switch {
		case pathIndexRe.MatchString(seg):
			sb.WriteString("[" + seg + "]")
		case pathKeyRe.MatchString(seg):
			sb.WriteString("." + seg)
		default:
			sb.WriteString(`."` + strings.ReplaceAll(seg, `"`, `\"`) + `"`)
		}
	}
	return sb.String()
}
