package sql

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/querycraft"
	"github.com/syssam/querycraft/ast"
	"github.com/syssam/querycraft/bind"
	"github.com/syssam/querycraft/sanitize"
)

// baseDialect holds the rendering defaults. Dialect-gated constructs fail
// with an unsupported feature error unless a dialect overrides them.
type baseDialect struct {
	dialect string
	lit     literalStyle
}

func (d baseDialect) name() string { return d.dialect }

func (baseDialect) style() bind.Style { return bind.Sequential }

func (d baseDialect) unsupported(feature string) error {
	return querycraft.NewUnsupportedFeatureError(d.dialect, feature)
}

var joinKeywords = map[ast.JoinType]string{
	ast.InnerJoin:   "INNER JOIN",
	ast.LeftJoin:    "LEFT JOIN",
	ast.RightJoin:   "RIGHT JOIN",
	ast.FullJoin:    "FULL JOIN",
	ast.CrossJoin:   "CROSS JOIN",
	ast.LateralJoin: "CROSS JOIN LATERAL",
}

func (baseDialect) join(t ast.JoinType) (string, error) {
	return joinKeywords[t], nil
}

func (baseDialect) order(col string, o ast.OrderBy) string {
	term := col + " ASC"
	if o.Desc {
		term = col + " DESC"
	}
	if o.Nulls != ast.NullsDefault {
		term += " NULLS " + o.Nulls.String()
	}
	return term
}

func (baseDialect) limit(limit, offset *int) []string {
	var parts []string
	if limit != nil {
		parts = append(parts, "LIMIT "+strconv.Itoa(*limit))
	}
	if offset != nil {
		parts = append(parts, "OFFSET "+strconv.Itoa(*offset))
	}
	return parts
}

func (baseDialect) frame(*ast.Frame) error { return nil }

func (baseDialect) aggName(f ast.AggFunc) (string, error) { return f.String(), nil }

// stringAgg renders GROUP_CONCAT with a SEPARATOR clause and STRING_AGG
// with a separator argument.
func (baseDialect) stringAgg(fn, distinct, col, sep, order string) string {
	if fn == ast.GroupConcat.String() {
		expr := fn + "(" + distinct + col
		if order != "" {
			expr += " " + order
		}
		if sep != "" {
			expr += " SEPARATOR " + sep
		}
		return expr + ")"
	}
	expr := fn + "(" + distinct + col + ", " + sep
	if order != "" {
		expr += " " + order
	}
	return expr + ")"
}

func (baseDialect) excluded(b *builder, col string) (string, error) {
	c, err := b.ident(col)
	if err != nil {
		return "", err
	}
	return "EXCLUDED." + c, nil
}

func (d baseDialect) returning(*builder, []string) (string, error) {
	return "", d.unsupported("RETURNING")
}

func (d baseDialect) onConflict(*builder, *ast.OnConflict) (string, error) {
	return "", d.unsupported("ON CONFLICT")
}

func (d baseDialect) merge(*builder, *ast.Merge) (string, error) {
	return "", d.unsupported("MERGE")
}

func (d baseDialect) pivot(*builder, *ast.Pivot) ([]string, error) {
	return nil, d.unsupported("PIVOT")
}

func (d baseDialect) unpivot(*builder, *ast.Unpivot) (string, error) {
	return "", d.unsupported("UNPIVOT")
}

func (d baseDialect) ordinality(*builder, *ast.Ordinality) (string, error) {
	return "", d.unsupported("WITH ORDINALITY")
}

func (d baseDialect) jsonPath(*builder, ast.JSONPath) (string, error) {
	return "", d.unsupported("JSON path")
}

func (d baseDialect) jsonFunc(_ *builder, f ast.JSONFunction) (string, error) {
	return "", d.unsupported(f.Func.String())
}

func (d baseDialect) arrayOp(_ *builder, op ast.ArrayOperation) (string, error) {
	return "", d.unsupported("array operator " + op.Op.String())
}

func (d baseDialect) arrayFunc(_ *builder, f ast.ArrayFunction) (string, error) {
	return "", d.unsupported(f.Func.String())
}

func (d baseDialect) arraySlice(*builder, ast.ArraySlice) (string, error) {
	return "", d.unsupported("array slice")
}

// literalStyle configures inline literal rendering.
type literalStyle struct {
	quote      func(string) string
	trueTok    string
	falseTok   string
	timeLayout string
	timePrefix string
	array      func([]string) string
}

// literal renders v inline. Values are normalized with sanitize.Value
// first, so maps and structs render as quoted JSON text.
func (d baseDialect) literal(v any) (string, error) {
	switch t := v.(type) {
	case time.Time:
		return d.lit.timePrefix + d.lit.quote(t.UTC().Format(d.lit.timeLayout)), nil
	case *time.Time:
		if t != nil {
			return d.literal(*t)
		}
	}
	switch x := sanitize.Value(v).(type) {
	case nil:
		return "NULL", nil
	case bool:
		if x {
			return d.lit.trueTok, nil
		}
		return d.lit.falseTok, nil
	case string:
		return d.lit.quote(x), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case []any:
		items := make([]string, len(x))
		for i, e := range x {
			s, err := d.literal(e)
			if err != nil {
				return "", err
			}
			items[i] = s
		}
		return d.lit.array(items), nil
	default:
		return "", fmt.Errorf("querycraft: cannot render %T as a %s literal", v, d.dialect)
	}
}

// tuple renders literal items as "(a, b)".
func tuple(items []string) string {
	return "(" + strings.Join(items, ", ") + ")"
}

// singleQuote renders s as a single-quoted literal, doubling embedded
// single quotes.
func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
