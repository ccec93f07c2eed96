package sql

import (
	"strconv"

	"github.com/syssam/querycraft/ast"
	"github.com/syssam/querycraft/dialect"
	"github.com/syssam/querycraft/sanitize"
)

type sqliteDialect struct {
	baseDialect
}

func newSQLite() *sqliteDialect {
	return &sqliteDialect{baseDialect{
		dialect: dialect.SQLite,
		lit: literalStyle{
			quote:      singleQuote,
			trueTok:    "1",
			falseTok:   "0",
			timeLayout: "2006-01-02 15:04:05.000",
			array:      tuple,
		},
	}}
}

func (*sqliteDialect) QuoteIdent(s string) string {
	return `"` + sanitize.EscapeForDialect(s, dialect.SQLite) + `"`
}

// likeEscape declares the escape character, which SQLite LIKE lacks by
// default.
func (*sqliteDialect) likeEscape() string { return ` ESCAPE '\'` }

func (d *sqliteDialect) join(t ast.JoinType) (string, error) {
	if t == ast.LateralJoin {
		return "", d.unsupported("LATERAL JOIN")
	}
	return d.baseDialect.join(t)
}

func (d *sqliteDialect) limit(limit, offset *int) []string {
	if limit == nil && offset != nil {
		return []string{"LIMIT -1", "OFFSET " + strconv.Itoa(*offset)}
	}
	return d.baseDialect.limit(limit, offset)
}

func (d *sqliteDialect) aggName(f ast.AggFunc) (string, error) {
	switch f {
	case ast.JSONAgg:
		return "JSON_GROUP_ARRAY", nil
	case ast.ArrayAgg, ast.PercentileCont, ast.PercentileDisc, ast.Stddev, ast.Variance:
		return "", d.unsupported(f.String())
	}
	return d.baseDialect.aggName(f)
}

// stringAgg passes the separator as the second argument of both
// GROUP_CONCAT and STRING_AGG.
func (*sqliteDialect) stringAgg(fn, distinct, col, sep, order string) string {
	expr := fn + "(" + distinct + col
	if sep != "" {
		expr += ", " + sep
	}
	if order != "" {
		expr += " " + order
	}
	return expr + ")"
}

func (*sqliteDialect) returning(b *builder, cols []string) (string, error) {
	return returningClause(b, cols)
}

func (*sqliteDialect) onConflict(b *builder, oc *ast.OnConflict) (string, error) {
	return onConflictClause(b, oc)
}

func (*sqliteDialect) jsonPath(b *builder, p ast.JSONPath) (string, error) {
	col, err := b.ident(p.Column)
	if err != nil {
		return "", err
	}
	return "json_extract(" + col + ", " + b.bind(jsonPathText(p.Path)) + ")", nil
}

func (*sqliteDialect) jsonFunc(b *builder, f ast.JSONFunction) (string, error) {
	col, err := b.ident(f.Column)
	if err != nil {
		return "", err
	}
	switch f.Func {
	case ast.JSONArrayLength:
		return "json_array_length(" + col + ")", nil
	case ast.JSONTypeOf:
		return "json_type(" + col + ")", nil
	case ast.JSONValid:
		return "json_valid(" + col + ")", nil
	}
	return "", b.unsupported(f.Func.String())
}
