package sql

import (
	"fmt"
	"slices"
	"strings"

	"github.com/syssam/querycraft"
	"github.com/syssam/querycraft/ast"
	"github.com/syssam/querycraft/bind"
	"github.com/syssam/querycraft/sanitize"
	"github.com/syssam/querycraft/validate"
)

// MaxLimit caps every rendered LIMIT.
const MaxLimit = 1_000_000

// Query is a rendered statement and its bound arguments. Args are ordered
// as their markers appear in SQL.
type Query struct {
	SQL  string `msgpack:"sql"`
	Args []any  `msgpack:"args"`
}

// String returns the SQL text.
func (q *Query) String() string { return q.SQL }

// Renderer renders statements for one dialect. A Renderer holds no
// per-call state and is safe for concurrent use.
type Renderer struct {
	d    dialectOps
	opts []validate.Option
}

// WithValidation returns a copy of r that validates with opts, for
// example validate.RequireUpdateWhere().
func (r *Renderer) WithValidation(opts ...validate.Option) *Renderer {
	return &Renderer{d: r.d, opts: append(slices.Clip(r.opts), opts...)}
}

// Dialect returns the dialect name of the renderer.
func (r *Renderer) Dialect() string { return r.d.name() }

// Style returns the placeholder style of the dialect.
func (r *Renderer) Style() bind.Style { return r.d.style() }

// QuoteIdent sanitizes name and quotes every segment of it.
func (r *Renderer) QuoteIdent(name string) (string, error) {
	n, err := sanitize.Identifier(name)
	if err != nil {
		return "", err
	}
	return n.Quote(r.d), nil
}

// Literal renders v as an inline SQL literal of the dialect.
func (r *Renderer) Literal(v any) (string, error) {
	return r.d.literal(v)
}

// Render validates stmt and renders it. No SQL is returned for a statement
// that fails validation or identifier sanitization.
func (r *Renderer) Render(stmt ast.Statement) (*Query, error) {
	if err := validate.Statement(stmt, r.opts...); err != nil {
		return nil, err
	}
	b := &builder{d: r.d, params: bind.New(r.d.style())}
	var (
		sql string
		err error
	)
	switch s := stmt.(type) {
	case *ast.Select:
		sql, err = b.selectStmt(s)
	case *ast.Insert:
		sql, err = b.insert(s)
	case *ast.Update:
		sql, err = b.update(s)
	case *ast.Delete:
		sql, err = b.delete(s)
	case *ast.Merge:
		sql, err = b.d.merge(b, s)
	default:
		err = fmt.Errorf("querycraft: unexpected statement type %T", stmt)
	}
	if err != nil {
		return nil, err
	}
	return &Query{SQL: sql, Args: b.params.Args()}, nil
}

// dialectOps is the set of rendering decisions a dialect makes. The shared
// engine calls every hook through this interface, so a dialect overrides a
// baseDialect default by declaring the same method.
type dialectOps interface {
	sanitize.Quoter
	name() string
	style() bind.Style
	literal(v any) (string, error)
	operator(op ast.Operator) (string, error)
	ilike(col, marker string, not bool) string
	likeEscape() string
	join(t ast.JoinType) (string, error)
	order(col string, o ast.OrderBy) string
	limit(limit, offset *int) []string
	frame(f *ast.Frame) error
	aggName(f ast.AggFunc) (string, error)
	stringAgg(fn, distinct, col, sep, order string) string
	excluded(b *builder, col string) (string, error)
	returning(b *builder, cols []string) (string, error)
	onConflict(b *builder, oc *ast.OnConflict) (string, error)
	merge(b *builder, m *ast.Merge) (string, error)
	pivot(b *builder, p *ast.Pivot) ([]string, error)
	unpivot(b *builder, u *ast.Unpivot) (string, error)
	ordinality(b *builder, o *ast.Ordinality) (string, error)
	jsonPath(b *builder, p ast.JSONPath) (string, error)
	jsonFunc(b *builder, f ast.JSONFunction) (string, error)
	arrayOp(b *builder, op ast.ArrayOperation) (string, error)
	arrayFunc(b *builder, f ast.ArrayFunction) (string, error)
	arraySlice(b *builder, s ast.ArraySlice) (string, error)
}

// builder is the state of one render call. Subqueries share the parent
// builder so markers stay sequential across the whole statement.
type builder struct {
	d      dialectOps
	params *bind.Binder
}

func (b *builder) bind(v any) string {
	if t, ok := v.(ast.Text); ok {
		v = string(t)
	}
	return b.params.Bind(v)
}

func (b *builder) unsupported(feature string) error {
	return querycraft.NewUnsupportedFeatureError(b.d.name(), feature)
}

// ident sanitizes and quotes an identifier or function form.
func (b *builder) ident(name string) (string, error) {
	n, err := sanitize.Identifier(name)
	if err != nil {
		return "", err
	}
	return n.Quote(b.d), nil
}

// idents quotes every name and joins them with ", ".
func (b *builder) idents(names []string) (string, error) {
	out := make([]string, len(names))
	for i, name := range names {
		q, err := b.ident(name)
		if err != nil {
			return "", err
		}
		out[i] = q
	}
	return strings.Join(out, ", "), nil
}

// column is ident that also accepts "*" and "t.*".
func (b *builder) column(name string) (string, error) {
	n, err := sanitize.Column(name)
	if err != nil {
		return "", err
	}
	return n.Quote(b.d), nil
}

// item renders a select-list entry, "expr [AS alias]".
func (b *builder) item(s string) (string, error) {
	expr, alias, ok := sanitize.SplitAlias(s)
	col, err := b.column(expr)
	if err != nil {
		return "", err
	}
	if !ok {
		return col, nil
	}
	return b.as(col, alias)
}

// as appends " AS alias" when alias is set.
func (b *builder) as(expr, alias string) (string, error) {
	if alias == "" {
		return expr, nil
	}
	a, err := b.ident(alias)
	if err != nil {
		return "", err
	}
	return expr + " AS " + a, nil
}

// raw replaces every "?" outside single-quoted text with the marker of
// the next argument. The SQL text itself is emitted unescaped.
func (b *builder) raw(sql string, args []any) (string, error) {
	var (
		sb     strings.Builder
		quoted bool
		n      int
	)
	for _, r := range sql {
		switch {
		case r == '\'':
			quoted = !quoted
			sb.WriteRune(r)
		case r == '?' && !quoted:
			if n >= len(args) {
				return "", querycraft.NewValidationError("", "raw SQL %q has more markers than the %d argument(s) given", sql, len(args))
			}
			sb.WriteString(b.bind(args[n]))
			n++
		default:
			sb.WriteRune(r)
		}
	}
	if n != len(args) {
		return "", querycraft.NewValidationError("", "raw SQL %q expects %d argument(s), got %d", sql, n, len(args))
	}
	return sb.String(), nil
}

// value renders an assignment or operand value. qualified enables the
// dotted-reference heuristic of condition right-hand sides.
func (b *builder) value(v any, qualified bool) (string, error) {
	switch x := v.(type) {
	case ast.Ident:
		return b.ident(string(x))
	case ast.Null:
		return b.bind(nil), nil
	case ast.Excluded:
		return b.d.excluded(b, string(x))
	case ast.Expr:
		return b.raw(x.SQL, x.Args)
	case *ast.Select:
		if x == nil {
			return "", querycraft.NewValidationError("", "subquery must not be nil")
		}
		sub, err := b.selectStmt(x)
		if err != nil {
			return "", err
		}
		return "(" + sub + ")", nil
	case string:
		if qualified && sanitize.LooksQualified(x) {
			return b.ident(x)
		}
	}
	return b.bind(v), nil
}

// assignments renders "col = value, ...".
func (b *builder) assignments(set []ast.Assignment) (string, error) {
	out := make([]string, len(set))
	for i, a := range set {
		col, err := b.ident(a.Column)
		if err != nil {
			return "", err
		}
		v, err := b.value(a.Value, false)
		if err != nil {
			return "", err
		}
		out[i] = col + " = " + v
	}
	return strings.Join(out, ", "), nil
}
