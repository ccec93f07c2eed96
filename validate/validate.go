// Package validate checks the structure of a statement before rendering.
//
// Statement returns the first defect; Check collects every defect:
//
//	result := validate.Check(stmt)
//	if result.HasErrors() {
//	    log.Fatal(result)
//	}
package validate

import (
	"reflect"
	"slices"
	"strings"

	"github.com/syssam/querycraft"
	"github.com/syssam/querycraft/ast"
	"github.com/syssam/querycraft/sanitize"
)

// Result holds the findings of a validation pass.
type Result struct {
	Errors   []*querycraft.ValidationError
	Warnings []*querycraft.ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Err returns the first error, or nil.
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}

// String returns a human-readable summary of the validation result.
func (r *Result) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Message)
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Message)
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// Option configures validation.
type Option func(*config)

type config struct {
	requireUpdateWhere bool
}

// RequireUpdateWhere turns an UPDATE without WHERE conditions into an
// error. By default it is reported as a warning.
func RequireUpdateWhere() Option {
	return func(c *config) {
		c.requireUpdateWhere = true
	}
}

// Statement validates stmt and returns the first error found.
func Statement(stmt ast.Statement, opts ...Option) error {
	return Check(stmt, opts...).Err()
}

// Check validates stmt and reports every error and warning.
func Check(stmt ast.Statement, opts ...Option) *Result {
	v := &validator{res: &Result{}}
	for _, opt := range opts {
		opt(&v.cfg)
	}
	switch s := stmt.(type) {
	case *ast.Select:
		v.selectStmt(ast.KindSelect, s)
	case *ast.Insert:
		v.insert(s)
	case *ast.Update:
		v.update(s)
	case *ast.Delete:
		v.delete(s)
	case *ast.Merge:
		v.merge(s)
	default:
		v.errorf("", "statement must be a non-nil *Select, *Insert, *Update, *Delete or *Merge")
	}
	return v.res
}

type validator struct {
	cfg config
	res *Result
}

func (v *validator) errorf(kind, format string, args ...any) {
	v.res.Errors = append(v.res.Errors, querycraft.NewValidationError(kind, format, args...))
}

func (v *validator) warnf(kind, format string, args ...any) {
	v.res.Warnings = append(v.res.Warnings, querycraft.NewValidationError(kind, format, args...))
}

func (v *validator) selectStmt(kind string, s *ast.Select) {
	if s == nil {
		v.errorf(kind, "SELECT query must not be nil")
		return
	}
	for _, cte := range s.With {
		v.cte(kind, cte)
	}
	for _, c := range s.Columns {
		v.column(kind, c)
	}
	for _, a := range s.Aggregations {
		v.aggregation(kind, a)
	}
	for _, w := range s.Windows {
		v.window(kind, w)
	}
	for _, c := range s.Conditionals {
		v.conditional(kind, c)
	}
	v.extensions(kind, s)
	if s.From == nil {
		v.errorf(kind, "SELECT query must have a FROM clause")
	} else {
		v.source(kind, "FROM", s.From)
	}
	for _, j := range s.Joins {
		v.join(kind, j)
	}
	v.conditions(kind, "WHERE", s.Where)
	for _, op := range s.ArrayOps {
		v.identifier(kind, "array operation column", op.Column)
		if !op.Op.Valid() {
			v.errorf(kind, "unknown array operator %d", op.Op)
		}
		if op.Value == nil {
			v.errorf(kind, "array operation on %q must have a value", op.Column)
		}
	}
	for _, g := range s.GroupBy {
		v.identifier(kind, "GROUP BY column", g)
	}
	v.conditions(kind, "HAVING", s.Having)
	v.orderBy(kind, s.OrderBy)
	for _, op := range s.SetOps {
		if !op.Type.Valid() {
			v.errorf(kind, "unknown set operation %d", op.Type)
		}
		if op.Query == nil {
			v.errorf(kind, "%s requires a query", op.Type)
			continue
		}
		v.selectStmt(kind, op.Query)
	}
}

func (v *validator) cte(kind string, c ast.CTE) {
	if !sanitize.ValidateIdentifier(c.Name) || strings.Contains(c.Name, ".") {
		v.errorf(kind, "invalid CTE name %q", c.Name)
	}
	for _, col := range c.Columns {
		v.identifier(kind, "CTE column", col)
	}
	if c.Query == nil {
		v.errorf(kind, "CTE %q must have a query", c.Name)
		return
	}
	v.selectStmt(kind, c.Query)
}

func (v *validator) column(kind, c string) {
	if c == "" {
		v.errorf(kind, "column names must be non-empty strings")
		return
	}
	expr, alias, ok := sanitize.SplitAlias(c)
	if !ok {
		if !sanitize.ValidateColumn(c) {
			v.errorf(kind, "invalid column %q", c)
		}
		return
	}
	if !sanitize.ValidateColumn(expr) || !bare(alias) {
		v.errorf(kind, "invalid column alias %q", c)
	}
}

func (v *validator) alias(kind, alias string) {
	if alias != "" && !bare(alias) {
		v.errorf(kind, "invalid alias %q", alias)
	}
}

func (v *validator) identifier(kind, what, name string) {
	if name == "" {
		v.errorf(kind, "%s must not be empty", what)
		return
	}
	if !sanitize.ValidateIdentifier(name) {
		v.errorf(kind, "invalid %s %q", what, name)
	}
}

func (v *validator) source(kind, clause string, src ast.Source) {
	switch s := src.(type) {
	case ast.Table:
		if s.Name == "" {
			v.errorf(kind, "%s table must not be empty", clause)
			return
		}
		v.identifier(kind, clause+" table", s.Name)
		v.alias(kind, s.Alias)
	case ast.Subquery:
		if s.Alias == "" {
			v.errorf(kind, "subquery in %s requires an alias", clause)
		}
		v.alias(kind, s.Alias)
		v.selectStmt(kind, s.Query)
	default:
		v.errorf(kind, "%s source must be a table or a subquery", clause)
	}
}

func (v *validator) join(kind string, j ast.Join) {
	if !j.Type.Valid() {
		v.errorf(kind, "unknown join type %d", j.Type)
		return
	}
	if j.Table == nil {
		v.errorf(kind, "%s JOIN must name a table", j.Type)
		return
	}
	v.source(kind, j.Type.String()+" JOIN", j.Table)
	if j.Type.NeedsOn() && len(j.On) == 0 {
		v.errorf(kind, "%s JOIN requires at least one ON condition", j.Type)
	}
	v.conditions(kind, "ON", j.On)
}

func (v *validator) conditions(kind, clause string, conds []ast.Condition) {
	for _, c := range conds {
		v.condition(kind, clause, c)
	}
}

func (v *validator) condition(kind, clause string, c ast.Condition) {
	if !c.Operator.Valid() {
		v.errorf(kind, "unknown operator %d in %s condition", c.Operator, clause)
		return
	}
	if !c.Logical.Valid() {
		v.errorf(kind, "unknown logical operator %d in %s condition", c.Logical, clause)
	}
	switch c.Operator {
	case ast.OpRaw:
		if strings.TrimSpace(c.Column) == "" {
			v.errorf(kind, "RAW %s condition requires SQL text", clause)
		}
		if c.Value != nil {
			if _, ok := c.Value.([]any); !ok {
				v.errorf(kind, "RAW %s condition parameters must be a []any", clause)
			}
		}
		return
	case ast.OpExists, ast.OpNotExists:
		sub, ok := c.Value.(*ast.Select)
		if !ok || sub == nil {
			v.errorf(kind, "%s requires a subquery value", c.Operator)
			return
		}
		v.selectStmt(kind, sub)
		return
	}
	if c.Column == "" {
		v.errorf(kind, "%s condition must have a column", clause)
		return
	}
	v.identifier(kind, clause+" column", c.Column)
	if c.Operator.IsUnary() {
		return
	}
	if c.Value == nil {
		v.errorf(kind, "%s condition on %q must have a value", clause, c.Column)
		return
	}
	if sub, ok := c.Value.(*ast.Select); ok {
		if !c.Operator.IsComparison() && c.Operator != ast.OpIn && c.Operator != ast.OpNotIn {
			v.errorf(kind, "%s on %q does not accept a subquery value", c.Operator, c.Column)
			return
		}
		v.selectStmt(kind, sub)
		return
	}
	switch c.Operator {
	case ast.OpBetween, ast.OpNotBetween:
		if n, ok := listLen(c.Value); !ok || n != 2 {
			v.errorf(kind, "%s on %q requires exactly two values", c.Operator, c.Column)
		}
	case ast.OpIn, ast.OpNotIn:
		if n, ok := listLen(c.Value); !ok || n == 0 {
			v.errorf(kind, "%s on %q requires a non-empty list or a subquery", c.Operator, c.Column)
		}
	}
}

func (v *validator) aggregation(kind string, a ast.Aggregation) {
	if !a.Func.Valid() {
		v.errorf(kind, "unknown aggregate function %d", a.Func)
		return
	}
	if a.Column != "*" {
		v.identifier(kind, a.Func.String()+" column", a.Column)
	}
	v.alias(kind, a.Alias)
	v.orderBy(kind, a.OrderBy)
	if a.Percentile != nil {
		if !a.Func.IsPercentile() {
			v.errorf(kind, "percentile is only valid for PERCENTILE_CONT and PERCENTILE_DISC")
		} else if p := *a.Percentile; !(p >= 0 && p <= 1) {
			v.errorf(kind, "%s percentile must be between 0 and 1, got %v", a.Func, p)
		}
	}
	if a.Separator != "" && a.Func != ast.GroupConcat && a.Func != ast.StringAgg {
		v.errorf(kind, "separator is only valid for GROUP_CONCAT and STRING_AGG")
	}
}

func (v *validator) window(kind string, w ast.WindowFunction) {
	if !w.Func.Valid() {
		v.errorf(kind, "unknown window function %d", w.Func)
		return
	}
	for _, arg := range w.Args {
		if s, ok := arg.(string); ok {
			v.identifier(kind, w.Func.String()+" argument", s)
		}
	}
	switch w.Func {
	case ast.Ntile:
		if n, ok := intArg(w.Args, 0); !ok || n <= 0 {
			v.errorf(kind, "NTILE bucket count must be > 0")
		}
	case ast.Lag, ast.Lead, ast.FirstValue, ast.LastValue:
		if len(w.Args) == 0 {
			v.errorf(kind, "%s requires a column argument", w.Func)
		}
	case ast.NthValue:
		if n, ok := intArg(w.Args, 1); len(w.Args) < 2 || !ok || n <= 0 {
			v.errorf(kind, "NTH_VALUE requires a column and a position > 0")
		}
	}
	v.alias(kind, w.Alias)
	for _, p := range w.Over.PartitionBy {
		v.identifier(kind, "PARTITION BY column", p)
	}
	v.orderBy(kind, w.Over.OrderBy)
	if f := w.Over.Frame; f != nil {
		if !f.Unit.Valid() || !f.Exclude.Valid() {
			v.errorf(kind, "invalid window frame")
		}
		v.bound(kind, f.Start)
		if f.Start.Kind == ast.UnboundedFollowing {
			v.errorf(kind, "window frame cannot start at UNBOUNDED FOLLOWING")
		}
		if f.End != nil {
			v.bound(kind, *f.End)
			if f.End.Kind == ast.UnboundedPreceding {
				v.errorf(kind, "window frame cannot end at UNBOUNDED PRECEDING")
			}
		}
	}
}

func (v *validator) bound(kind string, b ast.FrameBound) {
	if !b.Kind.Valid() {
		v.errorf(kind, "unknown frame bound %d", b.Kind)
	}
	if b.Offset < 0 {
		v.errorf(kind, "frame offset must not be negative")
	}
}

func (v *validator) conditional(kind string, c ast.Conditional) {
	switch c := c.(type) {
	case ast.Case:
		if len(c.Whens) == 0 {
			v.errorf(kind, "CASE expression requires at least one WHEN clause")
		}
		for _, w := range c.Whens {
			if strings.TrimSpace(w.Cond) == "" {
				v.errorf(kind, "CASE WHEN condition must not be empty")
			}
			if w.Then == nil {
				v.errorf(kind, "CASE THEN value must not be null")
			}
			v.operand(kind, w.Then)
		}
		v.operand(kind, c.Else)
		v.alias(kind, c.Alias)
	case ast.Coalesce:
		if len(c.Columns) == 0 {
			v.errorf(kind, "COALESCE requires at least one column")
		}
		for _, col := range c.Columns {
			v.identifier(kind, "COALESCE column", col)
		}
		v.alias(kind, c.Alias)
	case ast.NullIf:
		if c.Col1 == "" || c.Col2 == "" {
			v.errorf(kind, "NULLIF requires two columns")
			return
		}
		v.identifier(kind, "NULLIF column", c.Col1)
		v.identifier(kind, "NULLIF column", c.Col2)
		v.alias(kind, c.Alias)
	default:
		v.errorf(kind, "conditional expression must be Case, Coalesce or NullIf")
	}
}

func (v *validator) extensions(kind string, s *ast.Select) {
	for _, p := range s.JSONPaths {
		v.identifier(kind, "JSON column", p.Column)
		if len(p.Path) == 0 {
			v.errorf(kind, "JSON path on %q must not be empty", p.Column)
		}
		if !p.Op.Valid() {
			v.errorf(kind, "unknown JSON operator %d", p.Op)
		}
		v.alias(kind, p.Alias)
	}
	for _, f := range s.JSONFuncs {
		if !f.Func.Valid() {
			v.errorf(kind, "unknown JSON function %d", f.Func)
			continue
		}
		v.identifier(kind, "JSON column", f.Column)
		if f.Func == ast.JSONContains && f.Value == nil {
			v.errorf(kind, "JSON_CONTAINS on %q must have a value", f.Column)
		}
		v.alias(kind, f.Alias)
	}
	for _, f := range s.ArrayFuncs {
		if !f.Func.Valid() {
			v.errorf(kind, "unknown array function %d", f.Func)
			continue
		}
		v.identifier(kind, "array column", f.Column)
		if f.Func.TakesValue() && f.Value == nil {
			v.errorf(kind, "%s on %q must have a value", f.Func, f.Column)
		}
		v.alias(kind, f.Alias)
	}
	for _, sl := range s.ArraySlices {
		v.identifier(kind, "array column", sl.Column)
		if sl.Start != nil && sl.End != nil && *sl.Start > *sl.End {
			v.errorf(kind, "array slice start must not exceed its end")
		}
		v.alias(kind, sl.Alias)
	}
	if p := s.Pivot; p != nil {
		v.identifier(kind, "PIVOT column", p.Column)
		if len(p.Values) == 0 {
			v.errorf(kind, "PIVOT requires at least one value")
		}
		v.aggregation(kind, p.Aggregate)
	}
	if u := s.Unpivot; u != nil {
		if len(u.Columns) == 0 {
			v.errorf(kind, "UNPIVOT requires at least one column")
		}
		for _, c := range u.Columns {
			v.identifier(kind, "UNPIVOT column", c)
		}
		v.identifier(kind, "UNPIVOT value column", u.ValueColumn)
		v.identifier(kind, "UNPIVOT name column", u.NameColumn)
	}
	if o := s.Ordinality; o != nil {
		v.identifier(kind, "ORDINALITY column", o.Column)
		v.identifier(kind, "ORDINALITY value column", o.ValueColumn)
		v.identifier(kind, "ORDINALITY column name", o.OrdinalityColumn)
		v.alias(kind, o.Alias)
	}
}

func (v *validator) orderBy(kind string, terms []ast.OrderBy) {
	for _, o := range terms {
		v.identifier(kind, "ORDER BY column", o.Column)
	}
}

func (v *validator) insert(s *ast.Insert) {
	const kind = ast.KindInsert
	if s == nil {
		v.errorf(kind, "INSERT query must not be nil")
		return
	}
	if s.Into == "" {
		v.errorf(kind, "INSERT query must have a target table")
	} else {
		v.identifier(kind, "INSERT table", s.Into)
	}
	if len(s.Rows) == 0 || len(s.Rows[0]) == 0 {
		v.errorf(kind, "INSERT query must have values")
	} else {
		cols := s.Rows[0].Columns()
		for _, c := range cols {
			v.identifier(kind, "INSERT column", c)
		}
		for i, row := range s.Rows[1:] {
			if !slices.Equal(cols, row.Columns()) {
				v.errorf(kind, "INSERT row %d must have the same columns as the first row", i+2)
			}
		}
		for _, row := range s.Rows {
			v.values(kind, row)
		}
	}
	if oc := s.OnConflict; oc != nil {
		if len(oc.Target) == 0 {
			v.errorf(kind, "ON CONFLICT requires target columns")
		}
		for _, c := range oc.Target {
			v.identifier(kind, "ON CONFLICT column", c)
		}
		if !oc.Action.Valid() {
			v.errorf(kind, "unknown ON CONFLICT action %d", oc.Action)
		}
		if oc.Action == ast.DoUpdate && len(oc.Update) == 0 {
			v.errorf(kind, "ON CONFLICT DO_UPDATE requires an update payload")
		}
		v.assignments(kind, oc.Update)
	}
	v.returning(kind, s.Returning)
}

func (v *validator) update(s *ast.Update) {
	const kind = ast.KindUpdate
	if s == nil {
		v.errorf(kind, "UPDATE query must not be nil")
		return
	}
	if s.Table == "" {
		v.errorf(kind, "UPDATE query must have a target table")
	} else {
		v.identifier(kind, "UPDATE table", s.Table)
	}
	if len(s.Set) == 0 {
		v.errorf(kind, "UPDATE query must have SET values")
	}
	v.assignments(kind, s.Set)
	v.conditions(kind, "WHERE", s.Where)
	if len(s.Where) == 0 {
		if v.cfg.requireUpdateWhere {
			v.errorf(kind, "UPDATE query must have WHERE conditions")
		} else {
			v.warnf(kind, "UPDATE query without WHERE conditions updates every row")
		}
	}
	v.returning(kind, s.Returning)
}

func (v *validator) delete(s *ast.Delete) {
	const kind = ast.KindDelete
	if s == nil {
		v.errorf(kind, "DELETE query must not be nil")
		return
	}
	if s.From == "" {
		v.errorf(kind, "DELETE query must have a target table")
	} else {
		v.identifier(kind, "DELETE table", s.From)
	}
	if len(s.Where) == 0 {
		v.errorf(kind, "DELETE query must have WHERE conditions")
	}
	v.conditions(kind, "WHERE", s.Where)
	v.returning(kind, s.Returning)
}

func (v *validator) merge(s *ast.Merge) {
	const kind = ast.KindMerge
	if s == nil {
		v.errorf(kind, "MERGE query must not be nil")
		return
	}
	if s.Into == "" {
		v.errorf(kind, "MERGE query must have an INTO table")
	} else {
		v.identifier(kind, "MERGE table", s.Into)
	}
	v.alias(kind, s.Alias)
	if s.Using == nil {
		v.errorf(kind, "MERGE query must have a USING source")
	} else {
		v.source(kind, "USING", s.Using)
	}
	if len(s.On) == 0 {
		v.errorf(kind, "MERGE query must have ON conditions")
	}
	v.conditions(kind, "ON", s.On)
	if s.WhenMatched == nil && s.WhenNotMatched == nil {
		v.errorf(kind, "MERGE query must have WHEN MATCHED or WHEN NOT MATCHED")
	}
	if m := s.WhenMatched; m != nil {
		if !m.Delete && len(m.Set) == 0 {
			v.errorf(kind, "WHEN MATCHED requires SET values or DELETE")
		}
		v.assignments(kind, m.Set)
	}
	if n := s.WhenNotMatched; n != nil {
		if len(n.Values) == 0 {
			v.errorf(kind, "WHEN NOT MATCHED requires INSERT values")
		}
		v.assignments(kind, n.Values)
	}
}

func (v *validator) assignments(kind string, as []ast.Assignment) {
	for _, a := range as {
		v.identifier(kind, kind+" column", a.Column)
	}
	v.values(kind, as)
}

func (v *validator) values(kind string, as []ast.Assignment) {
	for _, a := range as {
		v.operand(kind, a.Value)
	}
}

// operand validates a value that renders as a subquery.
func (v *validator) operand(kind string, val any) {
	if sub, ok := val.(*ast.Select); ok {
		v.selectStmt(kind, sub)
	}
}

func (v *validator) returning(kind string, cols []string) {
	for _, c := range cols {
		if !sanitize.ValidateColumn(c) {
			v.errorf(kind, "invalid RETURNING column %q", c)
		}
	}
}

// bare reports whether s is a single undotted identifier.
func bare(s string) bool {
	return !strings.ContainsAny(s, ".()") && sanitize.ValidateIdentifier(s)
}

func listLen(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return 0, false
	}
	if _, ok := v.([]byte); ok {
		return 0, false
	}
	return rv.Len(), true
}

func intArg(args []any, i int) (int64, bool) {
	if i >= len(args) {
		return 0, false
	}
	rv := reflect.ValueOf(args[i])
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	}
	return 0, false
}
