package ast

// Condition is one predicate of a WHERE, HAVING, JOIN or MERGE ON list.
//
// For OpRaw, Column holds literal SQL text with "?" markers and Value holds
// the ordered parameter list ([]any). For OpExists and OpNotExists, Value is
// a *Select and Column is ignored.
//
// A string Value shaped like a qualified column reference ("t.col") renders
// as an identifier instead of a parameter. Wrap it in Text when the text is
// data.
type Condition struct {
	Column   string
	Operator Operator
	Value    any
	Logical  Logical // ignored for the first condition of a list
}

// Ident is a value that renders as an escaped column reference.
type Ident string

// Null is a value that binds SQL NULL. A nil Value is treated as missing.
type Null struct{}

// Text is a string value that always binds as a parameter, even when it is
// shaped like a qualified column reference.
type Text string

// Pattern is a LIKE pattern whose wildcards are kept. Plain string values
// of LIKE conditions have %, _ and \ escaped before binding.
type Pattern string

// Excluded refers to the proposed row of an ON CONFLICT update
// (EXCLUDED.col, or VALUES(col) on mysql).
type Excluded string

// Expr is a raw SQL fragment used as a value. Every "?" outside quotes is
// replaced by the next bound argument.
type Expr struct {
	SQL  string
	Args []any
}

// Raw returns a RAW condition.
func Raw(sql string, args ...any) Condition {
	return Condition{Column: sql, Operator: OpRaw, Value: args}
}

// Aggregation is an aggregate projection of the select list.
type Aggregation struct {
	Func     AggFunc
	Column   string // "*" is rendered verbatim
	Alias    string
	Distinct bool
	OrderBy  []OrderBy
	// Separator applies to GROUP_CONCAT and STRING_AGG.
	Separator string
	// Percentile applies to PERCENTILE_CONT and PERCENTILE_DISC; 0.5 when nil.
	Percentile *float64
}

// WindowFunction is a window function projection.
//
// String arguments render as column references, integer and float
// arguments as numeric literals; anything else is bound.
type WindowFunction struct {
	Func  WindowFunc
	Args  []any
	Over  Window
	Alias string
}

// Window is the OVER clause of a window function.
type Window struct {
	PartitionBy []string
	OrderBy     []OrderBy
	Frame       *Frame
}

// Frame is a window frame clause.
type Frame struct {
	Unit    FrameUnit
	Start   FrameBound
	End     *FrameBound // BETWEEN Start AND End when set
	Exclude FrameExclude
}

// FrameBound is a frame start or end bound. Offset applies to Preceding
// and Following.
type FrameBound struct {
	Kind   BoundKind
	Offset int
}

// Conditional is one of Case, Coalesce or NullIf.
type Conditional interface {
	conditional()
}

// Case is a searched CASE expression.
type Case struct {
	Whens []When
	Else  any
	Alias string
}

// When is one WHEN branch of a Case. Cond is SQL text with "?" markers
// bound from Args; Then is bound unless it is an Ident or Expr.
type When struct {
	Cond string
	Args []any
	Then any
}

// Coalesce is COALESCE(col1, col2, ...).
type Coalesce struct {
	Columns []string
	Alias   string
}

// NullIf is NULLIF(col1, col2).
type NullIf struct {
	Col1  string
	Col2  string
	Alias string
}

func (Case) conditional()     {}
func (Coalesce) conditional() {}
func (NullIf) conditional()   {}
