package ast

// Dialect-gated constructs. Renderers that do not implement one of these
// fail with an unsupported feature error.

// Pivot turns the distinct Values of Column into one aggregated projection
// each, named after the value.
type Pivot struct {
	Column    string
	Values    []any
	Aggregate Aggregation
}

// Unpivot turns Columns into (NameColumn, ValueColumn) rows.
type Unpivot struct {
	Columns     []string
	ValueColumn string
	NameColumn  string
}

// Ordinality expands the array Column into rows numbered from 1.
type Ordinality struct {
	Column           string
	ValueColumn      string
	OrdinalityColumn string
	Alias            string
}

// JSONPath extracts the element at Path from the JSON Column.
// Numeric path segments address array elements.
type JSONPath struct {
	Column string
	Path   []string
	Op     JSONOp
	Alias  string
}

// JSONFunction applies a JSON function to Column. Value is the operand of
// JSON_CONTAINS.
type JSONFunction struct {
	Func   JSONFunc
	Column string
	Value  any
	Alias  string
}

// ArrayOperation is an array predicate appended to WHERE.
type ArrayOperation struct {
	Column string
	Op     ArrayOp
	Value  any
}

// ArrayFunction applies an array function to Column.
type ArrayFunction struct {
	Func   ArrayFunc
	Column string
	Value  any
	Alias  string
}

// ArraySlice is Column[Start:End]; a nil bound is left open.
type ArraySlice struct {
	Column string
	Start  *int
	End    *int
	Alias  string
}
