package ast

// Statement is one of *Select, *Insert, *Update, *Delete or *Merge.
type Statement interface {
	// Kind returns the SQL verb of the statement.
	Kind() string
	statement()
}

// Statement kinds returned by Statement.Kind.
const (
	KindSelect = "SELECT"
	KindInsert = "INSERT"
	KindUpdate = "UPDATE"
	KindDelete = "DELETE"
	KindMerge  = "MERGE"
)

// Select is a SELECT statement. Clauses render in the order:
// WITH, select list, FROM, JOIN, WHERE, GROUP BY, HAVING, ORDER BY,
// LIMIT, OFFSET, set operations.
type Select struct {
	With     []CTE
	Distinct bool

	// Columns are plain select-list entries: "id", "u.id", "*", "u.*",
	// "name AS n" or a function form such as "COUNT(*) AS total".
	Columns      []string
	Aggregations []Aggregation
	Windows      []WindowFunction
	Conditionals []Conditional
	JSONPaths    []JSONPath
	JSONFuncs    []JSONFunction
	ArrayFuncs   []ArrayFunction
	ArraySlices  []ArraySlice

	From  Source
	Joins []Join

	Where []Condition
	// ArrayOps are appended to the WHERE clause with AND.
	ArrayOps []ArrayOperation

	GroupBy []string
	Having  []Condition
	OrderBy []OrderBy

	// Limit and Offset are omitted when nil or negative.
	Limit  *int
	Offset *int

	SetOps []SetOperation

	Pivot      *Pivot
	Unpivot    *Unpivot
	Ordinality *Ordinality
}

// Insert is an INSERT statement. The column order of the first row is the
// column order of the rendered statement.
type Insert struct {
	Into       string
	Rows       []Row
	OnConflict *OnConflict
	Returning  []string
}

// Update is an UPDATE statement. An empty Where updates every row.
type Update struct {
	Table     string
	Set       []Assignment
	Where     []Condition
	Returning []string
}

// Delete is a DELETE statement. Where must not be empty.
type Delete struct {
	From      string
	Where     []Condition
	Returning []string
}

// Merge is a MERGE statement.
type Merge struct {
	Into           string
	Alias          string
	Using          Source
	On             []Condition
	WhenMatched    *MergeMatched
	WhenNotMatched *MergeNotMatched
}

// MergeMatched is the WHEN MATCHED branch of a MERGE.
type MergeMatched struct {
	Delete bool         // DELETE instead of UPDATE
	Set    []Assignment // UPDATE SET payload
}

// MergeNotMatched is the WHEN NOT MATCHED branch of a MERGE.
type MergeNotMatched struct {
	Values Row
}

func (*Select) Kind() string { return KindSelect }
func (*Insert) Kind() string { return KindInsert }
func (*Update) Kind() string { return KindUpdate }
func (*Delete) Kind() string { return KindDelete }
func (*Merge) Kind() string  { return KindMerge }

func (*Select) statement() {}
func (*Insert) statement() {}
func (*Update) statement() {}
func (*Delete) statement() {}
func (*Merge) statement()  {}

// Assignment pairs a column with a value.
type Assignment struct {
	Column string
	Value  any
}

// Row is an ordered list of column values.
type Row []Assignment

// Columns returns the column names of the row in order.
func (r Row) Columns() []string {
	cols := make([]string, len(r))
	for i, a := range r {
		cols[i] = a.Column
	}
	return cols
}

// Values returns the row values in order.
func (r Row) Values() []any {
	vs := make([]any, len(r))
	for i, a := range r {
		vs[i] = a.Value
	}
	return vs
}

// OnConflict is the upsert clause of an INSERT.
type OnConflict struct {
	Target []string
	Action ConflictAction
	Update []Assignment
}

// Source is a FROM, JOIN or USING target: Table or Subquery.
type Source interface {
	source()
}

// Table is a named table with an optional alias.
type Table struct {
	Name  string
	Alias string
}

// Subquery is a nested SELECT used as a table. Alias is required.
type Subquery struct {
	Query *Select
	Alias string
}

func (Table) source()    {}
func (Subquery) source() {}

// Join is a JOIN clause.
type Join struct {
	Type  JoinType
	Table Source
	On    []Condition
}

// OrderBy is one ORDER BY term.
type OrderBy struct {
	Column string
	Desc   bool
	Nulls  NullsOrder
}

// CTE is a common table expression of a WITH clause.
type CTE struct {
	Name      string
	Columns   []string
	Query     *Select
	Recursive bool
}

// SetOperation combines the enclosing SELECT with Query.
type SetOperation struct {
	Type  SetOpType
	Query *Select
}

// Int returns a pointer to n, for Limit and Offset.
func Int(n int) *int { return &n }

// Float returns a pointer to f, for Aggregation.Percentile.
func Float(f float64) *float64 { return &f }
