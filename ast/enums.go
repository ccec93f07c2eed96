package ast

import (
	"fmt"
	"strings"
)

// enumNames maps enum values to their SQL spelling. The index is the value.
type enumNames []string

func (n enumNames) name(v uint8) string {
	if int(v) < len(n) {
		return n[v]
	}
	return fmt.Sprintf("%d", v)
}

func (n enumNames) parse(kind, s string) (uint8, error) {
	key := strings.Join(strings.Fields(strings.ToUpper(s)), " ")
	key = strings.ReplaceAll(key, "_", " ")
	for i, name := range n {
		if strings.ReplaceAll(name, "_", " ") == key {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("ast: unknown %s %q", kind, s)
}

// Operator is a comparison operator of a Condition.
type Operator uint8

// Condition operators. The zero value is OpEQ.
const (
	OpEQ Operator = iota
	OpNEQ
	OpNotEqual // <>
	OpLT
	OpLTE
	OpGT
	OpGTE
	OpLike
	OpNotLike
	OpILike
	OpNotILike
	OpIn
	OpNotIn
	OpBetween
	OpNotBetween
	OpIsNull
	OpIsNotNull
	OpExists
	OpNotExists
	OpRaw
	OpSimilarTo
	OpRegexp
	opEnd
)

var operatorNames = enumNames{
	OpEQ:         "=",
	OpNEQ:        "!=",
	OpNotEqual:   "<>",
	OpLT:         "<",
	OpLTE:        "<=",
	OpGT:         ">",
	OpGTE:        ">=",
	OpLike:       "LIKE",
	OpNotLike:    "NOT LIKE",
	OpILike:      "ILIKE",
	OpNotILike:   "NOT ILIKE",
	OpIn:         "IN",
	OpNotIn:      "NOT IN",
	OpBetween:    "BETWEEN",
	OpNotBetween: "NOT BETWEEN",
	OpIsNull:     "IS NULL",
	OpIsNotNull:  "IS NOT NULL",
	OpExists:     "EXISTS",
	OpNotExists:  "NOT EXISTS",
	OpRaw:        "RAW",
	OpSimilarTo:  "SIMILAR TO",
	OpRegexp:     "REGEXP",
}

// String returns the SQL spelling of the operator.
func (o Operator) String() string { return operatorNames.name(uint8(o)) }

// Valid reports whether o is a known operator.
func (o Operator) Valid() bool { return o < opEnd }

// IsLike reports whether o belongs to the LIKE family.
func (o Operator) IsLike() bool {
	return o == OpLike || o == OpNotLike || o == OpILike || o == OpNotILike
}

// IsComparison reports whether o is a scalar comparison such as = or >=.
func (o Operator) IsComparison() bool {
	return o <= OpGTE
}

// IsUnary reports whether o takes no right-hand side.
func (o Operator) IsUnary() bool {
	return o == OpIsNull || o == OpIsNotNull
}

// ParseOperator parses the SQL spelling of an operator (case-insensitive).
func ParseOperator(s string) (Operator, error) {
	switch strings.TrimSpace(s) {
	case "==":
		return OpEQ, nil
	case "~":
		return OpRegexp, nil
	}
	v, err := operatorNames.parse("operator", s)
	return Operator(v), err
}

// MarshalText implements encoding.TextMarshaler.
func (o Operator) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Operator) UnmarshalText(b []byte) (err error) {
	*o, err = ParseOperator(string(b))
	return err
}

// Logical joins a condition to the one before it.
type Logical uint8

// Logical connectives. The zero value is And.
const (
	And Logical = iota
	Or
)

var logicalNames = enumNames{And: "AND", Or: "OR"}

// String returns AND or OR.
func (l Logical) String() string { return logicalNames.name(uint8(l)) }

// Valid reports whether l is And or Or.
func (l Logical) Valid() bool { return l <= Or }

// MarshalText implements encoding.TextMarshaler.
func (l Logical) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Logical) UnmarshalText(b []byte) error {
	v, err := logicalNames.parse("logical operator", string(b))
	*l = Logical(v)
	return err
}

// JoinType is the kind of a Join.
type JoinType uint8

// Join types. The zero value is InnerJoin.
const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
	CrossJoin
	LateralJoin
	joinEnd
)

var joinNames = enumNames{
	InnerJoin:   "INNER",
	LeftJoin:    "LEFT",
	RightJoin:   "RIGHT",
	FullJoin:    "FULL",
	CrossJoin:   "CROSS",
	LateralJoin: "LATERAL",
}

// String returns the SQL keyword of the join type.
func (j JoinType) String() string { return joinNames.name(uint8(j)) }

// Valid reports whether j is a known join type.
func (j JoinType) Valid() bool { return j < joinEnd }

// NeedsOn reports whether the join type requires ON conditions.
func (j JoinType) NeedsOn() bool { return j != CrossJoin && j != LateralJoin }

// MarshalText implements encoding.TextMarshaler.
func (j JoinType) MarshalText() ([]byte, error) { return []byte(j.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. A trailing "JOIN" is accepted.
func (j *JoinType) UnmarshalText(b []byte) error {
	s := strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(string(b))), " JOIN")
	v, err := joinNames.parse("join type", s)
	*j = JoinType(v)
	return err
}

// AggFunc is an aggregate function.
type AggFunc uint8

// Aggregate functions. The zero value is Count.
const (
	Count AggFunc = iota
	Sum
	Avg
	Min
	Max
	Stddev
	Variance
	PercentileCont
	PercentileDisc
	GroupConcat
	StringAgg
	ArrayAgg
	JSONAgg
	aggEnd
)

var aggNames = enumNames{
	Count:          "COUNT",
	Sum:            "SUM",
	Avg:            "AVG",
	Min:            "MIN",
	Max:            "MAX",
	Stddev:         "STDDEV",
	Variance:       "VARIANCE",
	PercentileCont: "PERCENTILE_CONT",
	PercentileDisc: "PERCENTILE_DISC",
	GroupConcat:    "GROUP_CONCAT",
	StringAgg:      "STRING_AGG",
	ArrayAgg:       "ARRAY_AGG",
	JSONAgg:        "JSON_AGG",
}

// String returns the SQL function name.
func (f AggFunc) String() string { return aggNames.name(uint8(f)) }

// Valid reports whether f is a known aggregate function.
func (f AggFunc) Valid() bool { return f < aggEnd }

// IsPercentile reports whether f is PERCENTILE_CONT or PERCENTILE_DISC.
func (f AggFunc) IsPercentile() bool { return f == PercentileCont || f == PercentileDisc }

// MarshalText implements encoding.TextMarshaler.
func (f AggFunc) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *AggFunc) UnmarshalText(b []byte) error {
	v, err := aggNames.parse("aggregate function", string(b))
	*f = AggFunc(v)
	return err
}

// WindowFunc is a window function.
type WindowFunc uint8

// Window functions. The zero value is RowNumber.
const (
	RowNumber WindowFunc = iota
	Rank
	DenseRank
	Lag
	Lead
	FirstValue
	LastValue
	Ntile
	CumeDist
	PercentRank
	NthValue
	windowEnd
)

var windowNames = enumNames{
	RowNumber:   "ROW_NUMBER",
	Rank:        "RANK",
	DenseRank:   "DENSE_RANK",
	Lag:         "LAG",
	Lead:        "LEAD",
	FirstValue:  "FIRST_VALUE",
	LastValue:   "LAST_VALUE",
	Ntile:       "NTILE",
	CumeDist:    "CUME_DIST",
	PercentRank: "PERCENT_RANK",
	NthValue:    "NTH_VALUE",
}

// String returns the SQL function name.
func (f WindowFunc) String() string { return windowNames.name(uint8(f)) }

// Valid reports whether f is a known window function.
func (f WindowFunc) Valid() bool { return f < windowEnd }

// MarshalText implements encoding.TextMarshaler.
func (f WindowFunc) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *WindowFunc) UnmarshalText(b []byte) error {
	v, err := windowNames.parse("window function", string(b))
	*f = WindowFunc(v)
	return err
}

// FrameUnit is the unit of a window frame.
type FrameUnit uint8

// Frame units.
const (
	Rows FrameUnit = iota
	Range
	Groups
)

var frameUnitNames = enumNames{Rows: "ROWS", Range: "RANGE", Groups: "GROUPS"}

// String returns the SQL keyword.
func (u FrameUnit) String() string { return frameUnitNames.name(uint8(u)) }

// Valid reports whether u is a known frame unit.
func (u FrameUnit) Valid() bool { return u <= Groups }

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *FrameUnit) UnmarshalText(b []byte) error {
	v, err := frameUnitNames.parse("frame unit", string(b))
	*u = FrameUnit(v)
	return err
}

// BoundKind is the kind of a frame bound.
type BoundKind uint8

// Frame bound kinds.
const (
	UnboundedPreceding BoundKind = iota
	Preceding
	CurrentRow
	Following
	UnboundedFollowing
)

var boundNames = enumNames{
	UnboundedPreceding: "UNBOUNDED PRECEDING",
	Preceding:          "PRECEDING",
	CurrentRow:         "CURRENT ROW",
	Following:          "FOLLOWING",
	UnboundedFollowing: "UNBOUNDED FOLLOWING",
}

// String returns the SQL keyword(s).
func (k BoundKind) String() string { return boundNames.name(uint8(k)) }

// Valid reports whether k is a known bound kind.
func (k BoundKind) Valid() bool { return k <= UnboundedFollowing }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *BoundKind) UnmarshalText(b []byte) error {
	v, err := boundNames.parse("frame bound", string(b))
	*k = BoundKind(v)
	return err
}

// FrameExclude is the optional EXCLUDE clause of a frame.
type FrameExclude uint8

// Frame exclusions. The zero value renders no EXCLUDE clause.
const (
	ExcludeNone FrameExclude = iota
	ExcludeCurrentRow
	ExcludeGroup
	ExcludeTies
	ExcludeNoOthers
)

var excludeNames = enumNames{
	ExcludeNone:       "",
	ExcludeCurrentRow: "CURRENT ROW",
	ExcludeGroup:      "GROUP",
	ExcludeTies:       "TIES",
	ExcludeNoOthers:   "NO OTHERS",
}

// String returns the SQL keyword(s) following EXCLUDE.
func (e FrameExclude) String() string { return excludeNames.name(uint8(e)) }

// Valid reports whether e is a known exclusion.
func (e FrameExclude) Valid() bool { return e <= ExcludeNoOthers }

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *FrameExclude) UnmarshalText(b []byte) error {
	v, err := excludeNames.parse("frame exclusion", string(b))
	*e = FrameExclude(v)
	return err
}

// SetOpType is the kind of a SetOperation.
// SetOpType combines two queries.
type SetOpType uint8

// Set operations. MINUS is the Oracle spelling of EXCEPT.
const (
	Union SetOpType = iota
	UnionAll
	Intersect
	Except
	Minus
	setOpEnd
)

var setOpNames = enumNames{
	Union:     "UNION",
	UnionAll:  "UNION ALL",
	Intersect: "INTERSECT",
	Except:    "EXCEPT",
	Minus:     "MINUS",
}

// String returns the SQL keyword(s).
func (s SetOpType) String() string { return setOpNames.name(uint8(s)) }

// Valid reports whether s is a known set operation.
func (s SetOpType) Valid() bool { return s < setOpEnd }

// MarshalText implements encoding.TextMarshaler.
func (s SetOpType) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SetOpType) UnmarshalText(b []byte) error {
	v, err := setOpNames.parse("set operation", string(b))
	*s = SetOpType(v)
	return err
}

// NullsOrder positions NULLs in an ORDER BY term.
type NullsOrder uint8

// Null orderings. The zero value leaves the engine default.
const (
	NullsDefault NullsOrder = iota
	NullsFirst
	NullsLast
)

var nullsNames = enumNames{NullsDefault: "", NullsFirst: "FIRST", NullsLast: "LAST"}

// String returns FIRST, LAST or the empty string.
func (n NullsOrder) String() string { return nullsNames.name(uint8(n)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *NullsOrder) UnmarshalText(b []byte) error {
	s := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(string(b))), "NULLS ")
	v, err := nullsNames.parse("nulls order", s)
	*n = NullsOrder(v)
	return err
}

// ConflictAction is the action of an ON CONFLICT clause.
type ConflictAction uint8

// Conflict actions.
const (
	DoNothing ConflictAction = iota
	DoUpdate
)

var conflictNames = enumNames{DoNothing: "DO_NOTHING", DoUpdate: "DO_UPDATE"}

// String returns DO_NOTHING or DO_UPDATE.
func (a ConflictAction) String() string { return conflictNames.name(uint8(a)) }

// Valid reports whether a is a known action.
func (a ConflictAction) Valid() bool { return a <= DoUpdate }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *ConflictAction) UnmarshalText(b []byte) error {
	v, err := conflictNames.parse("conflict action", string(b))
	*a = ConflictAction(v)
	return err
}

// JSONOp selects how a JSONPath projection extracts its value.
type JSONOp uint8

// JSON path operators.
const (
	JSONExtract     JSONOp = iota // JSON value (-> in postgres)
	JSONExtractText               // text value (->> in postgres)
)

var jsonOpNames = enumNames{JSONExtract: "EXTRACT", JSONExtractText: "EXTRACT_TEXT"}

// String returns the operator name.
func (o JSONOp) String() string { return jsonOpNames.name(uint8(o)) }

// Valid reports whether o is a known JSON operator.
func (o JSONOp) Valid() bool { return o <= JSONExtractText }

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *JSONOp) UnmarshalText(b []byte) error {
	switch strings.TrimSpace(string(b)) {
	case "->":
		*o = JSONExtract
		return nil
	case "->>":
		*o = JSONExtractText
		return nil
	}
	v, err := jsonOpNames.parse("json operator", string(b))
	*o = JSONOp(v)
	return err
}

// JSONFunc is a JSON function applied to a column.
type JSONFunc uint8

// JSON functions.
const (
	JSONArrayLength JSONFunc = iota
	JSONTypeOf
	JSONKeys
	JSONContains
	JSONValid
	jsonFuncEnd
)

var jsonFuncNames = enumNames{
	JSONArrayLength: "JSON_ARRAY_LENGTH",
	JSONTypeOf:      "JSON_TYPEOF",
	JSONKeys:        "JSON_KEYS",
	JSONContains:    "JSON_CONTAINS",
	JSONValid:       "JSON_VALID",
}

// String returns the logical function name.
func (f JSONFunc) String() string { return jsonFuncNames.name(uint8(f)) }

// Valid reports whether f is a known JSON function.
func (f JSONFunc) Valid() bool { return f < jsonFuncEnd }

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *JSONFunc) UnmarshalText(b []byte) error {
	v, err := jsonFuncNames.parse("json function", string(b))
	*f = JSONFunc(v)
	return err
}

// ArrayOp is an array predicate operator.
type ArrayOp uint8

// Array operators.
const (
	ArrayContains    ArrayOp = iota // @>
	ArrayContainedBy                // <@
	ArrayOverlaps                   // &&
	ArrayAny                        // value = ANY(column)
	arrayOpEnd
)

var arrayOpNames = enumNames{
	ArrayContains:    "CONTAINS",
	ArrayContainedBy: "CONTAINED_BY",
	ArrayOverlaps:    "OVERLAPS",
	ArrayAny:         "ANY",
}

// String returns the operator name.
func (o ArrayOp) String() string { return arrayOpNames.name(uint8(o)) }

// Valid reports whether o is a known array operator.
func (o ArrayOp) Valid() bool { return o < arrayOpEnd }

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *ArrayOp) UnmarshalText(b []byte) error {
	switch strings.TrimSpace(string(b)) {
	case "@>":
		*o = ArrayContains
		return nil
	case "<@":
		*o = ArrayContainedBy
		return nil
	case "&&":
		*o = ArrayOverlaps
		return nil
	}
	v, err := arrayOpNames.parse("array operator", string(b))
	*o = ArrayOp(v)
	return err
}

// ArrayFunc is an array function applied to a column.
type ArrayFunc uint8

// Array functions.
const (
	ArrayLength ArrayFunc = iota
	Cardinality
	Unnest
	ArrayAppend
	ArrayRemove
	ArrayPosition
	ArrayToString
	arrayFuncEnd
)

var arrayFuncNames = enumNames{
	ArrayLength:   "ARRAY_LENGTH",
	Cardinality:   "CARDINALITY",
	Unnest:        "UNNEST",
	ArrayAppend:   "ARRAY_APPEND",
	ArrayRemove:   "ARRAY_REMOVE",
	ArrayPosition: "ARRAY_POSITION",
	ArrayToString: "ARRAY_TO_STRING",
}

// String returns the SQL function name.
func (f ArrayFunc) String() string { return arrayFuncNames.name(uint8(f)) }

// Valid reports whether f is a known array function.
func (f ArrayFunc) Valid() bool { return f < arrayFuncEnd }

// TakesValue reports whether the function needs a Value argument.
func (f ArrayFunc) TakesValue() bool {
	return f == ArrayAppend || f == ArrayRemove || f == ArrayPosition || f == ArrayToString
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *ArrayFunc) UnmarshalText(b []byte) error {
	v, err := arrayFuncNames.parse("array function", string(b))
	*f = ArrayFunc(v)
	return err
}
