package ast

import "strings"

// Field is a typed column name whose methods build Conditions.
//
// Usage:
//
//	var Age = ast.Field[int]("age")
//	sel.Where = append(sel.Where, Age.GTE(18), Age.LT(65))
type Field[T any] string

// Name returns the column name.
func (f Field[T]) Name() string { return string(f) }

// EQ returns a condition that checks if the column equals v.
func (f Field[T]) EQ(v T) Condition { return f.cond(OpEQ, v) }

// NEQ returns a condition that checks if the column does not equal v.
func (f Field[T]) NEQ(v T) Condition { return f.cond(OpNEQ, v) }

// GT returns a condition that checks if the column is greater than v.
func (f Field[T]) GT(v T) Condition { return f.cond(OpGT, v) }

// GTE returns a condition that checks if the column is greater than or equal to v.
func (f Field[T]) GTE(v T) Condition { return f.cond(OpGTE, v) }

// LT returns a condition that checks if the column is less than v.
func (f Field[T]) LT(v T) Condition { return f.cond(OpLT, v) }

// LTE returns a condition that checks if the column is less than or equal to v.
func (f Field[T]) LTE(v T) Condition { return f.cond(OpLTE, v) }

// In returns a condition that checks if the column value is in vs.
func (f Field[T]) In(vs ...T) Condition { return f.cond(OpIn, toAny(vs)) }

// NotIn returns a condition that checks if the column value is not in vs.
func (f Field[T]) NotIn(vs ...T) Condition { return f.cond(OpNotIn, toAny(vs)) }

// Between returns a condition that checks if the column lies in [lo, hi].
func (f Field[T]) Between(lo, hi T) Condition { return f.cond(OpBetween, []any{lo, hi}) }

// IsNull returns a condition that checks if the column is NULL.
func (f Field[T]) IsNull() Condition { return Condition{Column: string(f), Operator: OpIsNull} }

// NotNull returns a condition that checks if the column is not NULL.
func (f Field[T]) NotNull() Condition { return Condition{Column: string(f), Operator: OpIsNotNull} }

func (f Field[T]) cond(op Operator, v any) Condition {
	return Condition{Column: string(f), Operator: op, Value: v}
}

// StringField is a text column with pattern helpers.
type StringField string

// Name returns the column name.
func (f StringField) Name() string { return string(f) }

// EQ returns a condition that checks if the column equals v.
func (f StringField) EQ(v string) Condition { return Field[string](f).EQ(v) }

// NEQ returns a condition that checks if the column does not equal v.
func (f StringField) NEQ(v string) Condition { return Field[string](f).NEQ(v) }

// In returns a condition that checks if the column value is in vs.
func (f StringField) In(vs ...string) Condition { return Field[string](f).In(vs...) }

// NotIn returns a condition that checks if the column value is not in vs.
func (f StringField) NotIn(vs ...string) Condition { return Field[string](f).NotIn(vs...) }

// Contains returns a condition that checks if the column contains v.
func (f StringField) Contains(v string) Condition {
	return f.like(OpLike, "%"+escapeLike(v)+"%")
}

// ContainsFold returns a condition that checks if the column contains v (case-insensitive).
func (f StringField) ContainsFold(v string) Condition {
	return f.like(OpILike, "%"+escapeLike(v)+"%")
}

// HasPrefix returns a condition that checks if the column starts with v.
func (f StringField) HasPrefix(v string) Condition {
	return f.like(OpLike, escapeLike(v)+"%")
}

// HasSuffix returns a condition that checks if the column ends with v.
func (f StringField) HasSuffix(v string) Condition {
	return f.like(OpLike, "%"+escapeLike(v))
}

// EqualFold returns a condition that checks if the column equals v (case-insensitive).
func (f StringField) EqualFold(v string) Condition {
	return f.like(OpILike, escapeLike(v))
}

// IsNull returns a condition that checks if the column is NULL.
func (f StringField) IsNull() Condition { return Field[string](f).IsNull() }

// NotNull returns a condition that checks if the column is not NULL.
func (f StringField) NotNull() Condition { return Field[string](f).NotNull() }

func (f StringField) like(op Operator, p string) Condition {
	return Condition{Column: string(f), Operator: op, Value: Pattern(p)}
}

// BoolField is a boolean column.
type BoolField string

// EQ returns a condition that checks if the column equals v.
func (f BoolField) EQ(v bool) Condition { return Field[bool](f).EQ(v) }

// NEQ returns a condition that checks if the column does not equal v.
func (f BoolField) NEQ(v bool) Condition { return Field[bool](f).NEQ(v) }

// EnumField is a column holding values of a string enum type.
type EnumField[T ~string] string

// EQ returns a condition that checks if the column equals v.
func (f EnumField[T]) EQ(v T) Condition { return Field[string](f).EQ(string(v)) }

// NEQ returns a condition that checks if the column does not equal v.
func (f EnumField[T]) NEQ(v T) Condition { return Field[string](f).NEQ(string(v)) }

// In returns a condition that checks if the column value is in vs.
func (f EnumField[T]) In(vs ...T) Condition {
	ss := make([]string, len(vs))
	for i, v := range vs {
		ss[i] = string(v)
	}
	return Field[string](f).In(ss...)
}

// Or returns a copy of c joined to the previous condition with OR.
func (c Condition) Or() Condition {
	c.Logical = Or
	return c
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func toAny[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
