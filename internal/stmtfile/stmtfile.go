// Package stmtfile reads statements described in YAML.
//
// A file holds one or more YAML documents, each describing one statement:
//
//	name: adults
//	version: 2
//	kind: select
//	columns: [id, name]
//	from: users
//	where:
//	  - {column: age, operator: ">=", value: 18}
//	  - {column: manager_id, value: {ident: users.id}}
//	order_by:
//	  - {column: name, nulls: last}
//	limit: 10
//
// Keys match the fields of the ast package, case-insensitively and with
// underscores ignored. Values are literals, except for maps holding one of
// the keys below:
//
//	{ident: users.id}               ast.Ident
//	{null: true}                    ast.Null
//	{pattern: "a%"}                 ast.Pattern
//	{excluded: age}                 ast.Excluded
//	{expr: "NOW() - ?", args: [1]}  ast.Expr
//	{select: {...}}                 subquery
//	{json: {...}}                   the inner map, bound as JSON
//	{json: "a.b"}                   ast.Text, bound as a string parameter
//
// Any other map is bound as JSON.
package stmtfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/syssam/querycraft/ast"
)

// Document is one decoded statement description.
type Document struct {
	Name    string
	Version int
	Kind    string // select (default), insert, update, delete or merge

	// SELECT.
	With         []CTE
	Distinct     bool
	Columns      []string // also the column list of INSERT
	Aggregations []ast.Aggregation
	Windows      []ast.WindowFunction
	Conditionals []Conditional
	JSONPaths    []ast.JSONPath
	JSONFuncs    []ast.JSONFunction
	ArrayFuncs   []ast.ArrayFunction
	ArraySlices  []ast.ArraySlice
	From         *Source
	Joins        []Join
	Where        []ast.Condition
	ArrayOps     []ast.ArrayOperation
	GroupBy      []string
	Having       []ast.Condition
	OrderBy      []ast.OrderBy
	Limit        *int
	Offset       *int
	SetOps       []SetOp
	Pivot        *ast.Pivot
	Unpivot      *ast.Unpivot
	Ordinality   *ast.Ordinality

	// INSERT, UPDATE, DELETE and MERGE.
	Into           string
	Table          string
	Values         [][]any
	Set            []ast.Assignment
	OnConflict     *ast.OnConflict
	Returning      []string
	Alias          string
	Using          *Source
	On             []ast.Condition
	WhenMatched    *ast.MergeMatched
	WhenNotMatched *MergeInsert
}

// Source is a table, or a subquery when Select is set. A plain string
// decodes as a table name.
type Source struct {
	Table  string
	Alias  string
	Select *Document
}

// Join is a JOIN clause.
type Join struct {
	Type  ast.JoinType
	Table Source
	On    []ast.Condition
}

// CTE is a WITH entry.
type CTE struct {
	Name      string
	Columns   []string
	Recursive bool
	Select    Document
}

// SetOp is a UNION, INTERSECT or EXCEPT operand.
type SetOp struct {
	Type   ast.SetOpType
	Select Document
}

// Conditional holds exactly one of its fields.
type Conditional struct {
	Case     *ast.Case
	Coalesce *ast.Coalesce
	NullIf   *ast.NullIf
}

// MergeInsert is the WHEN NOT MATCHED THEN INSERT payload.
type MergeInsert struct {
	Columns []string
	Values  []any
}

// ReadFile decodes the documents of the file at path.
func ReadFile(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	docs, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

// Decode decodes every YAML document of r. Empty documents are skipped.
func Decode(r io.Reader) ([]Document, error) {
	var (
		docs []Document
		dec  = yaml.NewDecoder(r)
	)
	for i := 0; ; i++ {
		var raw map[string]any
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("stmtfile: document %d: %w", i, err)
		}
		if raw == nil {
			continue
		}
		var doc Document
		if err := decodeInto(raw, &doc); err != nil {
			return nil, fmt.Errorf("stmtfile: document %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
}

func decodeInto(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			tableHook,
		),
		MatchName:        matchName,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

var sourceType = reflect.TypeOf(Source{})

// tableHook decodes a string as a Source naming a table.
func tableHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.String && to == sourceType {
		return map[string]any{"table": data}, nil
	}
	return data, nil
}

func matchName(key, field string) bool {
	return fold(key) == fold(field)
}

func fold(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}

// Statement converts the document to an AST statement.
func (d *Document) Statement() (ast.Statement, error) {
	stmt, err := d.statement()
	if err != nil && d.Name != "" {
		return nil, fmt.Errorf("stmtfile: %s: %w", d.Name, err)
	}
	return stmt, err
}

func (d *Document) statement() (ast.Statement, error) {
	switch strings.ToLower(strings.TrimSpace(d.Kind)) {
	case "", "select":
		return d.selectStmt()
	case "insert":
		return d.insertStmt()
	case "update":
		return d.updateStmt()
	case "delete":
		return d.deleteStmt()
	case "merge":
		return d.mergeStmt()
	default:
		return nil, fmt.Errorf("stmtfile: unknown statement kind %q", d.Kind)
	}
}

func (d *Document) selectStmt() (*ast.Select, error) {
	s := &ast.Select{
		Distinct:     d.Distinct,
		Columns:      d.Columns,
		Aggregations: d.Aggregations,
		JSONPaths:    d.JSONPaths,
		ArraySlices:  d.ArraySlices,
		GroupBy:      d.GroupBy,
		OrderBy:      d.OrderBy,
		Limit:        d.Limit,
		Offset:       d.Offset,
		Pivot:        d.Pivot,
		Unpivot:      d.Unpivot,
		Ordinality:   d.Ordinality,
	}
	var err error
	for _, c := range d.With {
		q, err := c.Select.selectStmt()
		if err != nil {
			return nil, fmt.Errorf("cte %s: %w", c.Name, err)
		}
		s.With = append(s.With, ast.CTE{Name: c.Name, Columns: c.Columns, Recursive: c.Recursive, Query: q})
	}
	for _, w := range d.Windows {
		if w.Args, err = values(w.Args); err != nil {
			return nil, err
		}
		s.Windows = append(s.Windows, w)
	}
	for _, c := range d.Conditionals {
		cond, err := c.conditional()
		if err != nil {
			return nil, err
		}
		s.Conditionals = append(s.Conditionals, cond)
	}
	for _, f := range d.JSONFuncs {
		if f.Value, err = value(f.Value); err != nil {
			return nil, err
		}
		s.JSONFuncs = append(s.JSONFuncs, f)
	}
	for _, f := range d.ArrayFuncs {
		if f.Value, err = value(f.Value); err != nil {
			return nil, err
		}
		s.ArrayFuncs = append(s.ArrayFuncs, f)
	}
	for _, op := range d.ArrayOps {
		if op.Value, err = value(op.Value); err != nil {
			return nil, err
		}
		s.ArrayOps = append(s.ArrayOps, op)
	}
	if d.From != nil {
		if s.From, err = d.From.source(); err != nil {
			return nil, err
		}
	}
	for _, j := range d.Joins {
		src, err := j.Table.source()
		if err != nil {
			return nil, err
		}
		on, err := conditions(j.On)
		if err != nil {
			return nil, err
		}
		s.Joins = append(s.Joins, ast.Join{Type: j.Type, Table: src, On: on})
	}
	if s.Where, err = conditions(d.Where); err != nil {
		return nil, err
	}
	if s.Having, err = conditions(d.Having); err != nil {
		return nil, err
	}
	for _, op := range d.SetOps {
		q, err := op.Select.selectStmt()
		if err != nil {
			return nil, err
		}
		s.SetOps = append(s.SetOps, ast.SetOperation{Type: op.Type, Query: q})
	}
	return s, nil
}

func (d *Document) insertStmt() (*ast.Insert, error) {
	s := &ast.Insert{Into: d.Into, Returning: d.Returning}
	for i, vs := range d.Values {
		if len(vs) != len(d.Columns) {
			return nil, fmt.Errorf("values row %d has %d values for %d columns", i, len(vs), len(d.Columns))
		}
		row, err := makeRow(d.Columns, vs)
		if err != nil {
			return nil, err
		}
		s.Rows = append(s.Rows, row)
	}
	if d.OnConflict != nil {
		oc := *d.OnConflict
		var err error
		if oc.Update, err = assignments(oc.Update); err != nil {
			return nil, err
		}
		s.OnConflict = &oc
	}
	return s, nil
}

func (d *Document) updateStmt() (*ast.Update, error) {
	set, err := assignments(d.Set)
	if err != nil {
		return nil, err
	}
	where, err := conditions(d.Where)
	if err != nil {
		return nil, err
	}
	return &ast.Update{Table: d.Table, Set: set, Where: where, Returning: d.Returning}, nil
}

func (d *Document) deleteStmt() (*ast.Delete, error) {
	where, err := conditions(d.Where)
	if err != nil {
		return nil, err
	}
	from := d.Table
	if d.From != nil {
		from = d.From.Table
	}
	return &ast.Delete{From: from, Where: where, Returning: d.Returning}, nil
}

func (d *Document) mergeStmt() (*ast.Merge, error) {
	m := &ast.Merge{Into: d.Into, Alias: d.Alias}
	var err error
	if d.Using != nil {
		if m.Using, err = d.Using.source(); err != nil {
			return nil, err
		}
	}
	if m.On, err = conditions(d.On); err != nil {
		return nil, err
	}
	if d.WhenMatched != nil {
		wm := *d.WhenMatched
		if wm.Set, err = assignments(wm.Set); err != nil {
			return nil, err
		}
		m.WhenMatched = &wm
	}
	if d.WhenNotMatched != nil {
		ins := d.WhenNotMatched
		if len(ins.Columns) != len(ins.Values) {
			return nil, fmt.Errorf("when_not_matched has %d values for %d columns", len(ins.Values), len(ins.Columns))
		}
		row, err := makeRow(ins.Columns, ins.Values)
		if err != nil {
			return nil, err
		}
		m.WhenNotMatched = &ast.MergeNotMatched{Values: row}
	}
	return m, nil
}

func (s Source) source() (ast.Source, error) {
	if s.Select == nil {
		return ast.Table{Name: s.Table, Alias: s.Alias}, nil
	}
	if s.Table != "" {
		return nil, fmt.Errorf("source %q: table and select are exclusive", s.Table)
	}
	q, err := s.Select.selectStmt()
	if err != nil {
		return nil, err
	}
	return ast.Subquery{Query: q, Alias: s.Alias}, nil
}

func (c Conditional) conditional() (ast.Conditional, error) {
	switch {
	case c.Case != nil && c.Coalesce == nil && c.NullIf == nil:
		cs := *c.Case
		cs.Whens = make([]ast.When, len(c.Case.Whens))
		var err error
		for i, w := range c.Case.Whens {
			if w.Args, err = values(w.Args); err != nil {
				return nil, err
			}
			if w.Then, err = value(w.Then); err != nil {
				return nil, err
			}
			cs.Whens[i] = w
		}
		if cs.Else, err = value(cs.Else); err != nil {
			return nil, err
		}
		return cs, nil
	case c.Coalesce != nil && c.Case == nil && c.NullIf == nil:
		return *c.Coalesce, nil
	case c.NullIf != nil && c.Case == nil && c.Coalesce == nil:
		return *c.NullIf, nil
	default:
		return nil, errors.New("conditional must hold exactly one of case, coalesce and nullif")
	}
}

func makeRow(cols []string, vs []any) (ast.Row, error) {
	row := make(ast.Row, len(cols))
	for i, c := range cols {
		v, err := value(vs[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c, err)
		}
		row[i] = ast.Assignment{Column: c, Value: v}
	}
	return row, nil
}

func assignments(set []ast.Assignment) ([]ast.Assignment, error) {
	if len(set) == 0 {
		return nil, nil
	}
	out := make([]ast.Assignment, len(set))
	for i, a := range set {
		v, err := value(a.Value)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", a.Column, err)
		}
		out[i] = ast.Assignment{Column: a.Column, Value: v}
	}
	return out, nil
}

func conditions(conds []ast.Condition) ([]ast.Condition, error) {
	if len(conds) == 0 {
		return nil, nil
	}
	out := make([]ast.Condition, len(conds))
	for i, c := range conds {
		v, err := value(c.Value)
		if err != nil {
			return nil, fmt.Errorf("condition on %s: %w", c.Column, err)
		}
		c.Value = v
		out[i] = c
	}
	return out, nil
}

func values(vs []any) ([]any, error) {
	if vs == nil {
		return nil, nil
	}
	out := make([]any, len(vs))
	for i, v := range vs {
		var err error
		if out[i], err = value(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// value converts the special value maps to their AST types.
func value(v any) (any, error) {
	switch v := v.(type) {
	case []any:
		return values(v)
	case map[string]any:
		return special(v)
	default:
		return v, nil
	}
}

func special(m map[string]any) (any, error) {
	str := func(k string) (string, error) {
		s, ok := m[k].(string)
		if !ok || len(m) != 1 {
			return "", fmt.Errorf("{%s} expects a single string", k)
		}
		return s, nil
	}
	switch {
	case has(m, "ident"):
		s, err := str("ident")
		return ast.Ident(s), err
	case has(m, "pattern"):
		s, err := str("pattern")
		return ast.Pattern(s), err
	case has(m, "excluded"):
		s, err := str("excluded")
		return ast.Excluded(s), err
	case has(m, "null"):
		if b, ok := m["null"].(bool); !ok || !b || len(m) != 1 {
			return nil, errors.New("{null} expects true")
		}
		return ast.Null{}, nil
	case has(m, "expr"):
		sql, ok := m["expr"].(string)
		if !ok {
			return nil, errors.New("{expr} expects a string")
		}
		e := ast.Expr{SQL: sql}
		for k := range m {
			if k != "expr" && k != "args" {
				return nil, fmt.Errorf("{expr} has unknown key %q", k)
			}
		}
		if args, ok := m["args"]; ok {
			list, ok := args.([]any)
			if !ok {
				return nil, errors.New("{expr} args must be a list")
			}
			var err error
			if e.Args, err = values(list); err != nil {
				return nil, err
			}
		}
		return e, nil
	case has(m, "select"):
		if len(m) != 1 {
			return nil, errors.New("{select} takes no sibling keys")
		}
		var doc Document
		if err := decodeInto(m["select"], &doc); err != nil {
			return nil, err
		}
		return doc.selectStmt()
	case has(m, "json"):
		if len(m) != 1 {
			return nil, errors.New("{json} takes no sibling keys")
		}
		if s, ok := m["json"].(string); ok {
			return ast.Text(s), nil
		}
		return m["json"], nil
	default:
		return m, nil
	}
}

func has(m map[string]any, k string) bool {
	_, ok := m[k]
	return ok
}
