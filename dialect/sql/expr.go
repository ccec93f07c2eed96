package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/querycraft/ast"
)

// aggregation renders a with its alias.
func (b *builder) aggregation(a ast.Aggregation) (string, error) {
	col := "*"
	if a.Column != "*" {
		var err error
		if col, err = b.ident(a.Column); err != nil {
			return "", err
		}
	}
	expr, err := b.aggregate(a, col)
	if err != nil {
		return "", err
	}
	return b.as(expr, a.Alias)
}

// aggregate renders the call of a over the already rendered col.
func (b *builder) aggregate(a ast.Aggregation, col string) (string, error) {
	fn, err := b.d.aggName(a.Func)
	if err != nil {
		return "", err
	}
	var distinct, order string
	if a.Distinct {
		distinct = "DISTINCT "
	}
	if len(a.OrderBy) > 0 {
		terms, err := b.orderBy(a.OrderBy)
		if err != nil {
			return "", err
		}
		order = "ORDER BY " + terms
	}
	switch {
	case a.Func.IsPercentile():
		p := 0.5
		if a.Percentile != nil {
			p = *a.Percentile
		}
		return fmt.Sprintf("%s(%s) WITHIN GROUP (ORDER BY %s)", fn, strconv.FormatFloat(p, 'f', -1, 64), col), nil
	case a.Func == ast.GroupConcat, a.Func == ast.StringAgg:
		sep := a.Separator
		if sep == "" && fn == ast.StringAgg.String() {
			sep = ","
		}
		if sep != "" {
			if sep, err = b.d.literal(sep); err != nil {
				return "", err
			}
		}
		return b.d.stringAgg(fn, distinct, col, sep, order), nil
	case a.Func == ast.ArrayAgg, a.Func == ast.JSONAgg:
		if order != "" {
			order = " " + order
		}
		return fn + "(" + distinct + col + order + ")", nil
	default:
		return fn + "(" + distinct + col + ")", nil
	}
}

// window renders FUNC(args) OVER (...) with its alias.
func (b *builder) window(w ast.WindowFunction) (string, error) {
	args := make([]string, len(w.Args))
	for i, a := range w.Args {
		arg, err := b.windowArg(a)
		if err != nil {
			return "", err
		}
		args[i] = arg
	}
	over, err := b.over(w.Over)
	if err != nil {
		return "", err
	}
	return b.as(w.Func.String()+"("+strings.Join(args, ", ")+") OVER ("+over+")", w.Alias)
}

func (b *builder) windowArg(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return b.ident(x)
	case ast.Ident:
		return b.ident(string(x))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	}
	return b.bind(v), nil
}

func (b *builder) over(w ast.Window) (string, error) {
	var parts []string
	if len(w.PartitionBy) > 0 {
		cols, err := b.idents(w.PartitionBy)
		if err != nil {
			return "", err
		}
		parts = append(parts, "PARTITION BY "+cols)
	}
	if len(w.OrderBy) > 0 {
		terms, err := b.orderBy(w.OrderBy)
		if err != nil {
			return "", err
		}
		parts = append(parts, "ORDER BY "+terms)
	}
	if f := w.Frame; f != nil {
		if err := b.d.frame(f); err != nil {
			return "", err
		}
		frame := f.Unit.String() + " " + bound(f.Start)
		if f.End != nil {
			frame = f.Unit.String() + " BETWEEN " + bound(f.Start) + " AND " + bound(*f.End)
		}
		if f.Exclude != ast.ExcludeNone {
			frame += " EXCLUDE " + f.Exclude.String()
		}
		parts = append(parts, frame)
	}
	return strings.Join(parts, " "), nil
}

func bound(fb ast.FrameBound) string {
	if fb.Kind == ast.Preceding || fb.Kind == ast.Following {
		return strconv.Itoa(fb.Offset) + " " + fb.Kind.String()
	}
	return fb.Kind.String()
}

// conditional renders a CASE, COALESCE or NULLIF projection.
func (b *builder) conditional(c ast.Conditional) (string, error) {
	switch x := c.(type) {
	case ast.Case:
		var sb strings.Builder
		sb.WriteString("CASE")
		for _, w := range x.Whens {
			cond, err := b.raw(w.Cond, w.Args)
			if err != nil {
				return "", err
			}
			then, err := b.value(w.Then, false)
			if err != nil {
				return "", err
			}
			sb.WriteString(" WHEN " + cond + " THEN " + then)
		}
		if x.Else != nil {
			v, err := b.value(x.Else, false)
			if err != nil {
				return "", err
			}
			sb.WriteString(" ELSE " + v)
		}
		sb.WriteString(" END")
		return b.as(sb.String(), x.Alias)
	case ast.Coalesce:
		cols, err := b.idents(x.Columns)
		if err != nil {
			return "", err
		}
		return b.as("COALESCE("+cols+")", x.Alias)
	case ast.NullIf:
		cols, err := b.idents([]string{x.Col1, x.Col2})
		if err != nil {
			return "", err
		}
		return b.as("NULLIF("+cols+")", x.Alias)
	default:
		return "", fmt.Errorf("querycraft: unexpected conditional type %T", c)
	}
}
