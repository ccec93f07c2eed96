package sanitize

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TimeLayout is the ISO-8601 layout of normalized time values.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Value normalizes v for binding. It never fails: numbers, booleans and nil
// pass through, times become ISO-8601 text in UTC, slices are normalized
// element-wise, maps and structs become canonical JSON text, and DEL
// (0x7f) is stripped from strings. Unknown shapes degrade to their string
// form.
func Value(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return stripDEL(x)
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return x
	case []byte:
		return x
	case json.RawMessage:
		return stripDEL(string(x))
	case time.Time:
		return x.UTC().Format(TimeLayout)
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC().Format(TimeLayout)
	case uuid.UUID:
		return x.String()
	case decimal.Decimal:
		return x.String()
	case driver.Valuer:
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil
		}
		dv, err := x.Value()
		if err != nil {
			return stripDEL(fmt.Sprint(v))
		}
		return Value(dv)
	case fmt.Stringer:
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil
		}
		return stripDEL(x.String())
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Value(rv.Elem().Interface())
	case reflect.String:
		return stripDEL(rv.String())
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Value(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[fmt.Sprint(iter.Key().Interface())] = jsonValue(iter.Value().Interface())
		}
		return canonicalJSON(m, v)
	case reflect.Struct:
		return canonicalJSON(v, v)
	}
	return stripDEL(fmt.Sprint(v))
}

// jsonValue normalizes a map element, keeping nested maps as values so the
// outer document is encoded once.
func jsonValue(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && !rv.IsNil() {
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[fmt.Sprint(iter.Key().Interface())] = jsonValue(iter.Value().Interface())
		}
		return m
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 && !rv.IsNil() {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = jsonValue(rv.Index(i).Interface())
		}
		return out
	}
	if rv.Kind() == reflect.Struct {
		if _, ok := v.(fmt.Stringer); !ok {
			return v
		}
	}
	return Value(v)
}

// canonicalJSON encodes v with sorted object keys. The fallback is the
// string form of orig.
func canonicalJSON(v, orig any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return stripDEL(fmt.Sprint(orig))
	}
	return stripDEL(string(b))
}

func stripDEL(s string) string {
	if !strings.ContainsRune(s, 0x7f) {
		return s
	}
	return strings.ReplaceAll(s, "\x7f", "")
}
