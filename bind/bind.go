// Package bind allocates parameter placeholders while a statement is
// rendered.
//
// A Binder is owned by one render call. Every Bind appends one argument and
// returns its marker, so markers must be requested in the order the SQL
// text is emitted.
package bind

import (
	"strconv"

	"github.com/syssam/querycraft/sanitize"
)

// Style selects the placeholder marker.
type Style uint8

const (
	// Sequential renders every parameter as "?".
	Sequential Style = iota
	// Positional renders the Nth parameter as "$N".
	Positional
)

// String returns the style name.
func (s Style) String() string {
	if s == Positional {
		return "positional"
	}
	return "sequential"
}

// Binder accumulates bound arguments.
type Binder struct {
	style Style
	args  []any
}

// New returns an empty Binder for the style.
func New(style Style) *Binder {
	return &Binder{style: style}
}

// Bind normalizes v with sanitize.Value, appends it and returns its marker.
func (b *Binder) Bind(v any) string {
	return b.BindRaw(sanitize.Value(v))
}

// BindRaw appends v unchanged and returns its marker. It is used for values
// the database driver encodes itself, such as array parameters.
func (b *Binder) BindRaw(v any) string {
	b.args = append(b.args, v)
	return b.Marker(len(b.args))
}

// Marker returns the marker of the nth (1-based) argument.
func (b *Binder) Marker(n int) string {
	if b.style == Positional {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Style returns the marker style of b.
func (b *Binder) Style() Style { return b.style }

// Len returns the number of bound arguments.
func (b *Binder) Len() int { return len(b.args) }

// Args returns the bound arguments in bind order.
func (b *Binder) Args() []any { return b.args }
