package sanitize

import (
	"regexp"
	"strings"

	"github.com/syssam/querycraft"
)

// Identifier grammar limits.
const (
	MaxIdentifierLength = 100
	MaxPartLength       = 30
	MaxFunctionParams   = 10
	MaxParamLength      = 50
)

var (
	partRe      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,29}$`)
	funcRe      = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]{0,29})\((.*)\)$`)
	numberRe    = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)
	qualifiedRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)+$`)
	aliasRe     = regexp.MustCompile(`(?i)^\s*(.+?)\s+AS\s+(\S+)\s*$`)
)

// Quoter quotes a single identifier segment for a dialect.
type Quoter interface {
	QuoteIdent(string) string
}

// Name is an identifier that passed the grammar. It is one of:
// a bare or dotted name (Parts), a star form ("*" or "t.*") or a
// function call (Func and Args).
type Name struct {
	Parts []string
	Func  string
	Args  []string
}

// IsFunc reports whether n is a function-call form.
func (n Name) IsFunc() bool { return n.Func != "" }

// IsStar reports whether n is "*" or "t.*".
func (n Name) IsStar() bool {
	return len(n.Parts) > 0 && n.Parts[len(n.Parts)-1] == "*"
}

// Quote renders n with every segment quoted by q. Stars and numeric
// function arguments are kept verbatim.
func (n Name) Quote(q Quoter) string {
	if n.IsFunc() {
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			if a == "*" || numberRe.MatchString(a) {
				args[i] = a
			} else {
				args[i] = q.QuoteIdent(a)
			}
		}
		return n.Func + "(" + strings.Join(args, ", ") + ")"
	}
	parts := make([]string, len(n.Parts))
	for i, p := range n.Parts {
		if p == "*" {
			parts[i] = p
		} else {
			parts[i] = q.QuoteIdent(p)
		}
	}
	return strings.Join(parts, ".")
}

// String returns the unquoted form of n.
func (n Name) String() string {
	if n.IsFunc() {
		return n.Func + "(" + strings.Join(n.Args, ", ") + ")"
	}
	return strings.Join(n.Parts, ".")
}

// Identifier checks name against the identifier grammar: a bare name, a
// qualified "schema.table" with exactly one dot, or a function call
// "NAME(params)" whose parameters are bare names, "*" or numbers.
func Identifier(name string) (Name, error) {
	if name == "" {
		return Name{}, querycraft.NewInvalidIdentifierError(name, "empty identifier")
	}
	if len(name) > MaxIdentifierLength {
		return Name{}, querycraft.NewInvalidIdentifierError(name, "longer than 100 characters")
	}
	if strings.ContainsAny(name, "()") {
		return function(name)
	}
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return Name{}, querycraft.NewInvalidIdentifierError(name, "more than one dot")
	}
	for _, p := range parts {
		if !partRe.MatchString(p) {
			return Name{}, querycraft.NewInvalidIdentifierError(name, reason(p))
		}
	}
	return Name{Parts: parts}, nil
}

// Column is like Identifier but also accepts the star forms "*" and "t.*".
func Column(name string) (Name, error) {
	if name == "*" {
		return Name{Parts: []string{"*"}}, nil
	}
	if t, ok := strings.CutSuffix(name, ".*"); ok {
		if !partRe.MatchString(t) {
			return Name{}, querycraft.NewInvalidIdentifierError(name, reason(t))
		}
		return Name{Parts: []string{t, "*"}}, nil
	}
	return Identifier(name)
}

func function(name string) (Name, error) {
	m := funcRe.FindStringSubmatch(name)
	if m == nil {
		return Name{}, querycraft.NewInvalidIdentifierError(name, "malformed function call")
	}
	fn, body := m[1], strings.TrimSpace(m[2])
	if body == "" {
		return Name{Func: fn}, nil
	}
	params := strings.Split(body, ",")
	if len(params) > MaxFunctionParams {
		return Name{}, querycraft.NewInvalidIdentifierError(name, "more than 10 function parameters")
	}
	args := make([]string, len(params))
	for i, p := range params {
		p = strings.TrimSpace(p)
		switch {
		case len(p) > MaxParamLength:
			return Name{}, querycraft.NewInvalidFunctionParameterError(fn, p, "longer than 50 characters")
		case p == "*", numberRe.MatchString(p), partRe.MatchString(p):
			args[i] = p
		default:
			return Name{}, querycraft.NewInvalidFunctionParameterError(fn, p, "expected identifier, * or number")
		}
	}
	return Name{Func: fn, Args: args}, nil
}

func reason(part string) string {
	switch {
	case part == "":
		return "empty name segment"
	case len(part) > MaxPartLength:
		return "segment longer than 30 characters"
	default:
		return "segment " + `"` + part + `"` + " contains invalid characters"
	}
}

// ValidateIdentifier reports whether name passes Identifier.
func ValidateIdentifier(name string) bool {
	_, err := Identifier(name)
	return err == nil
}

// ValidateColumn reports whether name passes Column.
func ValidateColumn(name string) bool {
	_, err := Column(name)
	return err == nil
}

// SplitAlias splits "expr AS alias" (case-insensitive AS). ok is false when
// s carries no alias.
func SplitAlias(s string) (expr, alias string, ok bool) {
	m := aliasRe.FindStringSubmatch(s)
	if m == nil {
		return s, "", false
	}
	return strings.TrimSpace(m[1]), m[2], true
}

// LooksQualified reports whether s has the shape of a qualified column
// reference (identifier(.identifier)+) and passes the identifier grammar.
// Such condition values render as identifiers rather than parameters.
func LooksQualified(s string) bool {
	return qualifiedRe.MatchString(s) && ValidateIdentifier(s)
}
