package dialect

import (
	_ "embed"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"
	"gopkg.in/yaml.v3"

	"github.com/syssam/querycraft"
)

//go:embed types.yaml
var typesYAML []byte

var (
	typesOnce sync.Once
	typeTable map[string]map[string]string
	typesErr  error
)

func loadTypes() (map[string]map[string]string, error) {
	typesOnce.Do(func() {
		var raw map[string]map[string]string
		if err := yaml.Unmarshal(typesYAML, &raw); err != nil {
			typesErr = fmt.Errorf("dialect: parse type table: %w", err)
			return
		}
		typeTable = make(map[string]map[string]string, len(raw))
		for d, m := range raw {
			name, err := Lookup(d)
			if err != nil {
				typesErr = fmt.Errorf("dialect: type table: %w", err)
				return
			}
			folded := make(map[string]string, len(m))
			for logical, native := range m {
				folded[fold(logical)] = native
			}
			typeTable[name] = folded
		}
	})
	return typeTable, typesErr
}

// DataType returns the native type keyword of the logical type for the
// dialect d. Both names are case-insensitive, e.g. DataType("sqlite",
// "double") returns "REAL".
func DataType(d, logical string) (string, error) {
	m, err := Types(d)
	if err != nil {
		return "", err
	}
	native, ok := m[fold(strings.TrimSpace(logical))]
	if !ok {
		name, _ := Lookup(d)
		return "", querycraft.NewUnsupportedDataTypeError(name, logical)
	}
	return native, nil
}

// Types returns a copy of the type mapping table of the dialect d. Keys are
// case-folded logical type names.
func Types(d string) (map[string]string, error) {
	name, err := Lookup(d)
	if err != nil {
		return nil, err
	}
	table, err := loadTypes()
	if err != nil {
		return nil, err
	}
	return maps.Clone(table[name]), nil
}

// LogicalTypes returns the logical type names known for the dialect d,
// upper-cased and sorted.
func LogicalTypes(d string) ([]string, error) {
	m, err := Types(d)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, strings.ToUpper(k))
	}
	slices.Sort(names)
	return names, nil
}

// ParseType maps the logical type to its native keyword and parses it
// with the atlas driver of the dialect.
func ParseType(d, logical string) (schema.Type, error) {
	native, err := DataType(d, logical)
	if err != nil {
		return nil, err
	}
	name, _ := Lookup(d)
	raw := strings.ToLower(native)
	var t schema.Type
	switch name {
	case Postgres:
		t, err = postgres.ParseType(raw)
	case MySQL:
		t, err = mysql.ParseType(raw)
	case SQLite:
		t, err = sqlite.ParseType(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("dialect: parse %s type %q: %w", name, native, err)
	}
	return t, nil
}
