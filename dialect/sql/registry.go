package sql

import (
	"github.com/syssam/querycraft/dialect"
)

var renderers = map[string]*Renderer{
	dialect.Postgres: {d: newPostgres()},
	dialect.MySQL:    {d: newMySQL()},
	dialect.SQLite:   {d: newSQLite()},
}

// For returns the renderer of the named engine. Names are resolved with
// dialect.Lookup, so "postgresql", "pg" or "sqlite3" work too.
func For(name string) (*Renderer, error) {
	d, err := dialect.Lookup(name)
	if err != nil {
		return nil, err
	}
	return renderers[d], nil
}

// MustFor is like For but panics on an unknown engine name.
func MustFor(name string) *Renderer {
	r, err := For(name)
	if err != nil {
		panic(err)
	}
	return r
}

// Types returns the logical to native data type table of the named engine.
func Types(name string) (map[string]string, error) {
	return dialect.Types(name)
}

// DataType returns the native type keyword of a logical type on the named
// engine.
func DataType(name, logical string) (string, error) {
	return dialect.DataType(name, logical)
}
