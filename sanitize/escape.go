package sanitize

import (
	"strings"

	"github.com/syssam/querycraft/dialect"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike backslash-escapes \, % and _ so s matches literally in a LIKE
// pattern.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// EscapeForDialect doubles the character that is special to the dialect:
// $ for postgres, the backtick for mysql and the double quote for sqlite.
// Unknown dialects return s unchanged.
func EscapeForDialect(s, name string) string {
	d, err := dialect.Lookup(name)
	if err != nil {
		return s
	}
	switch d {
	case dialect.Postgres:
		return strings.ReplaceAll(s, "$", "$$")
	case dialect.MySQL:
		return strings.ReplaceAll(s, "`", "``")
	case dialect.SQLite:
		return strings.ReplaceAll(s, `"`, `""`)
	}
	return s
}
