package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"

	"github.com/syssam/querycraft"
)

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlNotNull                = 1048
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// SQLite extended result codes for constraint violations.
const (
	sqliteCheck      = 275
	sqliteForeignKey = 787
	sqliteNotNull    = 1299
	sqlitePrimaryKey = 1555
	sqliteUnique     = 2067
)

var (
	pgKinds = map[string]querycraft.ConstraintKind{
		pgNotNullViolation:    querycraft.ConstraintNotNull,
		pgForeignKeyViolation: querycraft.ConstraintForeignKey,
		pgUniqueViolation:     querycraft.ConstraintUnique,
		pgCheckViolation:      querycraft.ConstraintCheck,
	}
	mysqlKinds = map[uint16]querycraft.ConstraintKind{
		mysqlNotNull:                querycraft.ConstraintNotNull,
		mysqlDuplicateEntry:         querycraft.ConstraintUnique,
		mysqlForeignKeyParent:       querycraft.ConstraintForeignKey,
		mysqlForeignKeyChild:        querycraft.ConstraintForeignKey,
		mysqlCheckConstraintViolate: querycraft.ConstraintCheck,
	}
	sqliteKinds = map[int]querycraft.ConstraintKind{
		sqliteCheck:      querycraft.ConstraintCheck,
		sqliteForeignKey: querycraft.ConstraintForeignKey,
		sqliteNotNull:    querycraft.ConstraintNotNull,
		sqlitePrimaryKey: querycraft.ConstraintUnique,
		sqliteUnique:     querycraft.ConstraintUnique,
	}
	// messageKinds is the fallback for drivers whose errors carry no code.
	messageKinds = []struct {
		substr string
		kind   querycraft.ConstraintKind
	}{
		{"UNIQUE constraint failed", querycraft.ConstraintUnique},
		{"violates unique constraint", querycraft.ConstraintUnique},
		{"FOREIGN KEY constraint failed", querycraft.ConstraintForeignKey},
		{"violates foreign key constraint", querycraft.ConstraintForeignKey},
		{"CHECK constraint failed", querycraft.ConstraintCheck},
		{"violates check constraint", querycraft.ConstraintCheck},
		{"NOT NULL constraint failed", querycraft.ConstraintNotNull},
		{"violates not-null constraint", querycraft.ConstraintNotNull},
	}
)

// ConstraintKindOf reports the kind of constraint err violated.
func ConstraintKindOf(err error) (querycraft.ConstraintKind, bool) {
	if err == nil {
		return "", false
	}
	var (
		pqErr     *pq.Error
		pgErr     *pgconn.PgError
		mysqlErr  *mysql.MySQLError
		sqliteErr *sqlite.Error
	)
	switch {
	case errors.As(err, &pgErr):
		k, ok := pgKinds[pgErr.Code]
		return k, ok
	case errors.As(err, &pqErr):
		k, ok := pgKinds[string(pqErr.Code)]
		return k, ok
	case errors.As(err, &mysqlErr):
		k, ok := mysqlKinds[mysqlErr.Number]
		return k, ok
	case errors.As(err, &sqliteErr):
		if k, ok := sqliteKinds[sqliteErr.Code()]; ok {
			return k, true
		}
	}
	msg := err.Error()
	for _, m := range messageKinds {
		if strings.Contains(msg, m.substr) {
			return m.kind, true
		}
	}
	return "", false
}

// ConstraintErr wraps err in a querycraft.ConstraintError when it is a
// constraint violation and returns it unchanged otherwise.
func ConstraintErr(err error) error {
	kind, ok := ConstraintKindOf(err)
	if !ok {
		return err
	}
	return querycraft.NewConstraintError(kind, err.Error(), err)
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	return isKind(err, querycraft.ConstraintUnique)
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	return isKind(err, querycraft.ConstraintForeignKey)
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	return isKind(err, querycraft.ConstraintCheck)
}

func isKind(err error, kind querycraft.ConstraintKind) bool {
	var ce *querycraft.ConstraintError
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	k, ok := ConstraintKindOf(err)
	return ok && k == kind
}
