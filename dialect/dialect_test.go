package dialect_test

import (
	"testing"

	"ariga.io/atlas/sql/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/querycraft"
	"github.com/syssam/querycraft/dialect"
)

func TestLookup(t *testing.T) {
	tests := map[string]string{
		"postgres":   dialect.Postgres,
		"PostgreSQL": dialect.Postgres,
		" pg ":       dialect.Postgres,
		"MySQL":      dialect.MySQL,
		"mariadb":    dialect.MySQL,
		"sqlite3":    dialect.SQLite,
		"SQLite":     dialect.SQLite,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			got, err := dialect.Lookup(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := dialect.Lookup("oracle")
	require.Error(t, err)
	assert.True(t, querycraft.IsUnsupportedDatabase(err))
}

func TestNamesAndAliases(t *testing.T) {
	assert.Equal(t, []string{"mysql", "postgres", "sqlite"}, dialect.Names())
	assert.Equal(t, []string{"sqlite", "sqlite3"}, dialect.Aliases(dialect.SQLite))
	assert.Contains(t, dialect.Aliases(dialect.Postgres), "postgresql")
}

func TestDataType(t *testing.T) {
	tests := []struct {
		dialect, logical, want string
	}{
		{dialect.Postgres, "DOUBLE", "DOUBLE PRECISION"},
		{dialect.SQLite, "DOUBLE", "REAL"},
		{dialect.MySQL, "DOUBLE", "DOUBLE"},
		{dialect.Postgres, "json", "JSONB"},
		{dialect.MySQL, "Timestamp", "DATETIME"},
		{dialect.SQLite, "boolean", "INTEGER"},
		{"postgresql", "UUID", "UUID"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tt.logical, func(t *testing.T) {
			got, err := dialect.DataType(tt.dialect, tt.logical)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("UnsupportedDataType", func(t *testing.T) {
		_, err := dialect.DataType(dialect.SQLite, "INTERVAL")
		require.Error(t, err)
		assert.True(t, querycraft.IsUnsupportedDataType(err))
		assert.Contains(t, err.Error(), "sqlite")
	})

	t.Run("UnsupportedDatabase", func(t *testing.T) {
		_, err := dialect.DataType("db2", "INTEGER")
		assert.True(t, querycraft.IsUnsupportedDatabase(err))
	})
}

func TestTypesIsCopy(t *testing.T) {
	m, err := dialect.Types(dialect.Postgres)
	require.NoError(t, err)
	m["double"] = "FLOAT8"

	got, err := dialect.DataType(dialect.Postgres, "DOUBLE")
	require.NoError(t, err)
	assert.Equal(t, "DOUBLE PRECISION", got)
}

func TestLogicalTypes(t *testing.T) {
	names, err := dialect.LogicalTypes(dialect.MySQL)
	require.NoError(t, err)
	assert.Contains(t, names, "BIGINT")
	assert.IsIncreasing(t, names)
}

func TestParseType(t *testing.T) {
	typ, err := dialect.ParseType(dialect.Postgres, "BIGINT")
	require.NoError(t, err)
	assert.IsType(t, &schema.IntegerType{}, typ)

	typ, err = dialect.ParseType(dialect.MySQL, "DECIMAL")
	require.NoError(t, err)
	dec, ok := typ.(*schema.DecimalType)
	require.True(t, ok)
	assert.Equal(t, 10, dec.Precision)
	assert.Equal(t, 2, dec.Scale)

	typ, err = dialect.ParseType(dialect.SQLite, "STRING")
	require.NoError(t, err)
	assert.IsType(t, &schema.StringType{}, typ)

	_, err = dialect.ParseType(dialect.SQLite, "INET")
	assert.True(t, querycraft.IsUnsupportedDataType(err))
}
