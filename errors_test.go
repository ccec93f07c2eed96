package querycraft_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/querycraft"
)

func TestValidationError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := querycraft.NewValidationError("MERGE", "MERGE query must have ON conditions")
		assert.Equal(t, "querycraft: validation failed: MERGE query must have ON conditions", err.Error())
		assert.Equal(t, "MERGE", err.Statement)
	})

	t.Run("Format", func(t *testing.T) {
		err := querycraft.NewValidationError("SELECT", "unknown operator %q", "~~")
		assert.Equal(t, `unknown operator "~~"`, err.Message)
	})

	t.Run("Is", func(t *testing.T) {
		err := querycraft.NewValidationError("DELETE", "DELETE query must have WHERE conditions")
		assert.True(t, errors.Is(err, querycraft.ErrValidation))
		assert.False(t, errors.Is(err, querycraft.ErrInvalidIdentifier))
	})

	t.Run("IsValidationError", func(t *testing.T) {
		err := querycraft.NewValidationError("INSERT", "INSERT query must have values")
		assert.True(t, querycraft.IsValidationError(err))

		// Wrapped error
		wrapped := fmt.Errorf("render: %w", err)
		assert.True(t, querycraft.IsValidationError(wrapped))

		// Sentinel error
		assert.True(t, querycraft.IsValidationError(querycraft.ErrValidation))

		// Non-matching error
		assert.False(t, querycraft.IsValidationError(errors.New("other error")))
		assert.False(t, querycraft.IsValidationError(nil))
	})
}

func TestInvalidIdentifierError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := querycraft.NewInvalidIdentifierError("users;--", "unexpected character")
		assert.Equal(t, `querycraft: invalid identifier "users;--": unexpected character`, err.Error())

		err = querycraft.NewInvalidIdentifierError("x", "")
		assert.Equal(t, `querycraft: invalid identifier "x"`, err.Error())
	})

	t.Run("IsInvalidIdentifier", func(t *testing.T) {
		err := querycraft.NewInvalidIdentifierError("a b", "")
		assert.True(t, errors.Is(err, querycraft.ErrInvalidIdentifier))
		assert.True(t, querycraft.IsInvalidIdentifier(fmt.Errorf("column: %w", err)))
		assert.False(t, querycraft.IsInvalidIdentifier(querycraft.ErrValidation))
		assert.False(t, querycraft.IsInvalidIdentifier(nil))
	})
}

func TestInvalidFunctionParameterError(t *testing.T) {
	err := querycraft.NewInvalidFunctionParameterError("COUNT", "1;DROP", "")
	assert.Equal(t, `querycraft: invalid parameter "1;DROP" for function COUNT`, err.Error())
	assert.True(t, errors.Is(err, querycraft.ErrInvalidFunctionParameter))
	assert.True(t, querycraft.IsInvalidFunctionParameter(fmt.Errorf("wrap: %w", err)))
	assert.False(t, querycraft.IsInvalidFunctionParameter(nil))

	err = querycraft.NewInvalidFunctionParameterError("SUM", "a b", "not an identifier")
	assert.Contains(t, err.Error(), "not an identifier")
}

func TestUnsupportedFeatureError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := querycraft.NewUnsupportedFeatureError("mysql", "MERGE")
		assert.Equal(t, "querycraft: MERGE is not supported by the mysql dialect", err.Error())

		err.Hint = "use INSERT ... ON DUPLICATE KEY UPDATE"
		assert.Contains(t, err.Error(), "(use INSERT")
	})

	t.Run("IsUnsupportedFeature", func(t *testing.T) {
		err := querycraft.NewUnsupportedFeatureError("sqlite", "PIVOT")
		assert.True(t, errors.Is(err, querycraft.ErrUnsupportedFeature))
		assert.True(t, querycraft.IsUnsupportedFeature(fmt.Errorf("render: %w", err)))
		assert.False(t, querycraft.IsUnsupportedFeature(errors.New("other")))
	})
}

func TestUnsupportedDatabaseError(t *testing.T) {
	err := querycraft.NewUnsupportedDatabaseError("oracle")
	assert.Equal(t, `querycraft: unsupported database "oracle"`, err.Error())
	assert.True(t, errors.Is(err, querycraft.ErrUnsupportedDatabase))
	assert.True(t, querycraft.IsUnsupportedDatabase(err))
	assert.False(t, querycraft.IsUnsupportedDatabase(nil))
}

func TestUnsupportedDataTypeError(t *testing.T) {
	err := querycraft.NewUnsupportedDataTypeError("sqlite", "INTERVAL")
	assert.Equal(t, `querycraft: data type "INTERVAL" is not supported by the sqlite dialect`, err.Error())
	assert.True(t, errors.Is(err, querycraft.ErrUnsupportedDataType))
	assert.True(t, querycraft.IsUnsupportedDataType(fmt.Errorf("types: %w", err)))
}

func TestConstraintError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := querycraft.NewConstraintError(querycraft.ConstraintUnique, "duplicate key", nil)
		assert.Equal(t, "querycraft: unique constraint failed: duplicate key", err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		underlying := errors.New("pq: duplicate key value")
		err := querycraft.NewConstraintError(querycraft.ConstraintUnique, "duplicate", underlying)
		assert.True(t, errors.Is(err, underlying))
		assert.True(t, errors.Is(err, querycraft.ErrConstraint))
	})

	t.Run("IsConstraintError", func(t *testing.T) {
		err := querycraft.NewConstraintError(querycraft.ConstraintForeignKey, "fk", nil)
		assert.True(t, querycraft.IsConstraintError(err))
		assert.True(t, querycraft.IsConstraintError(fmt.Errorf("exec: %w", err)))
		assert.False(t, querycraft.IsConstraintError(errors.New("other")))
		assert.False(t, querycraft.IsConstraintError(nil))
	})
}

func TestAggregateError(t *testing.T) {
	t.Run("NoErrors", func(t *testing.T) {
		err := querycraft.NewAggregateError()
		assert.Nil(t, err)
	})

	t.Run("NilErrors", func(t *testing.T) {
		err := querycraft.NewAggregateError(nil, nil, nil)
		assert.Nil(t, err)
	})

	t.Run("SingleError", func(t *testing.T) {
		single := errors.New("single error")
		err := querycraft.NewAggregateError(single)
		assert.Equal(t, single, err)
	})

	t.Run("MultipleErrors", func(t *testing.T) {
		err1 := querycraft.NewValidationError("SELECT", "SELECT query must have a FROM clause")
		err2 := errors.New("error 2")
		err := querycraft.NewAggregateError(err1, err2)

		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "multiple errors")
		assert.Contains(t, err.Error(), "FROM clause")
		assert.Contains(t, err.Error(), "error 2")
		assert.True(t, errors.Is(err, querycraft.ErrValidation))
	})
}

func TestCacheKey(t *testing.T) {
	k := querycraft.CacheKey{Dialect: "postgres", Statement: "active_users", Version: 2}
	assert.Equal(t, "postgres:active_users:2", k.String())
}

// BenchmarkErrors benchmarks error creation and checking.
func BenchmarkErrors(b *testing.B) {
	b.Run("NewValidationError", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = querycraft.NewValidationError("SELECT", "SELECT query must have a FROM clause")
		}
	})

	b.Run("IsValidationError", func(b *testing.B) {
		err := fmt.Errorf("wrap: %w", querycraft.NewValidationError("SELECT", "x"))
		for i := 0; i < b.N; i++ {
			_ = querycraft.IsValidationError(err)
		}
	})
}
