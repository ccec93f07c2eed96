package querycraft

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors returned (wrapped) by every layer of the library.
var (
	// ErrValidation is returned when a statement fails structural validation.
	ErrValidation = errors.New("querycraft: validation failed")

	// ErrInvalidIdentifier is returned when a table, column, alias or function
	// name does not match the identifier grammar.
	ErrInvalidIdentifier = errors.New("querycraft: invalid identifier")

	// ErrInvalidFunctionParameter is returned when a parameter of a
	// function-call identifier is not an identifier, "*" or a number.
	ErrInvalidFunctionParameter = errors.New("querycraft: invalid function parameter")

	// ErrUnsupportedFeature is returned when a construct is rendered for a
	// dialect that does not implement it.
	ErrUnsupportedFeature = errors.New("querycraft: unsupported feature")

	// ErrUnsupportedDatabase is returned for unknown engine names.
	ErrUnsupportedDatabase = errors.New("querycraft: unsupported database")

	// ErrUnsupportedDataType is returned when a logical data type has no
	// mapping for a dialect.
	ErrUnsupportedDataType = errors.New("querycraft: unsupported data type")

	// ErrConstraint is returned when the database rejects a statement because
	// of a constraint violation.
	ErrConstraint = errors.New("querycraft: constraint failed")
)

// ValidationError represents a structural defect of a statement, detected
// before anything is rendered.
type ValidationError struct {
	Statement string // Statement kind (SELECT, INSERT, ...)
	Message   string // Human readable description of the defect
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return "querycraft: validation failed: " + e.Message
}

// Is reports whether the target error matches ValidationError.
// This allows errors.Is(validationErr, ErrValidation) to return true.
func (e *ValidationError) Is(err error) bool {
	return err == ErrValidation
}

// NewValidationError returns a new ValidationError for the given statement kind.
func NewValidationError(stmt, format string, args ...any) *ValidationError {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &ValidationError{Statement: stmt, Message: msg}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e) || errors.Is(err, ErrValidation)
}

// InvalidIdentifierError is returned when a name fails the identifier grammar.
type InvalidIdentifierError struct {
	Name   string // The offending text
	Reason string
}

// Error returns the error string.
func (e *InvalidIdentifierError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("querycraft: invalid identifier %q: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("querycraft: invalid identifier %q", e.Name)
}

// Is reports whether the target error matches InvalidIdentifierError.
func (e *InvalidIdentifierError) Is(err error) bool {
	return err == ErrInvalidIdentifier
}

// NewInvalidIdentifierError returns a new InvalidIdentifierError.
func NewInvalidIdentifierError(name, reason string) *InvalidIdentifierError {
	return &InvalidIdentifierError{Name: name, Reason: reason}
}

// IsInvalidIdentifier returns true if the error is an InvalidIdentifierError.
func IsInvalidIdentifier(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidIdentifierError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidIdentifier)
}

// InvalidFunctionParameterError is returned when a function-call identifier
// carries a parameter outside the accepted grammar.
type InvalidFunctionParameterError struct {
	Function string
	Param    string
	Reason   string
}

// Error returns the error string.
func (e *InvalidFunctionParameterError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("querycraft: invalid parameter %q for function %s: %s", e.Param, e.Function, e.Reason)
	}
	return fmt.Sprintf("querycraft: invalid parameter %q for function %s", e.Param, e.Function)
}

// Is reports whether the target error matches InvalidFunctionParameterError.
func (e *InvalidFunctionParameterError) Is(err error) bool {
	return err == ErrInvalidFunctionParameter
}

// NewInvalidFunctionParameterError returns a new InvalidFunctionParameterError.
func NewInvalidFunctionParameterError(fn, param, reason string) *InvalidFunctionParameterError {
	return &InvalidFunctionParameterError{Function: fn, Param: param, Reason: reason}
}

// IsInvalidFunctionParameter returns true if the error is an InvalidFunctionParameterError.
func IsInvalidFunctionParameter(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidFunctionParameterError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidFunctionParameter)
}

// UnsupportedFeatureError is returned when a dialect-gated construct is used
// with a dialect that does not implement it.
type UnsupportedFeatureError struct {
	Dialect string
	Feature string
	Hint    string // Optional: what to use instead
}

// Error returns the error string.
func (e *UnsupportedFeatureError) Error() string {
	msg := fmt.Sprintf("querycraft: %s is not supported by the %s dialect", e.Feature, e.Dialect)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// Is reports whether the target error matches UnsupportedFeatureError.
func (e *UnsupportedFeatureError) Is(err error) bool {
	return err == ErrUnsupportedFeature
}

// NewUnsupportedFeatureError returns a new UnsupportedFeatureError.
func NewUnsupportedFeatureError(dialect, feature string) *UnsupportedFeatureError {
	return &UnsupportedFeatureError{Dialect: dialect, Feature: feature}
}

// IsUnsupportedFeature returns true if the error is an UnsupportedFeatureError.
func IsUnsupportedFeature(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedFeatureError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupportedFeature)
}

// UnsupportedDatabaseError is returned when an engine name is not registered.
type UnsupportedDatabaseError struct {
	Name string
}

// Error returns the error string.
func (e *UnsupportedDatabaseError) Error() string {
	return fmt.Sprintf("querycraft: unsupported database %q", e.Name)
}

// Is reports whether the target error matches UnsupportedDatabaseError.
func (e *UnsupportedDatabaseError) Is(err error) bool {
	return err == ErrUnsupportedDatabase
}

// NewUnsupportedDatabaseError returns a new UnsupportedDatabaseError.
func NewUnsupportedDatabaseError(name string) *UnsupportedDatabaseError {
	return &UnsupportedDatabaseError{Name: name}
}

// IsUnsupportedDatabase returns true if the error is an UnsupportedDatabaseError.
func IsUnsupportedDatabase(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedDatabaseError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupportedDatabase)
}

// UnsupportedDataTypeError is returned when a logical type has no native
// mapping for a dialect.
type UnsupportedDataTypeError struct {
	Dialect string
	Type    string
}

// Error returns the error string.
func (e *UnsupportedDataTypeError) Error() string {
	return fmt.Sprintf("querycraft: data type %q is not supported by the %s dialect", e.Type, e.Dialect)
}

// Is reports whether the target error matches UnsupportedDataTypeError.
func (e *UnsupportedDataTypeError) Is(err error) bool {
	return err == ErrUnsupportedDataType
}

// NewUnsupportedDataTypeError returns a new UnsupportedDataTypeError.
func NewUnsupportedDataTypeError(dialect, typ string) *UnsupportedDataTypeError {
	return &UnsupportedDataTypeError{Dialect: dialect, Type: typ}
}

// IsUnsupportedDataType returns true if the error is an UnsupportedDataTypeError.
func IsUnsupportedDataType(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedDataTypeError
	return errors.As(err, &e) || errors.Is(err, ErrUnsupportedDataType)
}

// ConstraintKind classifies a constraint violation.
type ConstraintKind string

// Constraint kinds reported by ConstraintError.
const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign key"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintNotNull    ConstraintKind = "not null"
)

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	Kind ConstraintKind
	msg  string
	wrap error
}

// Error returns the error string.
func (e *ConstraintError) Error() string {
	return fmt.Sprintf("querycraft: %s constraint failed: %s", e.Kind, e.msg)
}

// Is reports whether the target error matches ConstraintError.
func (e *ConstraintError) Is(err error) bool {
	return err == ErrConstraint
}

// Unwrap returns the underlying driver error.
func (e *ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError wrapping the driver error.
func NewConstraintError(kind ConstraintKind, msg string, wrap error) *ConstraintError {
	return &ConstraintError{Kind: kind, msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConstraintError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "querycraft: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("querycraft: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
