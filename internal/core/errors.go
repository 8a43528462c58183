package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedFormat aborts a whole run: no parser matches the declared
	// category or file name.
	ErrUnrecognizedFormat = errors.New("unrecognized file format")

	// ErrMalformedIdentifier marks an id cell that is not a prefix plus digits.
	ErrMalformedIdentifier = errors.New("malformed identifier")

	// ErrColumnCount marks a row whose cell count differs from its format.
	ErrColumnCount = errors.New("column count mismatch")

	// ErrInvalidValue marks a cell that cannot be converted or violates a
	// column constraint (length, sign, boolean vocabulary, required).
	ErrInvalidValue = errors.New("invalid value")

	// ErrNotFound is returned by Store lookups when no record matches.
	ErrNotFound = errors.New("not found")

	// ErrIntegrity is returned by Store writes rejected by a uniqueness,
	// foreign key or not-null constraint.
	ErrIntegrity = errors.New("integrity violation")
)

// RowError describes why one input row was not stored. It never escapes a
// run; the parser logs it and moves on.
type RowError struct {
	Line int
	Kind EntityKind
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Kind, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// invalidf builds an ErrInvalidValue with context.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidValue, fmt.Sprintf(format, args...))
}
