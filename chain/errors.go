package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidM is returned when the number of imputation copies is not
	// positive.
	ErrInvalidM = errors.New("chain: number of imputations m must be positive")

	// ErrInvalidIterations is returned when a negative iteration count is
	// requested.
	ErrInvalidIterations = errors.New("chain: iteration count must not be negative")

	// ErrInvalidCopy is returned when a copy index is out of range.
	ErrInvalidCopy = errors.New("chain: imputation copy index out of range")
)

// ErrUnknownColumn indicates a configuration element referencing a column the
// dataset does not have.
type ErrUnknownColumn struct {
	Column string
	Where  string
}

func (e *ErrUnknownColumn) Error() string {
	return fmt.Sprintf("chain: unknown column %q in %s", e.Column, e.Where)
}

// ErrDimensionMismatch indicates a user-supplied configuration object whose
// size does not match the dataset.
type ErrDimensionMismatch struct {
	What     string
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("chain: %s dimension mismatch: expected %d, got %d", e.What, e.Expected, e.Actual)
}

// ErrNotImputable indicates a visit sequence naming a column that has no
// imputation method assigned.
type ErrNotImputable struct {
	Column string
}

func (e *ErrNotImputable) Error() string {
	return fmt.Sprintf("chain: column %q has no imputation method but appears in the visit sequence", e.Column)
}

// ErrIncompletePredictor indicates a column that is excluded from imputation
// but still has missing values while serving as a predictor. Such a column
// would feed undefined values into every model that conditions on it.
type ErrIncompletePredictor struct {
	Column string
}

func (e *ErrIncompletePredictor) Error() string {
	return fmt.Sprintf("chain: column %q is not imputed, has missing values, and is used as a predictor", e.Column)
}
