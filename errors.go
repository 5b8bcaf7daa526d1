package micego

import (
	"errors"
	"fmt"

	"github.com/hupe1980/micego/chain"
)

var (
	// ErrInvalidM is returned when the number of imputation copies is not
	// positive.
	ErrInvalidM = errors.New("m must be positive")

	// ErrInvalidIter is returned when a negative iteration count is requested.
	ErrInvalidIter = errors.New("iteration count must not be negative")

	// ErrResumeConfig is returned when Resume is given configuration options
	// that are inherited from the prior state and cannot be re-specified.
	ErrResumeConfig = errors.New("m, seed, methods, predictor matrix and visit sequence are inherited on resume")
)

// ErrUnknownColumn indicates a configuration element referencing a column the
// dataset does not have.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrUnknownColumn struct {
	Column string
	Where  string
	cause  error
}

func (e *ErrUnknownColumn) Error() string {
	return fmt.Sprintf("unknown column %q in %s", e.Column, e.Where)
}

func (e *ErrUnknownColumn) Unwrap() error { return e.cause }

// ErrDimensionMismatch indicates a user-supplied configuration object whose
// size does not match the dataset.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	What     string
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("%s dimension mismatch: expected %d, got %d", e.What, e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, chain.ErrInvalidM) {
		return fmt.Errorf("%w: %w", ErrInvalidM, err)
	}
	if errors.Is(err, chain.ErrInvalidIterations) {
		return fmt.Errorf("%w: %w", ErrInvalidIter, err)
	}

	var uc *chain.ErrUnknownColumn
	if errors.As(err, &uc) {
		return &ErrUnknownColumn{Column: uc.Column, Where: uc.Where, cause: err}
	}
	var dm *chain.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{What: dm.What, Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	return err
}
