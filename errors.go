package nearest

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for malformed input: mismatched buffer lengths,
	// non-finite coordinates, or target filters that reference unknown targets.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyTargetSet is returned when the target set has zero length,
	// which leaves "closest target" undefined.
	ErrEmptyTargetSet = errors.New("empty target set")

	// ErrNoEligibleTarget is returned when a target filter excludes every target.
	// It satisfies errors.Is(err, ErrEmptyTargetSet).
	ErrNoEligibleTarget = fmt.Errorf("%w: no eligible target", ErrEmptyTargetSet)
)

// LengthError indicates a buffer whose length does not match what the
// operation requires.
//
// It satisfies errors.Is(err, ErrInvalidInput).
type LengthError struct {
	What     string
	Expected int
	Actual   int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("%s length mismatch: expected %d, got %d", e.What, e.Expected, e.Actual)
}

func (e *LengthError) Unwrap() error { return ErrInvalidInput }

// NonFiniteError indicates a point with a NaN or infinite coordinate.
//
// It satisfies errors.Is(err, ErrInvalidInput).
type NonFiniteError struct {
	Set   string // "sources" or "targets"
	Index int
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("non-finite coordinate in %s[%d]", e.Set, e.Index)
}

func (e *NonFiniteError) Unwrap() error { return ErrInvalidInput }

// TargetIndexError indicates a target filter entry outside [0, Len).
//
// It satisfies errors.Is(err, ErrInvalidInput).
type TargetIndexError struct {
	Index uint32
	Len   int
}

func (e *TargetIndexError) Error() string {
	return fmt.Sprintf("eligible target %d out of range [0, %d)", e.Index, e.Len)
}

func (e *TargetIndexError) Unwrap() error { return ErrInvalidInput }
