package engine

import "fmt"

// InvalidInputError covers input-shape failures: a NaN percentile index,
// an out-of-range analysed-bit count, too few additional arrays, or
// mismatched left/right lengths.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string { return "engine: invalid input: " + e.Reason }

func (e *InvalidInputError) Is(target error) bool {
	_, ok := target.(*InvalidInputError)
	return ok
}

// OutOfRangeError is raised when a requested [arrayPos, arrayPos+count)
// range exceeds the matrix length.
type OutOfRangeError struct {
	ArrayPos int64
	Count    int64
	Length   int64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("engine: range [%d, %d) out of bounds for length %d", e.ArrayPos, e.ArrayPos+e.Count, e.Length)
}

func (e *OutOfRangeError) Is(target error) bool {
	_, ok := target.(*OutOfRangeError)
	return ok
}

// TooLargePatternError is raised when the aperture or per-step update
// vector would overflow int arithmetic.
type TooLargePatternError struct {
	Reason string
}

func (e *TooLargePatternError) Error() string { return "engine: pattern too large: " + e.Reason }

func (e *TooLargePatternError) Is(target error) bool {
	_, ok := target.(*TooLargePatternError)
	return ok
}

// TooLargeDimensionsError is raised when a layer size or dimension product
// would overflow.
type TooLargeDimensionsError struct {
	Reason string
}

func (e *TooLargeDimensionsError) Error() string {
	return "engine: dimensions too large: " + e.Reason
}

func (e *TooLargeDimensionsError) Is(target error) bool {
	_, ok := target.(*TooLargeDimensionsError)
	return ok
}

// InternalInvariantError is raised when a debug-mode or always-on runtime
// assertion fires: a negative bar count, a negative integral, or a rank
// inconsistency. These indicate a programming bug, not bad input.
type InternalInvariantError struct {
	Reason string
}

func (e *InternalInvariantError) Error() string {
	return "engine: internal invariant violated: " + e.Reason
}

func (e *InternalInvariantError) Is(target error) bool {
	_, ok := target.(*InternalInvariantError)
	return ok
}
