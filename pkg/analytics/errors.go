package analytics

import "errors"

var (
	// ErrInsufficientData is returned when a window is too short for a
	// statistically meaningful estimate.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDegenerateInput is returned for zero variance, zero volume or
	// another non-invertible numeric condition.
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrLengthMismatch is returned when misaligned series are passed
	// across a component boundary.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrNumericInstability is returned when a filter or regression step
	// produced NaN/Inf.
	ErrNumericInstability = errors.New("numeric instability")

	// ErrInvalidParameter is returned when a configuration value is invalid.
	ErrInvalidParameter = errors.New("invalid parameter")
)
