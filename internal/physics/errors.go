package physics

import (
	"errors"
	"fmt"
)

// Construction errors. Every failure in this package happens while building
// or resizing a Solver; ticking never fails.
var (
	// ErrSizeTooLarge indicates a bounds dimension above MaxDimension.
	ErrSizeTooLarge = errors.New("physics: bounds exceed 16-bit coordinate range")

	// ErrInvalidSize indicates a bounds dimension below one cell.
	ErrInvalidSize = errors.New("physics: bounds must cover at least one cell")

	// ErrBandTooNarrow indicates a collision band that is not taller than
	// twice the neighbor reach.
	ErrBandTooNarrow = errors.New("physics: collision band too narrow for neighbor reach")

	// ErrInvalidOption indicates an out-of-range solver option.
	ErrInvalidOption = errors.New("physics: solver option out of range")
)

// ConfigError records which setting was rejected.
type ConfigError struct {
	Field   string
	Value   float64
	Wrapped error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v (%s=%g)", e.Wrapped, e.Field, e.Value)
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}
