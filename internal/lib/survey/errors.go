package survey

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientStations is returned when fewer than two stations are supplied
	ErrInsufficientStations = errors.New("survey requires at least 2 stations")

	// ErrInvalidDepth marks a negative or non-finite station depth
	ErrInvalidDepth = errors.New("depth must be finite and non-negative")

	// ErrNonMonotonicDepth marks a depth that does not increase on its predecessor
	ErrNonMonotonicDepth = errors.New("depths must be strictly increasing")

	// ErrInvertedInterval is returned when an interval's from depth exceeds its to depth
	ErrInvertedInterval = errors.New("interval from depth is greater than to depth")
)

// SurveyLengthMismatchError reports azimuth/dip/depth arrays of differing length
type SurveyLengthMismatchError struct {
	Azimuth int
	Dip     int
	Depth   int
}

func (e *SurveyLengthMismatchError) Error() string {
	return fmt.Sprintf("survey datasets have varying lengths: azimuth=%d dip=%d depth=%d",
		e.Azimuth, e.Dip, e.Depth)
}

// Lengths returns the (azimuth, dip, depth) array lengths
func (e *SurveyLengthMismatchError) Lengths() (int, int, int) {
	return e.Azimuth, e.Dip, e.Depth
}

// Stage names a step of the minimum curvature calculation
type Stage string

const (
	StageVariableSetup  Stage = "variable-setup"
	StageDogleg         Stage = "dogleg"
	StageRatioFactor    Stage = "ratio-factor"
	StagePositionUpdate Stage = "position-update"
)

// ComputationError reports a numeric failure at a solver stage for the
// station pair (Index, Index+1).
type ComputationError struct {
	Stage Stage
	Index int
	Err   error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("minimum curvature failed at stage %s (stations %d-%d): %v",
		e.Stage, e.Index, e.Index+1, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// DepthError identifies the station whose depth failed validation
type DepthError struct {
	Index int
	Depth float64
	Err   error
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("station %d depth %g: %v", e.Index, e.Depth, e.Err)
}

func (e *DepthError) Unwrap() error {
	return e.Err
}

// OutOfRangeError is returned by the sampler for depths outside the recorded
// survey. It is not fatal: callers are expected to log it and carry on.
type OutOfRangeError struct {
	Depth    float64
	MinDepth float64
	MaxDepth float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("depth %g is outside the surveyed range [%g, %g]", e.Depth, e.MinDepth, e.MaxDepth)
}

// IsOutOfRange reports whether err is (or wraps) an *OutOfRangeError
func IsOutOfRange(err error) bool {
	var oor *OutOfRangeError
	return errors.As(err, &oor)
}
