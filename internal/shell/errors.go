package shell

import "errors"

var (
	// ErrShapeMismatch indicates two snapshots, or a snapshot and the grid,
	// disagree on the number of cells.
	ErrShapeMismatch = errors.New("shell: snapshot shape mismatch")

	// ErrInvalidStepCount indicates a non-positive frames-per-segment value.
	ErrInvalidStepCount = errors.New("shell: step count must be positive")

	// ErrSlotOutOfRange indicates a keyframe index outside the configured time steps.
	ErrSlotOutOfRange = errors.New("shell: keyframe index out of range")

	// ErrNotConfigured indicates SetDisplay was called before Configure.
	ErrNotConfigured = errors.New("shell: variable not configured")

	// ErrDiscarded indicates an operation on a shell that was replaced.
	ErrDiscarded = errors.New("shell: shell discarded")

	// ErrNoTimeSteps indicates the variable info carried no time values.
	ErrNoTimeSteps = errors.New("shell: variable has no time steps")
)

// SegmentError wraps an interpolation failure with the segment it belongs to.
type SegmentError struct {
	Segment int
	Wrapped error
}

func (e *SegmentError) Error() string {
	return e.Wrapped.Error()
}

func (e *SegmentError) Unwrap() error {
	return e.Wrapped
}
