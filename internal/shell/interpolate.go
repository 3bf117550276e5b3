package shell

import (
	"fmt"
	"math"
)

// Snapshot holds one scalar per grid cell, indexed by gridIndex.
type Snapshot []float64

func (s Snapshot) Clone() Snapshot {
	c := make(Snapshot, len(s))
	copy(c, s)
	return c
}

// IsFinite reports whether every value is a real number.
func (s Snapshot) IsFinite() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Interpolate returns steps frames tweening from a towards b. Frame j is
// a + (j/steps)*(b-a); frame 0 equals a and b itself is not included, since
// it opens the next segment.
func Interpolate(a, b Snapshot, steps int) ([]Snapshot, error) {
	if steps <= 0 {
		return nil, ErrInvalidStepCount
	}
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d vs %d cells", ErrShapeMismatch, len(a), len(b))
	}

	delta := make([]float64, len(a))
	for k := range a {
		delta[k] = b[k] - a[k]
	}

	frames := make([]Snapshot, steps)
	frames[0] = a.Clone()
	for j := 1; j < steps; j++ {
		c := float64(j) / float64(steps)
		frame := make(Snapshot, len(a))
		for k := range a {
			frame[k] = a[k] + c*delta[k]
		}
		frames[j] = frame
	}
	return frames, nil
}

// FrameSequence is the growing list of display-ready frames. Segments may
// be filled out of order, so entries can be missing.
type FrameSequence struct {
	frames []Snapshot
	steps  int
}

func NewFrameSequence(stepsPerSegment int) *FrameSequence {
	return &FrameSequence{steps: stepsPerSegment}
}

// StepsPerSegment returns the number of frames each segment contributes.
func (f *FrameSequence) StepsPerSegment() int { return f.steps }

// Set stores a frame at index k, growing the sequence if needed.
func (f *FrameSequence) Set(k int, s Snapshot) {
	if k < 0 {
		return
	}
	if k >= len(f.frames) {
		grown := make([]Snapshot, k+1)
		copy(grown, f.frames)
		f.frames = grown
	}
	f.frames[k] = s
}

// Fill writes the frames of one segment at segment*steps.
func (f *FrameSequence) Fill(segment int, frames []Snapshot) {
	base := segment * f.steps
	for j, s := range frames {
		f.Set(base+j, s)
	}
}

// At returns frame k or nil when it has not been produced.
func (f *FrameSequence) At(k int) Snapshot {
	if k < 0 || k >= len(f.frames) {
		return nil
	}
	return f.frames[k]
}

// Len returns one past the highest index ever set.
func (f *FrameSequence) Len() int { return len(f.frames) }

// LastContiguous returns the highest index reachable by unbroken fill from
// frame 0, or -1 when frame 0 is missing.
func (f *FrameSequence) LastContiguous() int {
	last := -1
	for i, s := range f.frames {
		if s == nil {
			break
		}
		last = i
	}
	return last
}

// Reset drops all frames.
func (f *FrameSequence) Reset() {
	f.frames = nil
}
