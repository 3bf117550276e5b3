package shell

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// KeyframeSlot is one configured time step.
type KeyframeSlot struct {
	Time     float64
	Loaded   bool
	Failed   bool
	Snapshot Snapshot
	// InterpolationDone marks the segment ending at this slot as filled.
	InterpolationDone bool
}

// KeyframeStore tracks keyframe arrival and fills segments between adjacent
// loaded keyframes.
type KeyframeStore struct {
	slots     []KeyframeSlot
	level     int
	cellCount int
	frames    *FrameSequence
	log       zerolog.Logger
}

// NewKeyframeStore creates a store producing stepsPerSegment frames per
// segment. A cellCount of zero disables the grid shape check.
func NewKeyframeStore(stepsPerSegment, cellCount int, log zerolog.Logger) *KeyframeStore {
	return &KeyframeStore{
		cellCount: cellCount,
		frames:    NewFrameSequence(stepsPerSegment),
		log:       log,
	}
}

// Configure resets the store to one empty slot per time value.
func (s *KeyframeStore) Configure(times []float64, level int) {
	s.level = level
	s.slots = make([]KeyframeSlot, len(times))
	for i, t := range times {
		s.slots[i].Time = t
	}
	s.frames.Reset()
}

// Ingest stores the snapshot for slot index and fills every segment that
// became complete. Re-ingesting an index replaces its snapshot but never
// redoes a segment that is already filled.
func (s *KeyframeStore) Ingest(index int, snap Snapshot) error {
	if index < 0 || index >= len(s.slots) {
		return fmt.Errorf("%w: %d (have %d)", ErrSlotOutOfRange, index, len(s.slots))
	}
	slot := &s.slots[index]
	slot.Snapshot = snap
	slot.Loaded = true
	slot.Failed = false

	s.scan()
	return nil
}

// Fail records a permanent gap at index. Segments touching it stay blocked.
func (s *KeyframeStore) Fail(index int, err error) {
	if index < 0 || index >= len(s.slots) {
		return
	}
	s.slots[index].Failed = true
	s.log.Warn().Err(err).Int("slot", index).Int("level", s.level).
		Float64("time", s.slots[index].Time).Msg("keyframe unavailable")
}

func (s *KeyframeStore) scan() {
	for i := 1; i < len(s.slots); i++ {
		prev, cur := &s.slots[i-1], &s.slots[i]
		if cur.InterpolationDone || !prev.Loaded || !cur.Loaded {
			continue
		}
		if err := s.fill(i-1, prev.Snapshot, cur.Snapshot); err != nil {
			s.log.Error().Err(err).Int("segment", i-1).Int("level", s.level).
				Msg("segment interpolation failed")
			continue
		}
		cur.InterpolationDone = true
	}
}

func (s *KeyframeStore) fill(segment int, a, b Snapshot) error {
	if s.cellCount > 0 && (len(a) != s.cellCount || len(b) != s.cellCount) {
		return &SegmentError{
			Segment: segment,
			Wrapped: fmt.Errorf("%w: grid has %d cells, keyframes have %d and %d",
				ErrShapeMismatch, s.cellCount, len(a), len(b)),
		}
	}
	frames, err := Interpolate(a, b, s.frames.StepsPerSegment())
	if err != nil {
		return &SegmentError{Segment: segment, Wrapped: err}
	}
	s.frames.Fill(segment, frames)
	return nil
}

// Slots returns the slot table. Callers must treat it as read-only.
func (s *KeyframeStore) Slots() []KeyframeSlot { return s.slots }

// Slot returns slot i and whether it exists.
func (s *KeyframeStore) Slot(i int) (KeyframeSlot, bool) {
	if i < 0 || i >= len(s.slots) {
		return KeyframeSlot{}, false
	}
	return s.slots[i], true
}

// LoadedCount returns how many slots hold a snapshot.
func (s *KeyframeStore) LoadedCount() int {
	n := 0
	for _, slot := range s.slots {
		if slot.Loaded {
			n++
		}
	}
	return n
}

// SegmentsDone returns how many segments have been filled.
func (s *KeyframeStore) SegmentsDone() int {
	n := 0
	for _, slot := range s.slots {
		if slot.InterpolationDone {
			n++
		}
	}
	return n
}

// Frames returns the frame sequence filled by this store.
func (s *KeyframeStore) Frames() *FrameSequence { return s.frames }

// Level returns the vertical level the store was configured for.
func (s *KeyframeStore) Level() int { return s.level }

// IsShapeMismatch reports whether err stems from a snapshot shape mismatch.
func IsShapeMismatch(err error) bool { return errors.Is(err, ErrShapeMismatch) }
