package metrics

import (
	"math"

	"github.com/san-kum/earther/internal/shell"
)

// Metric summarizes each painted frame of a shell.
type Metric interface {
	Name() string
	Observe(frame shell.Snapshot, materials []int)
	Value() float64
	Reset()
}

// Mean is the mean of the finite values in the last observed frame.
type Mean struct {
	name  string
	value float64
}

func NewMean() *Mean {
	return &Mean{name: "mean"}
}

func (m *Mean) Name() string { return m.name }

func (m *Mean) Observe(frame shell.Snapshot, materials []int) {
	sum, n := 0.0, 0
	for _, v := range frame {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		m.value = 0
		return
	}
	m.value = sum / float64(n)
}

func (m *Mean) Value() float64 { return m.value }

func (m *Mean) Reset() { m.value = 0 }

// Coverage is the share of cells drawn with a non-zero material index.
type Coverage struct {
	name  string
	value float64
}

func NewCoverage() *Coverage {
	return &Coverage{name: "coverage"}
}

func (c *Coverage) Name() string { return c.name }

func (c *Coverage) Observe(frame shell.Snapshot, materials []int) {
	if len(materials) == 0 {
		c.value = 0
		return
	}
	lit := 0
	for _, m := range materials {
		if m > 0 {
			lit++
		}
	}
	c.value = float64(lit) / float64(len(materials))
}

func (c *Coverage) Value() float64 { return c.value }

func (c *Coverage) Reset() { c.value = 0 }

// Extremes is the share of values outside the display range, which the
// colormap clamps.
type Extremes struct {
	name     string
	min, max float64
	value    float64
}

func NewExtremes(min, max float64) *Extremes {
	return &Extremes{name: "extremes", min: min, max: max}
}

func (e *Extremes) SetRange(min, max float64) {
	e.min, e.max = min, max
}

func (e *Extremes) Name() string { return e.name }

func (e *Extremes) Observe(frame shell.Snapshot, materials []int) {
	if len(frame) == 0 {
		e.value = 0
		return
	}
	out := 0
	for _, v := range frame {
		if v < e.min || v > e.max {
			out++
		}
	}
	e.value = float64(out) / float64(len(frame))
}

func (e *Extremes) Value() float64 { return e.value }

func (e *Extremes) Reset() { e.value = 0 }
