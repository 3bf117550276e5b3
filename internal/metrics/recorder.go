package metrics

import "github.com/san-kum/earther/internal/shell"

// DefaultHistory is the number of values each Recorder series keeps.
const DefaultHistory = 120

// Recorder feeds painted frames to a set of metrics and keeps a bounded
// history of their values. It is a shell.Observer.
type Recorder struct {
	metrics []Metric
	history map[string][]float64
	limit   int
}

func NewRecorder(limit int, ms ...Metric) *Recorder {
	if limit <= 0 {
		limit = DefaultHistory
	}
	return &Recorder{
		metrics: ms,
		history: make(map[string][]float64, len(ms)),
		limit:   limit,
	}
}

func (r *Recorder) OnFrame(frame shell.Snapshot, materials []int) {
	for _, m := range r.metrics {
		m.Observe(frame, materials)
		h := append(r.history[m.Name()], m.Value())
		if len(h) > r.limit {
			h = h[len(h)-r.limit:]
		}
		r.history[m.Name()] = h
	}
}

func (r *Recorder) Metrics() []Metric { return r.metrics }

// Value returns the latest value of the named metric.
func (r *Recorder) Value(name string) (float64, bool) {
	for _, m := range r.metrics {
		if m.Name() == name {
			return m.Value(), true
		}
	}
	return 0, false
}

// History returns the recorded values of the named metric, oldest first.
func (r *Recorder) History(name string) []float64 {
	return r.history[name]
}

func (r *Recorder) Reset() {
	for _, m := range r.metrics {
		m.Reset()
	}
	r.history = make(map[string][]float64, len(r.metrics))
}
