package analysis

import (
	"errors"
	"math"
	"testing"
)

func sine(n int, period float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 280 + 10*math.Sin(2*math.Pi*float64(i)/period)
	}
	return out
}

func TestPowerSpectrumLength(t *testing.T) {
	ps := PowerSpectrum(sine(24, 12))
	if len(ps) != 13 {
		t.Fatalf("expected 13 bins, got %d", len(ps))
	}
	if ps[0] > 1e-9 {
		t.Errorf("expected DC removed, got %f", ps[0])
	}
}

func TestDominantPeriod(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		period float64
	}{
		{"annual over two years", 24, 12},
		{"semiannual", 24, 6},
		{"odd length", 30, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DominantPeriod(sine(tt.n, tt.period))
			if !ok {
				t.Fatal("expected a period")
			}
			if math.Abs(got-tt.period) > 1e-6 {
				t.Errorf("expected period %f, got %f", tt.period, got)
			}
		})
	}
}

func TestDominantPeriodFlat(t *testing.T) {
	if _, ok := DominantPeriod([]float64{1, 1, 1, 1, 1, 1}); ok {
		t.Error("expected no period for a constant series")
	}
	if _, ok := DominantPeriod([]float64{1, 2}); ok {
		t.Error("expected no period for a short series")
	}
}

func TestSummarize(t *testing.T) {
	s, err := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if s.Mean != 5 || s.StdDev != 2 || s.Min != 2 || s.Max != 9 {
		t.Errorf("unexpected summary %+v", s)
	}

	if _, err := Summarize(nil); !errors.Is(err, ErrShortSeries) {
		t.Errorf("expected ErrShortSeries, got %v", err)
	}
}
