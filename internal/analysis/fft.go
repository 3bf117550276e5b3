package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var ErrShortSeries = errors.New("analysis: series too short")

// PowerSpectrum returns |X_k|^2/n for k = 0..n/2 after removing the mean.
func PowerSpectrum(series []float64) []float64 {
	n := len(series)
	if n == 0 {
		return nil
	}
	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range series {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, n/2+1)
	for k := range ps {
		a := cmplx.Abs(spectrum[k])
		ps[k] = a * a / float64(n)
	}
	return ps
}

// DominantPeriod returns n/k for the strongest bin k >= 1. It reports false
// for series shorter than four samples or with no variation.
func DominantPeriod(series []float64) (float64, bool) {
	n := len(series)
	if n < 4 {
		return 0, false
	}
	ps := PowerSpectrum(series)
	best, bestPower := 0, 0.0
	for k := 1; k < len(ps); k++ {
		if ps[k] > bestPower {
			best, bestPower = k, ps[k]
		}
	}
	if best == 0 || bestPower < 1e-12 {
		return 0, false
	}
	return float64(n) / float64(best), true
}

type Summary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

func Summarize(series []float64) (Summary, error) {
	if len(series) == 0 {
		return Summary{}, ErrShortSeries
	}
	s := Summary{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range series {
		s.Mean += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean /= float64(len(series))
	for _, v := range series {
		d := v - s.Mean
		s.StdDev += d * d
	}
	s.StdDev = math.Sqrt(s.StdDev / float64(len(series)))
	return s, nil
}
