// Package analysis provides spectral tools for keyframe time series.
//
//   - [PowerSpectrum]: one-sided power spectrum of a mean-removed series
//   - [DominantPeriod]: period, in samples, of the strongest non-DC bin
//   - [Summarize]: mean, spread and range of a series
//
// # Seasonal Cycle
//
// Monthly keyframes of a surface variable usually peak at twelve samples:
//
//	period, ok := analysis.DominantPeriod(values)
//	if ok && math.Abs(period-12) < 1 {
//	    // annual cycle
//	}
package analysis
