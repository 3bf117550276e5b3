// Package calendar labels model days on the 365-day no-leap calendar used by
// the climate runs.
package calendar

import (
	"math"
	"strconv"
)

const (
	StartYear   = 2000
	DaysPerYear = 365
)

// monthEnds holds the cumulative day count at the end of each month.
var monthEnds = [12]float64{31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334, 365}

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// SanitizeTime snaps day forward to the nearest month end of its year.
// Month ends are returned unchanged.
func SanitizeTime(day float64) float64 {
	base := DaysPerYear * math.Floor(day/DaysPerYear)
	rem := day - base
	for _, end := range monthEnds {
		if rem <= end {
			return base + end
		}
	}
	return base + DaysPerYear
}

// Month returns the zero-based month index and the year of a model day.
func Month(day float64) (int, int) {
	yearOffset := math.Floor(day / DaysPerYear)
	rem := SanitizeTime(day - yearOffset*DaysPerYear)
	for i, end := range monthEnds {
		if rem == end {
			return i, StartYear + int(yearOffset)
		}
	}
	return 11, StartYear + int(yearOffset)
}

// LabelForTime formats a model day as "Jan 2000".
func LabelForTime(day float64) string {
	m, y := Month(day)
	return monthNames[m] + " " + strconv.Itoa(y)
}
