// Package sir simulates an SIR epidemic whose transmission rate follows a
// piecewise-linear curve through nine monthly control points (Jan 1 through
// Sep 1), held flat from Sep 1 to the end of the year. A run is a pure
// function of its Parameters: nothing is shared between calls, so concurrent
// runs need no locking.
package sir

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/interp"
)

// RateCurve maps calendar dates to a transmission multiplier in [0,1].
type RateCurve struct {
	year    int
	anchors [NumAnchors]time.Time
	values  [NumAnchors]float64
	pl      interp.PiecewiseLinear
}

// AnchorDates returns the control point dates for a year: the 1st of January through September.
func AnchorDates(year int) [NumAnchors]time.Time {
	var dates [NumAnchors]time.Time
	for k := range dates {
		dates[k] = Date(year, time.January+time.Month(k), 1)
	}
	return dates
}

// NewRateCurve fits the piecewise-linear interpolant through the control
// points. Each anchor sits on its real calendar date, so months of different
// length get different slopes.
func NewRateCurve(year int, multipliers [NumAnchors]float64) (*RateCurve, error) {
	if err := validateMultipliers(multipliers[:]); err != nil {
		return nil, err
	}

	rc := &RateCurve{
		year:    year,
		anchors: AnchorDates(year),
		values:  multipliers,
	}

	jan1 := rc.anchors[0]
	xs := make([]float64, NumAnchors)
	for k, d := range rc.anchors {
		xs[k] = float64(daysBetween(jan1, d))
	}
	if err := rc.pl.Fit(xs, multipliers[:]); err != nil {
		return nil, fmt.Errorf("fitting rate curve: %w", err)
	}
	return rc, nil
}

// At returns the multiplier on the given date. Dates before Jan 1 take the
// Jan 1 value and dates after Sep 1 take the Sep 1 value.
func (rc *RateCurve) At(date time.Time) float64 {
	x := float64(daysBetween(rc.anchors[0], date))
	last := float64(daysBetween(rc.anchors[0], rc.anchors[NumAnchors-1]))
	switch {
	case x <= 0:
		return rc.values[0]
	case x >= last:
		return rc.values[NumAnchors-1]
	}
	// Interpolation between values in [0,1] cannot leave [0,1]; the clamp
	// only absorbs floating-point rounding.
	return math.Min(1, math.Max(0, rc.pl.Predict(x)))
}

// Series samples the curve once per day from start through end inclusive.
// The grid is anchored at start, so index 0 is always the start date.
func (rc *RateCurve) Series(start, end time.Time) RateSeries {
	start = truncateDay(start)
	n := daysBetween(start, end) + 1
	if n < 0 {
		n = 0
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = rc.At(start.AddDate(0, 0, i))
	}
	return RateSeries{Start: start, Values: values}
}

// RateSeries is a daily multiplier series; Values[0] belongs to Start.
type RateSeries struct {
	Start  time.Time
	Values []float64
}

// Len returns the number of days in the series.
func (s RateSeries) Len() int {
	return len(s.Values)
}

// Date returns the calendar date of index i.
func (s RateSeries) Date(i int) time.Time {
	return s.Start.AddDate(0, 0, i)
}

// At returns the value at day index i. Indices past the end return the last
// value and negative indices the first; the solver probes slightly beyond the
// final sample and must never fail a lookup. An empty series yields 0.
func (s RateSeries) At(i int) float64 {
	n := len(s.Values)
	switch {
	case n == 0:
		return 0
	case i < 0:
		return s.Values[0]
	case i >= n:
		return s.Values[n-1]
	}
	return s.Values[i]
}

// AtTime returns the value for continuous day offset t, truncated to its day.
func (s RateSeries) AtTime(t float64) float64 {
	switch {
	case math.IsNaN(t), t >= float64(len(s.Values)):
		return s.At(len(s.Values))
	case t < 0:
		return s.At(-1)
	}
	return s.At(int(t))
}
