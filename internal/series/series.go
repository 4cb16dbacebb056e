// Package series holds the time-ordered return series consumed by the
// performance metrics, plus the CSV and JSON loaders that build it.
package series

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSeries is wrapped by every validation and decoding failure.
var ErrInvalidSeries = errors.New("series: invalid input")

// Point is one period's return, with the timestamp it was observed at.
// Time is the zero value when the source carries no time index.
type Point struct {
	Time  time.Time `json:"time" yaml:"time"`
	Value float64   `json:"return" yaml:"return"`
}

// Series is an ordered sequence of period returns.
type Series struct {
	Name   string
	Points []Point
}

// FromValues builds an unindexed series from raw returns.
func FromValues(name string, values []float64) Series {
	pts := make([]Point, len(values))
	for i, v := range values {
		pts[i] = Point{Value: v}
	}
	return Series{Name: name, Points: pts}
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Points) }

// Values returns the returns in series order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Times returns the time index in series order.
func (s Series) Times() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Time
	}
	return out
}

// Indexed reports whether every point carries a timestamp.
func (s Series) Indexed() bool {
	if len(s.Points) == 0 {
		return false
	}
	for _, p := range s.Points {
		if p.Time.IsZero() {
			return false
		}
	}
	return true
}

// Validate rejects empty series, series where only some points carry a
// timestamp and, for indexed series, timestamps that go backwards. Equal
// timestamps are allowed, since several trades can close at once. Order is
// never repaired.
func (s Series) Validate() error {
	if len(s.Points) == 0 {
		return fmt.Errorf("%w: %q has no points", ErrInvalidSeries, s.Name)
	}
	if !s.Indexed() {
		for i, p := range s.Points {
			if !p.Time.IsZero() {
				return fmt.Errorf("%w: %q mixes timed and untimed points (row %d has a timestamp)",
					ErrInvalidSeries, s.Name, i)
			}
		}
		return nil
	}
	for i := 1; i < len(s.Points); i++ {
		if s.Points[i].Time.Before(s.Points[i-1].Time) {
			return fmt.Errorf("%w: %q timestamp at row %d (%s) is before %s",
				ErrInvalidSeries, s.Name, i,
				s.Points[i].Time.Format(time.RFC3339), s.Points[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}
