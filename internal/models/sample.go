package models

import (
	"errors"
	"time"
)

// Sample is a normalized trendline reading: the period label has been parsed
// and the date is the first day of the period it denotes.
type Sample struct {
	Period string    `json:"period"`
	Date   time.Time `json:"date"`
	Volume int64     `json:"volume"`
	Reach  int64     `json:"reach,omitempty"`
}

// Validate checks that all sample fields are valid
func (s *Sample) Validate() error {
	if s.Period == "" {
		return errors.New("sample period must not be empty")
	}
	if s.Date.IsZero() {
		return errors.New("sample date must be set")
	}
	if s.Volume < 0 {
		return errors.New("sample volume must not be negative")
	}
	if s.Reach < 0 {
		return errors.New("sample reach must not be negative")
	}
	return nil
}

// Point is one {label, value} pair handed to the chart surface.
type Point struct {
	Label string  `json:"date"`
	Value float64 `json:"value"`
}

// Series is a named, ordered run of points.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Total sums every point value in the series.
func (s Series) Total() float64 {
	var total float64
	for _, p := range s.Points {
		total += p.Value
	}
	return total
}

// Peak returns the point with the highest value. ok is false for an empty series.
// Ties keep the earliest point.
func (s Series) Peak() (p Point, ok bool) {
	for i, pt := range s.Points {
		if i == 0 || pt.Value > p.Value {
			p = pt
			ok = true
		}
	}
	return p, ok
}

// SamplesToPoints projects sample volumes onto chart points.
func SamplesToPoints(samples []Sample) []Point {
	points := make([]Point, 0, len(samples))
	for _, s := range samples {
		points = append(points, Point{Label: s.Period, Value: float64(s.Volume)})
	}
	return points
}
