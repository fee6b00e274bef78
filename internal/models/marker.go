package models

import (
	"errors"
)

// Marker is a clickable event marker placed on the conversation timeline.
type Marker struct {
	ID            string  `json:"id"`
	Date          string  `json:"date"` // Axis label the marker is pinned to
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Image         string  `json:"image"`
	Impact        string  `json:"impact"`
	Participation float64 `json:"participation"`
}

// Validate checks that all marker fields are valid
func (m *Marker) Validate() error {
	if m.ID == "" {
		return errors.New("marker ID must not be empty")
	}
	if m.Title == "" {
		return errors.New("marker title must not be empty")
	}
	if m.Participation < 0 || m.Participation > 100 {
		return errors.New("participation must be between 0 and 100")
	}
	return nil
}

// Card is the static detail card rendered below the chart for one event.
type Card struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Date          string  `json:"date"` // "Mon D, YY", empty when the event has no date
	Description   string  `json:"description"`
	Image         string  `json:"image"`
	TotalVolume   int64   `json:"total_conv_vol"`
	TotalReach    int64   `json:"total_reach"`
	Participation float64 `json:"participation"`
	PeakPeriod    string  `json:"peak_period,omitempty"`
	PeakVolume    int64   `json:"peak_volume"`
	Sparkline     []Point `json:"sparkline"`
}
