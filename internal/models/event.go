// Package models defines the core domain entities for the trendline pipeline.
// These models represent the hand-authored conversation fixture, the normalized
// samples derived from it, and the series, markers and cards handed to the chart.
// All input models include built-in validation so malformed fixtures surface early.
//
// Terminology:
//   - Event: one fixture record. Record 0 is the aggregate "overall" trend for the
//     brand; every later record is a single cultural event.
//   - Trendline: the weekly samples of one record.
package models

import (
	"errors"
	"fmt"
	"time"
)

// TrendPoint is one raw trendline sample as it appears in the fixture.
type TrendPoint struct {
	Period        string `json:"period"`          // "Mon D, YY" week start, or "Mon YY"
	Conversations int64  `json:"conversations"`   // Conversation volume for the period
	Reach         int64  `json:"reach,omitempty"` // Optional audience reach
	Note          string `json:"note,omitempty"`
}

// Event is one record of the conversation fixture.
type Event struct {
	Name          string       `json:"event_name"`
	Date          string       `json:"date,omitempty"` // ISO date (2006-01-02), empty for the overall record
	Description   string       `json:"description,omitempty"`
	Image         string       `json:"image,omitempty"`
	TotalVolume   int64        `json:"total_conv_vol"`
	TotalReach    int64        `json:"total_reach,omitempty"`
	Participation float64      `json:"indian_participation,omitempty"` // Participation share, 0–100
	Trendline     []TrendPoint `json:"trendline"`
}

// OccurredOn returns the parsed occurrence date. ok is false when the record has
// no date or the date is not an ISO calendar date.
func (e *Event) OccurredOn() (t time.Time, ok bool) {
	if e.Date == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", e.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Validate checks that all event fields are valid.
// Trendline period labels are not checked here; malformed periods are skipped
// during normalization instead of rejecting the whole record.
func (e *Event) Validate() error {
	if e.Name == "" {
		return errors.New("event name must not be empty")
	}
	errs := e.problems()
	for i, p := range e.Trendline {
		if p.Conversations < 0 {
			errs = append(errs, fmt.Errorf("trendline[%d] conversations must not be negative", i))
		}
		if p.Reach < 0 {
			errs = append(errs, fmt.Errorf("trendline[%d] reach must not be negative", i))
		}
	}
	return errors.Join(errs...)
}

// Repair resets invalid optional fields in place and returns one error per
// field it changed. A bad date is cleared, participation is clamped to 0..100
// and negative totals become 0. Trendline samples are left to normalization.
func (e *Event) Repair() []error {
	problems := e.problems()
	if e.TotalVolume < 0 {
		e.TotalVolume = 0
	}
	if e.TotalReach < 0 {
		e.TotalReach = 0
	}
	e.Participation = min(max(e.Participation, 0), 100)
	if _, ok := e.OccurredOn(); !ok {
		e.Date = ""
	}
	return problems
}

// problems lists the record-level field errors that Repair knows how to fix.
func (e *Event) problems() []error {
	var errs []error
	if e.TotalVolume < 0 {
		errs = append(errs, errors.New("total volume must not be negative"))
	}
	if e.TotalReach < 0 {
		errs = append(errs, errors.New("total reach must not be negative"))
	}
	if e.Participation < 0 || e.Participation > 100 {
		errs = append(errs, fmt.Errorf("participation %v must be between 0 and 100", e.Participation))
	}
	if e.Date != "" {
		if _, ok := e.OccurredOn(); !ok {
			errs = append(errs, fmt.Errorf("date %q must be an ISO date (YYYY-MM-DD)", e.Date))
		}
	}
	return errs
}

// Fixture is the top-level conversation fixture.
type Fixture struct {
	Events []Event `json:"events"`
}

// Overall returns the aggregate record (index 0), or nil for an empty fixture.
func (f *Fixture) Overall() *Event {
	if len(f.Events) == 0 {
		return nil
	}
	return &f.Events[0]
}

// EventRecords returns every record after the aggregate one.
func (f *Fixture) EventRecords() []Event {
	if len(f.Events) <= 1 {
		return nil
	}
	return f.Events[1:]
}

// Validate checks the fixture's structure: at least the overall record must be
// present and every record needs a unique name. Field-level problems inside a
// record are not structural; see Event.Repair.
func (f *Fixture) Validate() error {
	if len(f.Events) == 0 {
		return errors.New("fixture must contain at least the overall record")
	}
	seen := make(map[string]bool, len(f.Events))
	for i := range f.Events {
		if f.Events[i].Name == "" {
			return fmt.Errorf("events[%d]: event name must not be empty", i)
		}
		if seen[f.Events[i].Name] {
			return fmt.Errorf("events[%d]: duplicate event name %q", i, f.Events[i].Name)
		}
		seen[f.Events[i].Name] = true
	}
	return nil
}

// SalesFixture maps geography → "Mon YYYY" → percentage string ("12.3%").
type SalesFixture map[string]map[string]string
