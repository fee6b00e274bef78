package fixture

import (
	"fmt"

	"github.com/rewired-gh/trendline/internal/models"
	"github.com/rewired-gh/trendline/internal/period"
)

// SampleError represents a per-sample problem found during normalization.
// It is never fatal: the sample is skipped and the rest of the trendline kept.
type SampleError struct {
	Record string
	Index  int
	Period string
	Err    error
}

func (e SampleError) Error() string {
	return fmt.Sprintf("sample %d (%q) of %s: %v", e.Index, e.Period, e.Record, e.Err)
}

func (e SampleError) Unwrap() error {
	return e.Err
}

// RecordError represents a field problem in one fixture record. It is never
// fatal: the field is reset (see models.Event.Repair) and the record kept.
type RecordError struct {
	Record string
	Index  int
	Err    error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %d (%s): %v", e.Index, e.Record, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// Repair returns a copy of fx with invalid record fields reset, plus one
// RecordError per reset field. fx itself is not modified.
func Repair(fx *models.Fixture) (*models.Fixture, []RecordError) {
	out := &models.Fixture{Events: make([]models.Event, len(fx.Events))}
	copy(out.Events, fx.Events)

	var errs []RecordError
	for i := range out.Events {
		for _, err := range out.Events[i].Repair() {
			errs = append(errs, RecordError{Record: out.Events[i].Name, Index: i, Err: err})
		}
	}
	return out, errs
}

// Normalize parses the trendline of one record into dated samples with
// canonical labels ("Dec 5, 22" rather than "Dec  5, 22"). Samples with
// unparseable periods, negative counts, or a period not after the previous kept
// sample are skipped and reported. An empty trendline yields an empty, non-nil slice.
func Normalize(event *models.Event) ([]models.Sample, []SampleError) {
	samples := make([]models.Sample, 0, len(event.Trendline))
	var errs []SampleError

	for i, p := range event.Trendline {
		date, gran, err := period.Parse(p.Period)
		if err != nil {
			errs = append(errs, SampleError{Record: event.Name, Index: i, Period: p.Period, Err: err})
			continue
		}
		if p.Conversations < 0 || p.Reach < 0 {
			errs = append(errs, SampleError{
				Record: event.Name,
				Index:  i,
				Period: p.Period,
				Err:    fmt.Errorf("negative count (conversations %d, reach %d)", p.Conversations, p.Reach),
			})
			continue
		}
		if n := len(samples); n > 0 && !date.After(samples[n-1].Date) {
			errs = append(errs, SampleError{
				Record: event.Name,
				Index:  i,
				Period: p.Period,
				Err:    fmt.Errorf("period not after %q", samples[n-1].Period),
			})
			continue
		}
		samples = append(samples, models.Sample{
			Period: period.Format(date, gran),
			Date:   date,
			Volume: p.Conversations,
			Reach:  p.Reach,
		})
	}

	return samples, errs
}

// NormalizeAll normalizes every record of the fixture, keeping record order so
// index 0 stays the overall series.
func NormalizeAll(fx *models.Fixture) ([][]models.Sample, []SampleError) {
	all := make([][]models.Sample, len(fx.Events))
	var errs []SampleError
	for i := range fx.Events {
		samples, sampleErrs := Normalize(&fx.Events[i])
		all[i] = samples
		errs = append(errs, sampleErrs...)
	}
	return all, errs
}
