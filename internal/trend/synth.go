package trend

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rewired-gh/trendline/internal/models"
	"github.com/rewired-gh/trendline/internal/period"
)

// TruncationPolicy decides what happens to a week whose successor starts less
// than seven days later.
type TruncationPolicy int

const (
	// TruncateDrop emits only the days before the next week and drops the share
	// weighted onto the rest, so irregular fixtures can under-count.
	TruncateDrop TruncationPolicy = iota
	// TruncateRescale normalizes the weights over the emitted days only.
	TruncateRescale
)

// String returns the config spelling of the policy.
func (p TruncationPolicy) String() string {
	if p == TruncateRescale {
		return "rescale"
	}
	return "drop"
}

// ParseTruncationPolicy accepts "drop" or "rescale".
func ParseTruncationPolicy(s string) (TruncationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drop", "":
		return TruncateDrop, nil
	case "rescale":
		return TruncateRescale, nil
	default:
		return TruncateDrop, fmt.Errorf("unknown truncation policy %q: must be drop or rescale", s)
	}
}

const daysPerWeek = 7

// Synthesizer derives a daily series from weekly samples.
type Synthesizer struct {
	policy TruncationPolicy
}

// NewSynthesizer creates a Synthesizer with the given truncation policy.
func NewSynthesizer(policy TruncationPolicy) *Synthesizer {
	return &Synthesizer{policy: policy}
}

// Daily spreads every weekly sample across the days from its start date. A week
// stops early when the next sample starts within seven days. Day values are
// round(total * w / Σw) with weights from WeekWeights(start, record); the last
// day of a complete week absorbs the rounding remainder, so complete weeks sum
// exactly to their reported total. Reach is spread with the same weights.
//
// weeks must be in ascending order; record is the fixture index of the source
// record and keeps different records from sharing a daily shape.
func (s *Synthesizer) Daily(weeks []models.Sample, record int) []models.Sample {
	result := make([]models.Sample, 0, len(weeks)*daysPerWeek)

	for i, week := range weeks {
		start := period.Start(week.Date, period.Daily)

		days := daysPerWeek
		if i+1 < len(weeks) {
			next := period.Start(weeks[i+1].Date, period.Daily)
			if gap := daysBetween(start, next); gap < days {
				days = max(gap, 0)
			}
		}
		if days == 0 {
			continue
		}

		weights := WeekWeights(start, record)
		span := daysPerWeek
		if s.policy == TruncateRescale {
			span = days
		}
		var sum float64
		for _, w := range weights[:span] {
			sum += w
		}

		// The remainder only lands on the final day when that day closes the
		// weighted span; a dropped tail keeps its share out of the series.
		absorb := days == span
		volumes := distribute(week.Volume, weights[:days], sum, absorb)
		reaches := distribute(week.Reach, weights[:days], sum, absorb)

		for offset := 0; offset < days; offset++ {
			day := start.AddDate(0, 0, offset)
			result = append(result, models.Sample{
				Period: period.FormatDaily(day),
				Date:   day,
				Volume: volumes[offset],
				Reach:  reaches[offset],
			})
		}
	}

	return result
}

// distribute splits total by weight/sum with per-day rounding. A day never gets
// more than what is left of total, so no value goes negative. When absorb is
// set the last day takes whatever remains.
func distribute(total int64, weights []float64, sum float64, absorb bool) []int64 {
	values := make([]int64, len(weights))
	if total == 0 || sum <= 0 {
		return values
	}

	remaining := total
	for i, w := range weights {
		if absorb && i == len(weights)-1 {
			values[i] = remaining
			break
		}
		v := int64(math.Round(float64(total) * w / sum))
		if v > remaining {
			v = remaining
		}
		values[i] = v
		remaining -= v
	}
	return values
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}
