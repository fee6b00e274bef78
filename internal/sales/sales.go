// Package sales normalizes the regional sales-share fixture used by the
// overlay view. Labels arrive as "Mon YYYY" and values as percentage strings
// ("12.3%"); both are re-keyed onto the "Mon YY" monthly labels of the
// conversation series so the two can share an axis.
package sales

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rewired-gh/trendline/internal/models"
	"github.com/rewired-gh/trendline/internal/period"
)

// ErrBadPercent is returned for values that are not "<number>%" strings.
var ErrBadPercent = errors.New("malformed percentage")

// Point is one monthly sales-share reading.
type Point struct {
	Label   string    `json:"date"` // "Mon YY"
	Date    time.Time `json:"-"`
	Percent float64   `json:"value"`
}

// Geography is the ordered monthly series of one region.
type Geography struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Series is the normalized sales fixture.
type Series struct {
	Geographies []Geography `json:"geographies"`
	Min         float64     `json:"min"`
	Max         float64     `json:"max"`
}

// Empty reports whether no reading survived normalization.
func (s *Series) Empty() bool {
	for _, g := range s.Geographies {
		if len(g.Points) > 0 {
			return false
		}
	}
	return true
}

// EntryError records one skipped fixture entry.
type EntryError struct {
	Geography string
	Label     string
	Err       error
}

func (e EntryError) Error() string {
	return fmt.Sprintf("sales entry %s/%s: %v", e.Geography, e.Label, e.Err)
}

func (e EntryError) Unwrap() error {
	return e.Err
}

// ParsePercent parses strings like "12.3%", "-4%" or " 7.25 % ".
func ParsePercent(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasSuffix(trimmed, "%") {
		return 0, fmt.Errorf("%w %q: missing %% suffix", ErrBadPercent, s)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(strings.TrimSuffix(trimmed, "%")))
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrBadPercent, s, err)
	}
	return d.InexactFloat64(), nil
}

// Normalize converts the raw fixture. Geographies are sorted by name and points
// by month; malformed labels or values are skipped and reported as EntryErrors.
// Min and Max span every surviving reading and are both 0 when none survive.
func Normalize(raw models.SalesFixture) (*Series, []error) {
	var errs []error
	series := &Series{}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	first := true
	for _, name := range names {
		geo := Geography{Name: name, Points: []Point{}}
		for label, value := range raw[name] {
			month, err := period.ParseSalesMonth(label)
			if err != nil {
				errs = append(errs, EntryError{Geography: name, Label: label, Err: err})
				continue
			}
			pct, err := ParsePercent(value)
			if err != nil {
				errs = append(errs, EntryError{Geography: name, Label: label, Err: err})
				continue
			}
			geo.Points = append(geo.Points, Point{
				Label:   period.FormatMonthly(month),
				Date:    month,
				Percent: pct,
			})
			if first || pct < series.Min {
				series.Min = pct
			}
			if first || pct > series.Max {
				series.Max = pct
			}
			first = false
		}
		sort.Slice(geo.Points, func(i, j int) bool {
			return geo.Points[i].Date.Before(geo.Points[j].Date)
		})
		series.Geographies = append(series.Geographies, geo)
	}

	// Map iteration order is random; keep the error list stable for logs and tests.
	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return series, errs
}

// Months returns one zero-valued sample per month present in the series,
// chronologically, for building a shared monthly axis.
func (s *Series) Months() []models.Sample {
	seen := make(map[string]bool)
	var out []models.Sample
	for _, g := range s.Geographies {
		for _, p := range g.Points {
			if seen[p.Label] {
				continue
			}
			seen[p.Label] = true
			out = append(out, models.Sample{Period: p.Label, Date: p.Date})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
