// Package render assembles the payloads the chart surface consumes: the
// conversation timeline at a chosen granularity, the dual-axis overlay against
// regional sales share, event markers and static detail cards.
//
// A Renderer normalizes the fixtures once and then derives every view from the
// same immutable samples, so repeated builds of the same state are identical.
package render

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/rewired-gh/trendline/internal/fixture"
	"github.com/rewired-gh/trendline/internal/models"
	"github.com/rewired-gh/trendline/internal/period"
	"github.com/rewired-gh/trendline/internal/sales"
	"github.com/rewired-gh/trendline/internal/trend"
	"github.com/rewired-gh/trendline/internal/view"
)

// markerNamespace scopes the name-based marker and card IDs.
var markerNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("trendline/event"))

// Options tunes rendering.
type Options struct {
	Truncation trend.TruncationPolicy
	TopEvents  int // Events listed in Summary; <= 0 means 5
}

// Timeline is the main conversation chart.
type Timeline struct {
	Granularity string          `json:"granularity"`
	Axis        []string        `json:"axis"`
	Overall     models.Series   `json:"overall"`
	Events      []models.Series `json:"events"`
}

// Overlay is the dual-axis comparison of monthly volume and sales share.
type Overlay struct {
	Axis         []string        `json:"axis"`
	Volume       models.Series   `json:"volume"`
	Sales        []models.Series `json:"sales"`
	PrimaryMin   float64         `json:"primary_min"`
	PrimaryMax   float64         `json:"primary_max"`
	SecondaryMin float64         `json:"secondary_min"`
	SecondaryMax float64         `json:"secondary_max"`
}

// ViewInfo echoes the state a payload was built for.
type ViewInfo struct {
	Mode        string   `json:"mode"`
	Granularity string   `json:"granularity"`
	Highlighted string   `json:"highlighted,omitempty"`
	Hidden      []string `json:"hidden,omitempty"`
}

// NewViewInfo converts a view state into its wire form.
func NewViewInfo(state view.State) ViewInfo {
	return ViewInfo{
		Mode:        string(state.Mode),
		Granularity: state.Granularity.String(),
		Highlighted: state.Highlighted,
		Hidden:      state.HiddenNames(),
	}
}

// Payload is everything the page needs for one view state.
type Payload struct {
	View     ViewInfo        `json:"view"`
	Timeline Timeline        `json:"timeline"`
	Overlay  Overlay         `json:"overlay"`
	Markers  []models.Marker `json:"markers"`
	Cards    []models.Card   `json:"cards"`
	Summary  Summary         `json:"summary"`
}

// Renderer derives payloads from one pair of fixtures.
type Renderer struct {
	fx      *models.Fixture
	samples [][]models.Sample // Index-aligned with fx.Events
	sales   *sales.Series
	synth   *trend.Synthesizer
	opts    Options
}

// New normalizes the fixtures. Repaired record fields, skipped samples and
// skipped sales entries are returned as non-fatal errors; the renderer is
// always usable. fx is not modified.
func New(fx *models.Fixture, salesRaw models.SalesFixture, opts Options) (*Renderer, []error) {
	if opts.TopEvents <= 0 {
		opts.TopEvents = 5
	}

	var errs []error
	fx, recordErrs := fixture.Repair(fx)
	for _, e := range recordErrs {
		errs = append(errs, e)
	}
	samples, sampleErrs := fixture.NormalizeAll(fx)
	for _, e := range sampleErrs {
		errs = append(errs, e)
	}
	salesSeries, salesErrs := sales.Normalize(salesRaw)
	errs = append(errs, salesErrs...)

	return &Renderer{
		fx:      fx,
		samples: samples,
		sales:   salesSeries,
		synth:   trend.NewSynthesizer(opts.Truncation),
		opts:    opts,
	}, errs
}

// Build renders the payload for state. Hidden series are left out of both
// charts; markers and cards always cover every event.
func (r *Renderer) Build(state view.State) *Payload {
	return &Payload{
		View:     NewViewInfo(state),
		Timeline: r.Timeline(state.Granularity, state.Visible),
		Overlay:  r.Overlay(state.Visible),
		Markers:  r.Markers(state.Granularity),
		Cards:    r.Cards(),
		Summary:  r.Summary(),
	}
}

// series returns record i at granularity g. Daily data is synthesized from the
// weekly source with the record index as generator key.
func (r *Renderer) series(i int, g period.Granularity) []models.Sample {
	if i < 0 || i >= len(r.samples) {
		return []models.Sample{}
	}
	switch g {
	case period.Daily:
		return r.synth.Daily(r.samples[i], i)
	case period.Monthly:
		return trend.Aggregate(r.samples[i], period.Monthly)
	default:
		return trend.Aggregate(r.samples[i], period.Weekly)
	}
}

// Timeline renders the overall series and every visible event at granularity
// g. Event series are padded against the shared axis.
func (r *Renderer) Timeline(g period.Granularity, visible func(string) bool) Timeline {
	all := make([][]models.Sample, len(r.fx.Events))
	for i := range r.fx.Events {
		all[i] = r.series(i, g)
	}

	tl := Timeline{
		Granularity: g.String(),
		Axis:        trend.Axis(all...),
		Events:      []models.Series{},
	}
	if len(r.fx.Events) == 0 {
		return tl
	}

	overall := r.fx.Events[0]
	tl.Overall = models.Series{Name: overall.Name, Points: []models.Point{}}
	if visible(overall.Name) {
		tl.Overall.Points = models.SamplesToPoints(all[0])
	}

	for i := 1; i < len(r.fx.Events); i++ {
		name := r.fx.Events[i].Name
		if !visible(name) {
			continue
		}
		tl.Events = append(tl.Events, models.Series{
			Name:   name,
			Points: trend.Pad(tl.Axis, models.SamplesToPoints(all[i])),
		})
	}
	return tl
}

// Overlay renders monthly overall volume on the primary axis and sales share
// per visible geography on the secondary axis. The primary minimum is pushed
// below zero when needed so both zero lines meet.
func (r *Renderer) Overlay(visible func(string) bool) Overlay {
	monthly := r.series(0, period.Monthly)

	ov := Overlay{
		Axis:  trend.Axis(monthly, r.sales.Months()),
		Sales: []models.Series{},
	}

	if overall := r.fx.Overall(); overall != nil {
		ov.Volume = models.Series{Name: overall.Name, Points: []models.Point{}}
		if visible(overall.Name) {
			ov.Volume.Points = models.SamplesToPoints(monthly)
		}
	}
	for _, p := range ov.Volume.Points {
		if p.Value > ov.PrimaryMax {
			ov.PrimaryMax = p.Value
		}
	}

	first := true
	for _, geo := range r.sales.Geographies {
		if !visible(geo.Name) {
			continue
		}
		points := make([]models.Point, 0, len(geo.Points))
		for _, p := range geo.Points {
			if first || p.Percent < ov.SecondaryMin {
				ov.SecondaryMin = p.Percent
			}
			if first || p.Percent > ov.SecondaryMax {
				ov.SecondaryMax = p.Percent
			}
			first = false
			points = append(points, models.Point{Label: p.Label, Value: p.Percent})
		}
		ov.Sales = append(ov.Sales, models.Series{Name: geo.Name, Points: points})
	}

	// Only visible geographies span the secondary axis.
	ov.PrimaryMin = trend.AlignZero(ov.PrimaryMax, ov.SecondaryMin, ov.SecondaryMax)
	return ov
}

// Markers returns one marker per event, pinned to the axis label of the
// g-sized bucket containing the event date. Events without a date are pinned
// to their first sample.
func (r *Renderer) Markers(g period.Granularity) []models.Marker {
	markers := make([]models.Marker, 0, len(r.fx.Events))
	for i := 1; i < len(r.fx.Events); i++ {
		ev := &r.fx.Events[i]
		label := ""
		if date, ok := ev.OccurredOn(); ok {
			label = period.Format(period.Start(date, g), g)
		} else if s := r.series(i, g); len(s) > 0 {
			label = s[0].Period
		}

		markers = append(markers, models.Marker{
			ID:            EventID(ev.Name),
			Date:          label,
			Title:         ev.Name,
			Description:   ev.Description,
			Image:         ev.Image,
			Impact:        ImpactText(ev.TotalVolume, ev.TotalReach),
			Participation: ev.Participation,
		})
	}
	return markers
}

// Cards returns one static detail card per event with its weekly sparkline.
func (r *Renderer) Cards() []models.Card {
	cards := make([]models.Card, 0, len(r.fx.Events))
	for i := 1; i < len(r.fx.Events); i++ {
		ev := &r.fx.Events[i]
		weekly := models.Series{Name: ev.Name, Points: models.SamplesToPoints(r.series(i, period.Weekly))}

		card := models.Card{
			ID:            EventID(ev.Name),
			Title:         ev.Name,
			Description:   ev.Description,
			Image:         ev.Image,
			TotalVolume:   ev.TotalVolume,
			TotalReach:    ev.TotalReach,
			Participation: ev.Participation,
			Sparkline:     weekly.Points,
		}
		if date, ok := ev.OccurredOn(); ok {
			card.Date = period.FormatDaily(date)
		}
		if peak, ok := weekly.Peak(); ok {
			card.PeakPeriod = peak.Label
			card.PeakVolume = int64(peak.Value)
		}
		cards = append(cards, card)
	}
	return cards
}

// EventSummary is one line of the top-events list.
type EventSummary struct {
	Name   string `json:"name"`
	Volume int64  `json:"volume"`
	Reach  int64  `json:"reach"`
}

// Summary condenses a render for terminal output and notifications.
type Summary struct {
	OverallName   string         `json:"overall_name"`
	OverallVolume int64          `json:"overall_volume"`
	PeakPeriod    string         `json:"peak_period,omitempty"`
	PeakVolume    int64          `json:"peak_volume"`
	Weeks         int            `json:"weeks"`
	EventCount    int            `json:"event_count"`
	TopEvents     []EventSummary `json:"top_events"`
}

// Summary reports weekly totals and the top events by conversation volume.
// Ties are broken by name for a stable order.
func (r *Renderer) Summary() Summary {
	sum := Summary{TopEvents: []EventSummary{}}
	if len(r.fx.Events) == 0 {
		return sum
	}

	weekly := r.series(0, period.Weekly)
	sum.OverallName = r.fx.Events[0].Name
	sum.OverallVolume = trend.TotalVolume(weekly)
	sum.Weeks = len(weekly)
	for _, w := range weekly {
		if w.Volume > sum.PeakVolume || sum.PeakPeriod == "" {
			sum.PeakPeriod = w.Period
			sum.PeakVolume = w.Volume
		}
	}

	events := r.fx.EventRecords()
	sum.EventCount = len(events)
	ranked := make([]EventSummary, 0, len(events))
	for _, ev := range events {
		ranked = append(ranked, EventSummary{Name: ev.Name, Volume: ev.TotalVolume, Reach: ev.TotalReach})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Volume != ranked[j].Volume {
			return ranked[i].Volume > ranked[j].Volume
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > r.opts.TopEvents {
		ranked = ranked[:r.opts.TopEvents]
	}
	sum.TopEvents = ranked
	return sum
}

// EventID returns the stable marker/card ID for an event name.
func EventID(name string) string {
	return uuid.NewSHA1(markerNamespace, []byte(name)).String()
}

// ImpactText formats the headline numbers shown on a marker.
func ImpactText(volume, reach int64) string {
	text := fmt.Sprintf("%s conversations", humanize.Comma(volume))
	if reach > 0 {
		text += fmt.Sprintf(" · %s reach", humanize.Comma(reach))
	}
	return text
}
