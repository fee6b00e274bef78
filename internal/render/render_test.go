package render

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/trendline/internal/fixture"
	"github.com/rewired-gh/trendline/internal/models"
	"github.com/rewired-gh/trendline/internal/period"
	"github.com/rewired-gh/trendline/internal/trend"
	"github.com/rewired-gh/trendline/internal/view"
)

func testFixture() *models.Fixture {
	return &models.Fixture{Events: []models.Event{
		{
			Name:        "Overall",
			TotalVolume: 1200,
			Trendline: []models.TrendPoint{
				{Period: "Dec 26, 22", Conversations: 700, Reach: 7000},
				{Period: "Jan 2, 23", Conversations: 300},
				{Period: "Jan 9, 23", Conversations: 200},
			},
		},
		{
			Name:          "Cricket Final",
			Date:          "2022-12-28",
			Description:   "Fans share the moment",
			TotalVolume:   400,
			TotalReach:    12000,
			Participation: 61.5,
			Trendline:     []models.TrendPoint{{Period: "Dec 26, 22", Conversations: 400}},
		},
		{
			Name:        "Monsoon Sale",
			Date:        "2023-01-10",
			TotalVolume: 150,
			Trendline:   []models.TrendPoint{{Period: "Jan 9, 23", Conversations: 150}},
		},
	}}
}

func testSales() models.SalesFixture {
	return models.SalesFixture{
		"North": {"Dec 2022": "-2%", "Jan 2023": "10%"},
		"South": {"Jan 2023": "4%", "Foo 2023": "1%"},
	}
}

func newTestRenderer(t *testing.T, opts Options) *Renderer {
	t.Helper()
	r, errs := New(testFixture(), testSales(), opts)
	require.Len(t, errs, 1, "only the malformed sales month should be reported")
	return r
}

func TestTimelineWeekly(t *testing.T) {
	r := newTestRenderer(t, Options{})
	tl := r.Timeline(period.Weekly, view.Default().Visible)

	assert.Equal(t, "weekly", tl.Granularity)
	assert.Equal(t, []string{"Dec 26, 22", "Jan 2, 23", "Jan 9, 23"}, tl.Axis)
	assert.Equal(t, "Overall", tl.Overall.Name)
	assert.Equal(t, 1200.0, tl.Overall.Total())

	want := []models.Series{
		{Name: "Cricket Final", Points: []models.Point{
			{Label: "Dec 26, 22", Value: 400},
			{Label: "Jan 2, 23", Value: 0},
		}},
		{Name: "Monsoon Sale", Points: []models.Point{
			{Label: "Jan 2, 23", Value: 0},
			{Label: "Jan 9, 23", Value: 150},
		}},
	}
	if diff := cmp.Diff(want, tl.Events); diff != "" {
		t.Errorf("event series mismatch (-want +got):\n%s", diff)
	}
}

func TestTimelineDailyConservesVolume(t *testing.T) {
	r := newTestRenderer(t, Options{})
	tl := r.Timeline(period.Daily, view.Default().Visible)

	require.Len(t, tl.Overall.Points, 21)
	assert.Equal(t, 1200.0, tl.Overall.Total())
	assert.Equal(t, "Dec 26, 22", tl.Axis[0])
	assert.Equal(t, "Jan 15, 23", tl.Axis[len(tl.Axis)-1])

	require.Len(t, tl.Events, 2)
	cricket := tl.Events[0]
	assert.Equal(t, 400.0, cricket.Total())
	// Seven synthesized days plus the trailing zero.
	assert.Len(t, cricket.Points, 8)
	assert.Equal(t, models.Point{Label: "Jan 2, 23", Value: 0}, cricket.Points[7])
}

func TestTimelineMonthly(t *testing.T) {
	r := newTestRenderer(t, Options{})
	tl := r.Timeline(period.Monthly, view.Default().Visible)

	assert.Equal(t, []string{"Dec 22", "Jan 23"}, tl.Axis)
	assert.Equal(t, []models.Point{{Label: "Dec 22", Value: 700}, {Label: "Jan 23", Value: 500}}, tl.Overall.Points)
}

func TestHiddenSeriesAreOmitted(t *testing.T) {
	r := newTestRenderer(t, Options{})
	state := view.ReduceAll(view.Default(),
		view.Action{Type: view.ToggleSeries, Value: "Monsoon Sale"},
		view.Action{Type: view.ToggleSeries, Value: "North"},
		view.Action{Type: view.ToggleSeries, Value: "Overall"},
	)

	p := r.Build(state)
	require.Len(t, p.Timeline.Events, 1)
	assert.Equal(t, "Cricket Final", p.Timeline.Events[0].Name)
	assert.Empty(t, p.Timeline.Overall.Points)
	assert.NotNil(t, p.Timeline.Overall.Points)

	require.Len(t, p.Overlay.Sales, 1)
	assert.Equal(t, "South", p.Overlay.Sales[0].Name)
	assert.Equal(t, []string{"Monsoon Sale", "North", "Overall"}, p.View.Hidden)

	// Markers and cards do not follow series visibility.
	assert.Len(t, p.Markers, 2)
	assert.Len(t, p.Cards, 2)
}

func TestOverlay(t *testing.T) {
	r := newTestRenderer(t, Options{})
	ov := r.Overlay(view.Default().Visible)

	assert.Equal(t, []string{"Dec 22", "Jan 23"}, ov.Axis)
	assert.Equal(t, 700.0, ov.PrimaryMax)
	assert.Equal(t, -2.0, ov.SecondaryMin)
	assert.Equal(t, 10.0, ov.SecondaryMax)
	assert.InDelta(t, -140.0, ov.PrimaryMin, 1e-9)

	want := []models.Series{
		{Name: "North", Points: []models.Point{{Label: "Dec 22", Value: -2}, {Label: "Jan 23", Value: 10}}},
		{Name: "South", Points: []models.Point{{Label: "Jan 23", Value: 4}}},
	}
	if diff := cmp.Diff(want, ov.Sales); diff != "" {
		t.Errorf("sales series mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRepairsBadRecordFields(t *testing.T) {
	fx := testFixture()
	fx.Events[1].Date = "04/01/2023"
	fx.Events[1].Participation = 130

	r, errs := New(fx, nil, Options{})
	require.Len(t, errs, 2)
	var recErr fixture.RecordError
	require.ErrorAs(t, errs[0], &recErr)
	assert.Equal(t, "Cricket Final", recErr.Record)
	assert.Equal(t, "04/01/2023", fx.Events[1].Date, "caller's fixture is left as is")

	m := r.Markers(period.Daily)[0]
	assert.Equal(t, "Dec 26, 22", m.Date, "undated event pins to its first sample")
	assert.Equal(t, 100.0, m.Participation)
}

func TestOverlayHiddenGeographyLeavesAxis(t *testing.T) {
	r := newTestRenderer(t, Options{})
	state := view.Reduce(view.Default(), view.Action{Type: view.ToggleSeries, Value: "North"})

	ov := r.Overlay(state.Visible)
	require.Len(t, ov.Sales, 1)
	assert.Equal(t, "South", ov.Sales[0].Name)
	assert.Equal(t, 4.0, ov.SecondaryMin)
	assert.Equal(t, 4.0, ov.SecondaryMax)
	assert.Zero(t, ov.PrimaryMin, "no visible negative share, primary axis starts at zero")

	state = view.Reduce(state, view.Action{Type: view.ToggleSeries, Value: "South"})
	ov = r.Overlay(state.Visible)
	assert.Empty(t, ov.Sales)
	assert.Zero(t, ov.SecondaryMin)
	assert.Zero(t, ov.SecondaryMax)
	assert.Zero(t, ov.PrimaryMin)
}

func TestOverlayWithoutSales(t *testing.T) {
	r, errs := New(testFixture(), nil, Options{})
	require.Empty(t, errs)

	ov := r.Overlay(view.Default().Visible)
	assert.Equal(t, []string{"Dec 22", "Jan 23"}, ov.Axis)
	assert.Zero(t, ov.PrimaryMin)
	assert.NotNil(t, ov.Sales)
	assert.Empty(t, ov.Sales)
}

func TestMarkers(t *testing.T) {
	r := newTestRenderer(t, Options{})

	tests := []struct {
		g     period.Granularity
		dates []string
	}{
		{period.Daily, []string{"Dec 28, 22", "Jan 10, 23"}},
		{period.Weekly, []string{"Dec 26, 22", "Jan 9, 23"}},
		{period.Monthly, []string{"Dec 22", "Jan 23"}},
	}

	for _, tt := range tests {
		t.Run(tt.g.String(), func(t *testing.T) {
			markers := r.Markers(tt.g)
			require.Len(t, markers, 2)
			for i, m := range markers {
				assert.Equal(t, tt.dates[i], m.Date)
				assert.NoError(t, m.Validate())
			}
		})
	}

	m := r.Markers(period.Weekly)[0]
	assert.Equal(t, "Cricket Final", m.Title)
	assert.Equal(t, EventID("Cricket Final"), m.ID)
	assert.Equal(t, "400 conversations · 12,000 reach", m.Impact)
	assert.Equal(t, 61.5, m.Participation)
	assert.Equal(t, "", m.Image)
}

func TestMarkerWithoutDateUsesFirstSample(t *testing.T) {
	fx := testFixture()
	fx.Events[2].Date = ""
	r, _ := New(fx, nil, Options{})

	markers := r.Markers(period.Monthly)
	require.Len(t, markers, 2)
	assert.Equal(t, "Jan 23", markers[1].Date)
}

func TestCards(t *testing.T) {
	r := newTestRenderer(t, Options{})
	cards := r.Cards()
	require.Len(t, cards, 2)

	c := cards[0]
	assert.Equal(t, "Cricket Final", c.Title)
	assert.Equal(t, "Dec 28, 22", c.Date)
	assert.Equal(t, "Dec 26, 22", c.PeakPeriod)
	assert.Equal(t, int64(400), c.PeakVolume)
	assert.Equal(t, []models.Point{{Label: "Dec 26, 22", Value: 400}}, c.Sparkline)
	assert.Equal(t, r.Markers(period.Weekly)[0].ID, c.ID)
}

func TestSummary(t *testing.T) {
	r := newTestRenderer(t, Options{TopEvents: 1})
	sum := r.Summary()

	assert.Equal(t, "Overall", sum.OverallName)
	assert.Equal(t, int64(1200), sum.OverallVolume)
	assert.Equal(t, 3, sum.Weeks)
	assert.Equal(t, 2, sum.EventCount)
	assert.Equal(t, "Dec 26, 22", sum.PeakPeriod)
	assert.Equal(t, int64(700), sum.PeakVolume)
	assert.Equal(t, []EventSummary{{Name: "Cricket Final", Volume: 400, Reach: 12000}}, sum.TopEvents)
}

func TestBuildIsDeterministic(t *testing.T) {
	state := view.Reduce(view.Default(), view.Action{Type: view.SetGranularity, Value: "daily"})

	for _, policy := range []trend.TruncationPolicy{trend.TruncateDrop, trend.TruncateRescale} {
		t.Run(policy.String(), func(t *testing.T) {
			first := newTestRenderer(t, Options{Truncation: policy}).Build(state)
			second := newTestRenderer(t, Options{Truncation: policy}).Build(state)
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("rebuild differs (-first +second):\n%s", diff)
			}
		})
	}
}

func TestEventIDIsStable(t *testing.T) {
	assert.Equal(t, EventID("Cricket Final"), EventID("Cricket Final"))
	assert.NotEqual(t, EventID("Cricket Final"), EventID("Monsoon Sale"))
	assert.Len(t, EventID("x"), 36)
}

func TestImpactText(t *testing.T) {
	assert.Equal(t, "1,500,000 conversations", ImpactText(1500000, 0))
	assert.Equal(t, "0 conversations · 7 reach", ImpactText(0, 7))
}
