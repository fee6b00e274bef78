package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/trendline/internal/models"
	"github.com/rewired-gh/trendline/internal/render"
	"github.com/rewired-gh/trendline/internal/view"
)

type testServer struct {
	*Server
	api    humatest.TestAPI
	source *Latest
}

func testRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	fx := &models.Fixture{Events: []models.Event{
		{
			Name:        "Overall",
			TotalVolume: 1000,
			Trendline: []models.TrendPoint{
				{Period: "Dec 26, 22", Conversations: 700},
				{Period: "Jan 2, 23", Conversations: 300},
			},
		},
		{
			Name:        "Cricket Final",
			Date:        "2022-12-28",
			TotalVolume: 400,
			Trendline:   []models.TrendPoint{{Period: "Dec 26, 22", Conversations: 400}},
		},
	}}
	sales := models.SalesFixture{"North": {"Dec 2022": "-2%", "Jan 2023": "10%"}}

	r, errs := render.New(fx, sales, render.Options{})
	require.Empty(t, errs)
	return r
}

func setupTestServer(t *testing.T, loaded bool) *testServer {
	t.Helper()
	source := &Latest{}
	if loaded {
		source.Set(testRenderer(t), time.Date(2023, 1, 16, 9, 0, 0, 0, time.UTC))
	}
	s := New(source, view.Default())
	return &testServer{Server: s, api: humatest.Wrap(t, s.api), source: source}
}

func decode(t *testing.T, body []byte, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body, v))
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t, false)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)
	var health HealthResponse
	decode(t, resp.Body.Bytes(), &health)
	assert.Equal(t, "unhealthy", health.Status)

	ts.source.Set(testRenderer(t), time.Now())
	resp = ts.api.Get("/health")
	decode(t, resp.Body.Bytes(), &health)
	assert.Equal(t, "healthy", health.Status)
	assert.NotNil(t, health.LoadedAt)

	ts.source.Fail(errors.New("bad json"))
	resp = ts.api.Get("/health")
	decode(t, resp.Body.Bytes(), &health)
	assert.Equal(t, "degraded", health.Status)
	assert.Contains(t, health.Message, "bad json")
}

func TestRenderEndpointsUnavailableBeforeLoad(t *testing.T) {
	ts := setupTestServer(t, false)

	for _, path := range []string{"/api/timeline", "/api/overlay", "/api/markers", "/api/cards", "/api/payload"} {
		resp := ts.api.Get(path)
		assert.Equal(t, http.StatusServiceUnavailable, resp.Code, path)
	}
}

func TestGetTimeline(t *testing.T) {
	ts := setupTestServer(t, true)

	resp := ts.api.Get("/api/timeline")
	require.Equal(t, http.StatusOK, resp.Code)
	var tl render.Timeline
	decode(t, resp.Body.Bytes(), &tl)
	assert.Equal(t, "weekly", tl.Granularity)
	assert.Equal(t, []string{"Dec 26, 22", "Jan 2, 23"}, tl.Axis)
	require.Len(t, tl.Events, 1)
	assert.Equal(t, "Cricket Final", tl.Events[0].Name)

	resp = ts.api.Get("/api/timeline?granularity=monthly")
	require.Equal(t, http.StatusOK, resp.Code)
	decode(t, resp.Body.Bytes(), &tl)
	assert.Equal(t, []string{"Dec 22", "Jan 23"}, tl.Axis)

	resp = ts.api.Get("/api/timeline?granularity=hourly")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetOverlay(t *testing.T) {
	ts := setupTestServer(t, true)

	resp := ts.api.Get("/api/overlay")
	require.Equal(t, http.StatusOK, resp.Code)
	var ov render.Overlay
	decode(t, resp.Body.Bytes(), &ov)
	assert.Equal(t, 700.0, ov.PrimaryMax)
	assert.InDelta(t, -140.0, ov.PrimaryMin, 1e-9)
	require.Len(t, ov.Sales, 1)
}

func TestGetMarkersAndCards(t *testing.T) {
	ts := setupTestServer(t, true)

	resp := ts.api.Get("/api/markers?granularity=daily")
	require.Equal(t, http.StatusOK, resp.Code)
	var markers []models.Marker
	decode(t, resp.Body.Bytes(), &markers)
	require.Len(t, markers, 1)
	assert.Equal(t, "Dec 28, 22", markers[0].Date)
	assert.Equal(t, render.EventID("Cricket Final"), markers[0].ID)

	resp = ts.api.Get("/api/cards")
	require.Equal(t, http.StatusOK, resp.Code)
	var cards []models.Card
	decode(t, resp.Body.Bytes(), &cards)
	require.Len(t, cards, 1)
	assert.Equal(t, int64(400), cards[0].PeakVolume)
}

func TestViewActions(t *testing.T) {
	ts := setupTestServer(t, true)

	resp := ts.api.Post("/api/view", map[string]any{"type": "set_granularity", "value": "monthly"})
	require.Equal(t, http.StatusOK, resp.Code)
	var info render.ViewInfo
	decode(t, resp.Body.Bytes(), &info)
	assert.Equal(t, "monthly", info.Granularity)

	resp = ts.api.Post("/api/view", map[string]any{"type": "toggle_series", "value": "Cricket Final"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/view")
	decode(t, resp.Body.Bytes(), &info)
	assert.Equal(t, "timeline", info.Mode)
	assert.Equal(t, []string{"Cricket Final"}, info.Hidden)

	// The shared state now drives the render endpoints.
	resp = ts.api.Get("/api/timeline")
	var tl render.Timeline
	decode(t, resp.Body.Bytes(), &tl)
	assert.Equal(t, "monthly", tl.Granularity)
	assert.Empty(t, tl.Events)

	resp = ts.api.Post("/api/view", map[string]any{"type": "zoom", "value": "2x"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestGetPayload(t *testing.T) {
	ts := setupTestServer(t, true)

	resp := ts.api.Get("/api/payload")
	require.Equal(t, http.StatusOK, resp.Code)
	var p render.Payload
	decode(t, resp.Body.Bytes(), &p)
	assert.Equal(t, "timeline", p.View.Mode)
	assert.Equal(t, int64(1000), p.Summary.OverallVolume)
	assert.Len(t, p.Markers, 1)
}
