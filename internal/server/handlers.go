package server

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rewired-gh/trendline/internal/models"
	"github.com/rewired-gh/trendline/internal/period"
	"github.com/rewired-gh/trendline/internal/render"
	"github.com/rewired-gh/trendline/internal/view"
)

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
	}, s.handleHealth)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPayload",
		Method:      http.MethodGet,
		Path:        "/api/payload",
		Summary:     "Full payload for the current view",
		Tags:        []string{"Render"},
	}, s.handleGetPayload)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTimeline",
		Method:      http.MethodGet,
		Path:        "/api/timeline",
		Summary:     "Conversation timeline",
		Tags:        []string{"Render"},
	}, s.handleGetTimeline)

	huma.Register(s.api, huma.Operation{
		OperationID: "getOverlay",
		Method:      http.MethodGet,
		Path:        "/api/overlay",
		Summary:     "Volume versus sales share overlay",
		Tags:        []string{"Render"},
	}, s.handleGetOverlay)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMarkers",
		Method:      http.MethodGet,
		Path:        "/api/markers",
		Summary:     "Event markers",
		Tags:        []string{"Render"},
	}, s.handleGetMarkers)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCards",
		Method:      http.MethodGet,
		Path:        "/api/cards",
		Summary:     "Event detail cards",
		Tags:        []string{"Render"},
	}, s.handleGetCards)

	huma.Register(s.api, huma.Operation{
		OperationID: "getView",
		Method:      http.MethodGet,
		Path:        "/api/view",
		Summary:     "Current view state",
		Tags:        []string{"View"},
	}, s.handleGetView)

	huma.Register(s.api, huma.Operation{
		OperationID: "applyViewAction",
		Method:      http.MethodPost,
		Path:        "/api/view",
		Summary:     "Apply a view action",
		Tags:        []string{"View"},
	}, s.handleApplyViewAction)
}

// HealthResponse reports whether fixtures are loaded.
type HealthResponse struct {
	Status   string     `json:"status" doc:"healthy, degraded or unhealthy"`
	LoadedAt *time.Time `json:"loaded_at,omitempty" doc:"When the fixtures in service were loaded"`
	Message  string     `json:"message,omitempty"`
}

// HealthOutput wraps the health response for huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealth(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	out := &HealthOutput{Body: HealthResponse{Status: "healthy"}}

	_, loadedAt, err := s.source.Current()
	if err != nil {
		out.Body.Status = "unhealthy"
		out.Body.Message = err.Error()
		return out, nil
	}
	out.Body.LoadedAt = &loadedAt

	if l, ok := s.source.(*Latest); ok {
		if reloadErr := l.LastError(); reloadErr != nil {
			out.Body.Status = "degraded"
			out.Body.Message = "last reload failed: " + reloadErr.Error()
		}
	}
	return out, nil
}

// GranularityInput selects a granularity, defaulting to the current view's.
type GranularityInput struct {
	Granularity string `query:"granularity" doc:"daily, weekly or monthly; defaults to the current view"`
}

func (s *Server) granularity(input *GranularityInput) (period.Granularity, error) {
	if input.Granularity == "" {
		return s.State().Granularity, nil
	}
	g, err := period.ParseGranularity(input.Granularity)
	if err != nil {
		return 0, huma.Error400BadRequest(err.Error())
	}
	return g, nil
}

func (s *Server) renderer() (*render.Renderer, error) {
	r, _, err := s.source.Current()
	if err != nil {
		return nil, huma.Error503ServiceUnavailable(err.Error())
	}
	return r, nil
}

// PayloadOutput wraps a full payload.
type PayloadOutput struct {
	Body *render.Payload
}

func (s *Server) handleGetPayload(_ context.Context, _ *struct{}) (*PayloadOutput, error) {
	r, err := s.renderer()
	if err != nil {
		return nil, err
	}
	return &PayloadOutput{Body: r.Build(s.State())}, nil
}

// TimelineOutput wraps the timeline chart.
type TimelineOutput struct {
	Body render.Timeline
}

func (s *Server) handleGetTimeline(_ context.Context, input *GranularityInput) (*TimelineOutput, error) {
	g, err := s.granularity(input)
	if err != nil {
		return nil, err
	}
	r, err := s.renderer()
	if err != nil {
		return nil, err
	}
	return &TimelineOutput{Body: r.Timeline(g, s.State().Visible)}, nil
}

// OverlayOutput wraps the overlay chart.
type OverlayOutput struct {
	Body render.Overlay
}

func (s *Server) handleGetOverlay(_ context.Context, _ *struct{}) (*OverlayOutput, error) {
	r, err := s.renderer()
	if err != nil {
		return nil, err
	}
	return &OverlayOutput{Body: r.Overlay(s.State().Visible)}, nil
}

// MarkersOutput wraps the marker list.
type MarkersOutput struct {
	Body []models.Marker
}

func (s *Server) handleGetMarkers(_ context.Context, input *GranularityInput) (*MarkersOutput, error) {
	g, err := s.granularity(input)
	if err != nil {
		return nil, err
	}
	r, err := s.renderer()
	if err != nil {
		return nil, err
	}
	return &MarkersOutput{Body: r.Markers(g)}, nil
}

// CardsOutput wraps the card list.
type CardsOutput struct {
	Body []models.Card
}

func (s *Server) handleGetCards(_ context.Context, _ *struct{}) (*CardsOutput, error) {
	r, err := s.renderer()
	if err != nil {
		return nil, err
	}
	return &CardsOutput{Body: r.Cards()}, nil
}

// ViewOutput wraps the view state.
type ViewOutput struct {
	Body render.ViewInfo
}

func (s *Server) handleGetView(_ context.Context, _ *struct{}) (*ViewOutput, error) {
	return &ViewOutput{Body: render.NewViewInfo(s.State())}, nil
}

// ViewActionInput is one reducer action.
type ViewActionInput struct {
	Body struct {
		Type  string `json:"type" enum:"set_mode,set_granularity,highlight,clear_highlight,toggle_series" doc:"Action type"`
		Value string `json:"value,omitempty" doc:"Action argument"`
	}
}

func (s *Server) handleApplyViewAction(_ context.Context, input *ViewActionInput) (*ViewOutput, error) {
	state := s.apply(view.Action{Type: view.ActionType(input.Body.Type), Value: input.Body.Value})
	return &ViewOutput{Body: render.NewViewInfo(state)}, nil
}
