// Package plans requests generated travel plans and manages saved ones.
// Generation itself runs on the backend.
package plans

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wanderplan/wanderplan/internal/gateway"
	"github.com/wanderplan/wanderplan/internal/result"
)

const (
	EndpointGenerate          = "/plans/generate-travel-plan"
	EndpointGenerateAssistant = "/mcp/generate-travel-plan"
	EndpointList              = "/plans/get-all"
	routePlan                 = "/plans/{id}"

	maxDays = 30
)

// Service exposes the plan endpoints.
type Service struct {
	api *gateway.Client
}

// NewService builds a plans service on top of the API gateway.
func NewService(api *gateway.Client) *Service {
	return &Service{api: api}
}

// Generate asks the plan generator for an itinerary.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) result.Envelope[Plan] {
	return s.generate(ctx, EndpointGenerate, req)
}

// GenerateWithAssistant routes the request through the assistant-backed
// generator, which also honours the free-form Prompt.
func (s *Service) GenerateWithAssistant(ctx context.Context, req GenerateRequest) result.Envelope[Plan] {
	return s.generate(ctx, EndpointGenerateAssistant, req)
}

func (s *Service) generate(ctx context.Context, endpoint string, req GenerateRequest) result.Envelope[Plan] {
	if msg := validate(req); msg != "" {
		return result.Invalid[Plan](msg, endpoint)
	}
	req.Destination = strings.TrimSpace(req.Destination)
	env := s.api.Post(ctx, endpoint, req)
	return result.Decode[Plan](env, endpoint, "Failed to generate travel plan")
}

// List returns one page of the user's saved plans.
func (s *Service) List(ctx context.Context, q result.PageQuery) result.Envelope[result.Page[Plan]] {
	env := s.api.Get(ctx, EndpointList, q.Values())
	page := result.Decode[result.Page[Plan]](env, EndpointList, "Failed to fetch plans")
	return result.Map(page, result.Page[Plan].Normalized)
}

// Get fetches a saved plan.
func (s *Service) Get(ctx context.Context, id string) result.Envelope[Plan] {
	id = strings.TrimSpace(id)
	if id == "" {
		return result.Invalid[Plan]("Plan id is required", routePlan)
	}
	env := s.api.Request(ctx, "/plans/"+url.PathEscape(id), gateway.Options{Method: http.MethodGet, Route: routePlan})
	return result.Decode[Plan](env, routePlan, "Failed to fetch plan")
}

// Delete removes a saved plan.
func (s *Service) Delete(ctx context.Context, id string) result.Envelope[struct{}] {
	id = strings.TrimSpace(id)
	if id == "" {
		return result.Invalid[struct{}]("Plan id is required", routePlan)
	}
	env := s.api.Request(ctx, "/plans/"+url.PathEscape(id), gateway.Options{Method: http.MethodDelete, Route: routePlan})
	if !env.Success {
		return result.Forward[struct{}](env)
	}
	return result.OK(struct{}{})
}

func validate(req GenerateRequest) string {
	switch {
	case strings.TrimSpace(req.Destination) == "":
		return "Destination is required"
	case req.Days < 1 || req.Days > maxDays:
		return "Trip length must be between 1 and 30 days"
	case req.Budget < 0:
		return "Budget cannot be negative"
	case req.Travelers < 0:
		return "Number of travelers cannot be negative"
	}
	if req.StartDate != "" {
		if _, err := time.Parse(time.DateOnly, req.StartDate); err != nil {
			return "Start date must be YYYY-MM-DD"
		}
	}
	return ""
}
