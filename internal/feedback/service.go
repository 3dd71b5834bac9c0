// Package feedback posts and lists place reviews.
package feedback

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/wanderplan/wanderplan/internal/gateway"
	"github.com/wanderplan/wanderplan/internal/result"
)

const (
	EndpointCreate = "/feedback"
	routeByPlace   = "/feedback/place/{id}"

	minRating = 1
	maxRating = 5
)

// Service exposes the feedback endpoints.
type Service struct {
	api *gateway.Client
}

// NewService builds a feedback service on top of the API gateway.
func NewService(api *gateway.Client) *Service {
	return &Service{api: api}
}

// Create submits a review.
func (s *Service) Create(ctx context.Context, req CreateReviewRequest) result.Envelope[Review] {
	req.PlaceID = strings.TrimSpace(req.PlaceID)
	if req.PlaceID == "" {
		return result.Invalid[Review]("Place id is required", EndpointCreate)
	}
	if req.Rating < minRating || req.Rating > maxRating {
		return result.Invalid[Review]("Rating must be between 1 and 5", EndpointCreate)
	}
	env := s.api.Post(ctx, EndpointCreate, req)
	return result.Decode[Review](env, EndpointCreate, "Failed to submit feedback")
}

// ListByPlace returns one page of reviews for a place.
func (s *Service) ListByPlace(ctx context.Context, placeID string, q result.PageQuery) result.Envelope[result.Page[Review]] {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return result.Invalid[result.Page[Review]]("Place id is required", routeByPlace)
	}
	env := s.api.Request(ctx, "/feedback/place/"+url.PathEscape(placeID), gateway.Options{
		Method: http.MethodGet,
		Route:  routeByPlace,
		Query:  q.Values(),
	})
	page := result.Decode[result.Page[Review]](env, routeByPlace, "Failed to fetch feedback")
	return result.Map(page, result.Page[Review].Normalized)
}
