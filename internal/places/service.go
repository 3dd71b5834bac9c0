// Package places browses the place catalogue and the user's favorites.
package places

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/wanderplan/wanderplan/internal/gateway"
	"github.com/wanderplan/wanderplan/internal/result"
)

const (
	EndpointList      = "/places/get-all"
	EndpointFavorites = "/places/favorites"
	routePlace        = "/places/{id}"
	routeFavorite     = "/places/{id}/favorite"
)

// Service exposes the places endpoints.
type Service struct {
	api *gateway.Client
}

// NewService builds a places service on top of the API gateway.
func NewService(api *gateway.Client) *Service {
	return &Service{api: api}
}

// List returns one page of places matching q.
func (s *Service) List(ctx context.Context, q ListQuery) result.Envelope[result.Page[Place]] {
	env := s.api.Get(ctx, EndpointList, q.Values())
	page := result.Decode[result.Page[Place]](env, EndpointList, "Failed to fetch places")
	return result.Map(page, result.Page[Place].Normalized)
}

// Get fetches a single place.
func (s *Service) Get(ctx context.Context, id string) result.Envelope[Place] {
	id = strings.TrimSpace(id)
	if id == "" {
		return result.Invalid[Place]("Place id is required", routePlace)
	}
	env := s.api.Request(ctx, "/places/"+url.PathEscape(id), gateway.Options{Method: http.MethodGet, Route: routePlace})
	return result.Decode[Place](env, routePlace, "Failed to fetch place")
}

// Favorites lists the places the user marked as favorite.
func (s *Service) Favorites(ctx context.Context) result.Envelope[[]Place] {
	env := s.api.Get(ctx, EndpointFavorites, nil)
	favs := result.Decode[[]Place](env, EndpointFavorites, "Failed to fetch favorite places")
	return result.Map(favs, func(p []Place) []Place {
		if p == nil {
			return []Place{}
		}
		return p
	})
}

// ToggleFavorite flips the favorite flag of a place.
func (s *Service) ToggleFavorite(ctx context.Context, id string) result.Envelope[FavoriteResult] {
	id = strings.TrimSpace(id)
	if id == "" {
		return result.Invalid[FavoriteResult]("Place id is required", routeFavorite)
	}
	env := s.api.Request(ctx, "/places/"+url.PathEscape(id)+"/favorite", gateway.Options{Method: http.MethodPost, Route: routeFavorite})
	return result.Decode[FavoriteResult](env, routeFavorite, "Failed to update favorite")
}
