package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/wanderplan/wanderplan/internal/gateway"
	"github.com/wanderplan/wanderplan/internal/result"
)

const routeDriving = "/route/v1/driving/{coordinates}"

// Route is the fastest driving route between two points.
type Route struct {
	DistanceMeters  float64 `json:"distanceMeters"`
	DurationSeconds float64 `json:"durationSeconds"`
	// Geometry is an encoded polyline of the simplified route.
	Geometry string `json:"geometry"`
}

// Router queries an OSRM server.
type Router struct {
	api *gateway.Client
}

// NewRouter wraps a gateway pointed at an OSRM host.
func NewRouter(api *gateway.Client) *Router {
	return &Router{api: api}
}

// Route returns the driving route from one point to another. A zero
// Route means OSRM found nothing or could not be reached.
func (r *Router) Route(ctx context.Context, from, to Coordinates) result.Envelope[Route] {
	path := fmt.Sprintf("/route/v1/driving/%s;%s", lonLat(from), lonLat(to))
	q := url.Values{}
	q.Set("overview", "simplified")
	q.Set("geometries", "polyline")
	env := r.api.Request(ctx, path, gateway.Options{Method: http.MethodGet, Route: routeDriving, Query: q})
	if !env.Success {
		return result.OK(Route{})
	}

	doc := gjson.ParseBytes(env.Data)
	if code := doc.Get("code"); code.Exists() && code.String() != "Ok" {
		return result.OK(Route{})
	}
	best := doc.Get("routes.0")
	if !best.Exists() {
		return result.OK(Route{})
	}
	return result.OK(Route{
		DistanceMeters:  best.Get("distance").Float(),
		DurationSeconds: best.Get("duration").Float(),
		Geometry:        best.Get("geometry").String(),
	})
}

// OSRM takes longitude first.
func lonLat(c Coordinates) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lon, c.Lat)
}
