package geo

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/wanderplan/wanderplan/internal/gateway"
	"github.com/wanderplan/wanderplan/internal/result"
)

const (
	endpointSearch = "/search"
	searchLimit    = 5
)

// Geocoder resolves free-form addresses through Nominatim. Requests are
// limited to one per second.
type Geocoder struct {
	api     *gateway.Client
	limiter *rate.Limiter
}

// NewGeocoder wraps a gateway pointed at a Nominatim host.
func NewGeocoder(api *gateway.Client) *Geocoder {
	return &Geocoder{api: api, limiter: rate.NewLimiter(rate.Every(time.Second), 1)}
}

// Search returns up to five matches for address, best first.
func (g *Geocoder) Search(ctx context.Context, address string) result.Envelope[[]Coordinates] {
	matches := []Coordinates{}
	address = strings.TrimSpace(address)
	if address == "" {
		return result.OK(matches)
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return result.OK(matches)
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", address)
	q.Set("limit", strconv.Itoa(searchLimit))
	env := g.api.Request(ctx, endpointSearch, gateway.Options{
		Method:  http.MethodGet,
		Query:   q,
		Headers: map[string]string{"User-Agent": UserAgent},
	})
	if !env.Success {
		return result.OK(matches)
	}

	gjson.ParseBytes(env.Data).ForEach(func(_, item gjson.Result) bool {
		lat, latOK := parseFloat(item.Get("lat"))
		lon, lonOK := parseFloat(item.Get("lon"))
		if latOK && lonOK {
			matches = append(matches, Coordinates{Lat: lat, Lon: lon, DisplayName: item.Get("display_name").String()})
		}
		return true
	})
	return result.OK(matches)
}

// parseFloat reads Nominatim coordinates, which arrive as strings.
func parseFloat(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Num, true
	case gjson.String:
		f, err := strconv.ParseFloat(v.Str, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
