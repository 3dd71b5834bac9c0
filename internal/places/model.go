package places

import (
	"net/url"
	"strings"

	"github.com/wanderplan/wanderplan/internal/result"
)

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is a point of interest as listed by the backend.
type Place struct {
	ID           string   `json:"_id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Category     string   `json:"category,omitempty"`
	Address      string   `json:"address,omitempty"`
	City         string   `json:"city,omitempty"`
	Location     Location `json:"location"`
	Rating       float64  `json:"rating"`
	ReviewCount  int      `json:"reviewCount"`
	PriceLevel   int      `json:"priceLevel,omitempty"`
	Images       []string `json:"images,omitempty"`
	OpeningHours string   `json:"openingHours,omitempty"`
}

// ListQuery filters and pages the place catalogue.
type ListQuery struct {
	result.PageQuery
	Search   string
	Category string
	City     string
}

// Values encodes the query for /places/get-all.
func (q ListQuery) Values() url.Values {
	v := q.PageQuery.Values()
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.City != "" {
		v.Set("city", q.City)
	}
	return v
}

// FavoriteResult reports the favorite flag after a toggle.
type FavoriteResult struct {
	PlaceID   string   `json:"placeId"`
	Favorited bool     `json:"favorited"`
	Favorites []string `json:"favorites"`
}
