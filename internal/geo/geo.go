// Package geo wraps the public map services the planner reads from:
// Nominatim geocoding, OSRM routing, Open-Meteo weather and OSM tiles.
// Lookups never fail hard; a failed or empty response is reported as
// success with no data.
package geo

import (
	"strconv"
	"strings"
)

// UserAgent identifies the client to services whose usage policy asks for it.
const UserAgent = "wanderplan/1.0"

// DefaultTileTemplate is the OpenStreetMap raster tile URL.
const DefaultTileTemplate = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"displayName,omitempty"`
}

// Tiles builds tile URLs from a {z}/{x}/{y} template.
type Tiles struct {
	template string
}

// NewTiles returns a builder for template, or the OSM default when empty.
func NewTiles(template string) Tiles {
	if template == "" {
		template = DefaultTileTemplate
	}
	return Tiles{template: template}
}

// URL returns the address of one tile.
func (t Tiles) URL(z, x, y int) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
	).Replace(t.template)
}

// TileURL returns the default OSM tile address.
func TileURL(z, x, y int) string {
	return NewTiles("").URL(z, x, y)
}
