package geo

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/wanderplan/wanderplan/internal/gateway"
	"github.com/wanderplan/wanderplan/internal/result"
)

const endpointForecast = "/v1/forecast"

// Forecast is the current weather at a position.
type Forecast struct {
	TemperatureC  float64 `json:"temperatureC"`
	WindSpeedKmh  float64 `json:"windSpeedKmh"`
	WindDirection float64 `json:"windDirection"`
	// WeatherCode is the WMO interpretation code.
	WeatherCode int    `json:"weatherCode"`
	IsDay       bool   `json:"isDay"`
	Time        string `json:"time,omitempty"`
}

// Weather reads current conditions from Open-Meteo.
type Weather struct {
	api *gateway.Client
}

// NewWeather wraps a gateway pointed at an Open-Meteo host.
func NewWeather(api *gateway.Client) *Weather {
	return &Weather{api: api}
}

// Current returns the current weather at c, or a zero Forecast when the
// service has no data.
func (w *Weather) Current(ctx context.Context, c Coordinates) result.Envelope[Forecast] {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(c.Lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(c.Lon, 'f', 4, 64))
	q.Set("current_weather", "true")
	env := w.api.Get(ctx, endpointForecast, q)
	if !env.Success {
		return result.OK(Forecast{})
	}

	cur := gjson.GetBytes(env.Data, "current_weather")
	if !cur.IsObject() {
		return result.OK(Forecast{})
	}
	return result.OK(Forecast{
		TemperatureC:  cur.Get("temperature").Float(),
		WindSpeedKmh:  cur.Get("windspeed").Float(),
		WindDirection: cur.Get("winddirection").Float(),
		WeatherCode:   int(cur.Get("weathercode").Int()),
		IsDay:         cur.Get("is_day").Int() == 1,
		Time:          cur.Get("time").String(),
	})
}
