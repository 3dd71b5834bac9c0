package main

import (
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wanderplan/wanderplan/internal/config"
	"github.com/wanderplan/wanderplan/internal/credentials"
	"github.com/wanderplan/wanderplan/internal/feedback"
	"github.com/wanderplan/wanderplan/internal/gallery"
	"github.com/wanderplan/wanderplan/internal/gateway"
	"github.com/wanderplan/wanderplan/internal/geo"
	"github.com/wanderplan/wanderplan/internal/metrics"
	"github.com/wanderplan/wanderplan/internal/places"
	"github.com/wanderplan/wanderplan/internal/plans"
	"github.com/wanderplan/wanderplan/internal/session"
	"github.com/wanderplan/wanderplan/internal/user"
	"github.com/wanderplan/wanderplan/internal/wallet"
)

// client is the wired core: one gateway per host and the services on top.
type client struct {
	session  *session.Manager
	places   *places.Service
	plans    *plans.Service
	wallet   *wallet.Service
	feedback *feedback.Service
	gallery  *gallery.Service
	users    *user.Service
	geocoder *geo.Geocoder
	router   *geo.Router
	weather  *geo.Weather
	tiles    geo.Tiles

	out    io.Writer
	errOut io.Writer
}

func newClient(cfg config.Config, store credentials.Store, logger *slog.Logger, reg prometheus.Registerer) *client {
	m := metrics.NewGateway(reg)
	host := func(base string, tokens credentials.Reader) *gateway.Client {
		return gateway.New(gateway.Config{BaseURL: base, Timeout: cfg.RequestTimeout}, tokens, logger, m)
	}

	api := host(cfg.APIBaseURL, store)
	uploads := host(cfg.UploadBaseURL, store)
	return &client{
		session:  session.New(store, api, logger),
		places:   places.NewService(api),
		plans:    plans.NewService(api),
		wallet:   wallet.NewService(api),
		feedback: feedback.NewService(api),
		gallery:  gallery.NewService(uploads),
		users:    user.NewService(api),
		geocoder: geo.NewGeocoder(host(cfg.GeocoderURL, nil)),
		router:   geo.NewRouter(host(cfg.RouterURL, nil)),
		weather:  geo.NewWeather(host(cfg.WeatherURL, nil)),
		tiles:    geo.NewTiles(cfg.TileURL),
	}
}
