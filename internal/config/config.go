package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName           = "Wanderplan"
	defaultAppEnv            = "development"
	defaultPort              = "8080"
	defaultLogLevel          = "info"
	defaultRequestTimeout    = 15 * time.Second
	defaultShutdownDelay     = 10 * time.Second
	defaultIdempotencyTTL    = 24 * time.Hour
	defaultAccessTokenTTL    = 15 * time.Minute
	defaultRefreshTokenTTL   = 7 * 24 * time.Hour
	defaultCredentialBackend = BackendMemory
	defaultCredentialProfile = "default"
	defaultGeocoderURL       = "https://nominatim.openstreetmap.org"
	defaultRouterURL         = "https://router.project-osrm.org"
	defaultWeatherURL        = "https://api.open-meteo.com"
	defaultTileURL           = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	timeoutSecondsEnvVar     = "REQUEST_TIMEOUT_SECONDS"
	timeoutDurationEnvVar    = "REQUEST_TIMEOUT"
	idemTTLDurEnvVar         = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar    = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar   = "SHUTDOWN_TIMEOUT"
)

// Credential store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config captures runtime configuration loaded from environment variables.
// It is fixed for the lifetime of the process.
type Config struct {
	AppName string
	AppEnv  string
	Port    string

	LogLevel string

	APIBaseURL     string
	UploadBaseURL  string
	RequestTimeout time.Duration

	CredentialBackend string
	CredentialProfile string
	DatabaseURL       string
	RedisURL          string

	GeocoderURL string
	RouterURL   string
	WeatherURL  string
	TileURL     string

	JWTSecret       string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ShutdownPeriod  time.Duration
	IdempotencyTTL  time.Duration
}

// Load reads configuration values from the environment, after merging any
// .env file found in the working directory, and populates a Config.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from the process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		AppName:           getEnv("APP_NAME", defaultAppName),
		AppEnv:            getEnv("APP_ENV", defaultAppEnv),
		Port:              getEnv("PORT", defaultPort),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		APIBaseURL:        trimBase(os.Getenv("API_BASE_URL")),
		UploadBaseURL:     trimBase(os.Getenv("UPLOAD_BASE_URL")),
		RequestTimeout:    defaultRequestTimeout,
		CredentialBackend: strings.ToLower(getEnv("CREDENTIAL_BACKEND", defaultCredentialBackend)),
		CredentialProfile: getEnv("CREDENTIAL_PROFILE", defaultCredentialProfile),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		GeocoderURL:       trimBase(getEnv("GEOCODER_URL", defaultGeocoderURL)),
		RouterURL:         trimBase(getEnv("ROUTER_URL", defaultRouterURL)),
		WeatherURL:        trimBase(getEnv("WEATHER_URL", defaultWeatherURL)),
		TileURL:           getEnv("TILE_URL", defaultTileURL),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		RefreshSecret:     os.Getenv("JWT_REFRESH_SECRET"),
		AccessTokenTTL:    defaultAccessTokenTTL,
		RefreshTokenTTL:   defaultRefreshTokenTTL,
		ShutdownPeriod:    defaultShutdownDelay,
		IdempotencyTTL:    defaultIdempotencyTTL,
	}

	var err error
	if cfg.RequestTimeout, err = durationEnv(timeoutSecondsEnvVar, timeoutDurationEnvVar, cfg.RequestTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownPeriod, err = durationEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("", idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL, err = durationEnv("", "ACCESS_TOKEN_TTL", cfg.AccessTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = durationEnv("", "REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL); err != nil {
		return Config{}, err
	}

	if cfg.UploadBaseURL == "" {
		cfg.UploadBaseURL = cfg.APIBaseURL
	}
	if cfg.RefreshSecret == "" {
		cfg.RefreshSecret = cfg.JWTSecret
	}

	return cfg, nil
}

// ValidateClient checks the settings the API client cannot run without.
func (c Config) ValidateClient() error {
	if c.APIBaseURL == "" {
		return errors.New("API_BASE_URL must be set")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	switch c.CredentialBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL must be set for the redis credential backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set for the postgres credential backend")
		}
	default:
		return fmt.Errorf("unknown CREDENTIAL_BACKEND %q", c.CredentialBackend)
	}
	return nil
}

// ValidateServer checks the settings the stub backend cannot run without.
func (c Config) ValidateServer() error {
	if c.JWTSecret == "" && !c.IsDev() {
		return errors.New("JWT_SECRET must be set")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	return nil
}

// IsDev reports whether the app runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func durationEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if secondsKey != "" {
		if v := os.Getenv(secondsKey); v != "" {
			seconds, err := strconv.Atoi(v)
			if err != nil {
				return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
			}
			return time.Duration(seconds) * time.Second, nil
		}
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func trimBase(url string) string {
	return strings.TrimRight(strings.TrimSpace(url), "/")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
