package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Wiki storage backends.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// Config holds runtime configuration values for the Lorekeeper server and CLI.
type Config struct {
	DBPath            string
	WikiBackend       string
	WikiFile          string
	ServerPort        int
	LogLevel          string
	SentryDSN         string
	Environment       string
	ShutdownGrace     time.Duration
	StrictPersistence bool
	Fetch             FetchConfig
	RateLimit         RateLimitConfig
}

// FetchConfig controls reference wiki retrieval.
type FetchConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
}

// RateLimitConfig controls per-client request throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

const (
	defaultDBPath         = "./data/lorekeeper.db"
	defaultWikiBackend    = BackendSQLite
	defaultWikiFile       = "./data/wiki.json"
	defaultServerPort     = 8080
	defaultLogLevel       = "info"
	defaultEnvironment    = "development"
	defaultShutdownGrace  = 10 * time.Second
	defaultFetchBaseURL   = "https://lordofthemysteries.fandom.com/wiki/"
	defaultFetchTimeout   = 10 * time.Second
	defaultFetchAttempts  = 2
	defaultRateLimitRPS   = 5
	defaultRateLimitBurst = 10
	defaultRateLimitTTL   = 10 * time.Minute
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:      getEnv("DB_PATH", defaultDBPath),
		WikiFile:    getEnv("WIKI_FILE", defaultWikiFile),
		LogLevel:    getEnv("LOG_LEVEL", defaultLogLevel),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
		Environment: getEnv("ENV", defaultEnvironment),
		Fetch: FetchConfig{
			BaseURL: getEnv("FANDOM_BASE_URL", defaultFetchBaseURL),
		},
	}

	backend := strings.ToLower(getEnv("WIKI_BACKEND", defaultWikiBackend))
	if backend != BackendSQLite && backend != BackendJSON {
		return nil, eris.Errorf("invalid WIKI_BACKEND value: %s", backend)
	}
	cfg.WikiBackend = backend

	var err error
	if cfg.ServerPort, err = intEnv("SERVER_PORT", defaultServerPort); err != nil {
		return nil, err
	}
	if cfg.ShutdownGrace, err = durationEnv("SHUTDOWN_GRACE", defaultShutdownGrace); err != nil {
		return nil, err
	}
	if cfg.StrictPersistence, err = boolEnv("STRICT_PERSISTENCE", false); err != nil {
		return nil, err
	}
	if cfg.Fetch.Timeout, err = durationEnv("FETCH_TIMEOUT", defaultFetchTimeout); err != nil {
		return nil, err
	}
	if cfg.Fetch.MaxAttempts, err = intEnv("FETCH_MAX_ATTEMPTS", defaultFetchAttempts); err != nil {
		return nil, err
	}
	if cfg.Fetch.MaxAttempts < 1 {
		return nil, eris.Errorf("FETCH_MAX_ATTEMPTS must be at least 1, got %d", cfg.Fetch.MaxAttempts)
	}

	rpsValue := getEnv("RATE_LIMIT_RPS", strconv.Itoa(defaultRateLimitRPS))
	rps, err := strconv.ParseFloat(rpsValue, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid RATE_LIMIT_RPS value: %s", rpsValue)
	}
	cfg.RateLimit.RequestsPerSecond = rps
	if cfg.RateLimit.Burst, err = intEnv("RATE_LIMIT_BURST", defaultRateLimitBurst); err != nil {
		return nil, err
	}
	if cfg.RateLimit.ClientTTL, err = durationEnv("RATE_LIMIT_TTL", defaultRateLimitTTL); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	value := getEnv(key, strconv.Itoa(fallback))
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, value)
	}
	return parsed, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := getEnv(key, fallback.String())
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, value)
	}
	return parsed, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	value := getEnv(key, strconv.FormatBool(fallback))
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, eris.Wrapf(err, "invalid %s value: %s", key, value)
	}
	return parsed, nil
}
