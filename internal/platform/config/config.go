package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type HTTPConfig struct {
	Addr string
}

type TMDBConfig struct {
	APIKey   string
	BaseURL  string
	Language string
}

type CacheConfig struct {
	// VolatileTTL covers per-user state (search, recently watched).
	VolatileTTL time.Duration
	// ReferenceTTL covers near-static catalog metadata.
	ReferenceTTL time.Duration
	RedisURL     string // optional; empty selects the in-memory cache
}

type AppConfig struct {
	ServiceName string
	LogLevel    string
	HTTP        HTTPConfig
	JWTSecret   []byte
	TMDB        TMDBConfig
	Cache       CacheConfig

	// Aggregation and pagination bounds. Fixed policy constants carried
	// over from the product; overridable for experiments, not guesses.
	RecentFactLimit int // raw watched facts scanned per recently-watched query
	RecentMaxShows  int // distinct shows returned per recently-watched query
	ListPageCeiling int // max depth for open-ended popular/discover/trending feeds
}

const (
	DefaultRecentFactLimit = 50
	DefaultRecentMaxShows  = 6
	DefaultListPageCeiling = 5
)

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: strings.TrimSpace(os.Getenv("SERVICE_NAME")),
		LogLevel:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		HTTP: HTTPConfig{
			Addr: strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		},
		TMDB: TMDBConfig{
			APIKey:   strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
			BaseURL:  strings.TrimSpace(os.Getenv("TMDB_BASE_URL")),
			Language: strings.TrimSpace(os.Getenv("TMDB_LANGUAGE")),
		},
		Cache: CacheConfig{
			VolatileTTL:  envDuration("CACHE_VOLATILE_TTL", 30*time.Second),
			ReferenceTTL: envDuration("CACHE_REFERENCE_TTL", 24*time.Hour),
			RedisURL:     strings.TrimSpace(os.Getenv("REDIS_URL")),
		},
		RecentFactLimit: envInt("RECENT_FACT_LIMIT", DefaultRecentFactLimit),
		RecentMaxShows:  envInt("RECENT_MAX_SHOWS", DefaultRecentMaxShows),
		ListPageCeiling: envInt("LIST_PAGE_CEILING", DefaultListPageCeiling),
	}
	if cfg.ServiceName == "" {
		return AppConfig{}, errors.New("SERVICE_NAME is required")
	}
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return AppConfig{}, errors.New("JWT_SECRET is required")
	}
	cfg.JWTSecret = []byte(secret)
	if cfg.TMDB.APIKey == "" {
		return AppConfig{}, errors.New("TMDB_API_KEY is required")
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
