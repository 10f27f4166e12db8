package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Region resolution configuration.
	RegionsPath    string
	RegionStrategy string

	// Live feed configuration.
	FeedURL           string
	FeedTimeout       time.Duration
	FeedTTL           time.Duration
	FeedStaleFallback bool

	// Risk score weights. Defaults are fixed for reproducibility; override
	// deliberately, not casually.
	RiskCountWeight float64
	RiskAvgWeight   float64
	RiskMaxWeight   float64
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	feedTimeout, err := parseDuration("FEED_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	feedTTL, err := parseDuration("FEED_TTL", "300s")
	if err != nil {
		return nil, err
	}

	countWeight, err := parseFloat("RISK_COUNT_WEIGHT", 0.3)
	if err != nil {
		return nil, err
	}
	avgWeight, err := parseFloat("RISK_AVG_WEIGHT", 10)
	if err != nil {
		return nil, err
	}
	maxWeight, err := parseFloat("RISK_MAX_WEIGHT", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		RegionsPath:    envOrDefault("REGIONS_PATH", "config/regions.yaml"),
		RegionStrategy: envOrDefault("REGION_STRATEGY", "bbox"),

		FeedURL:           envOrDefault("FEED_URL", ""),
		FeedTimeout:       feedTimeout,
		FeedTTL:           feedTTL,
		FeedStaleFallback: os.Getenv("FEED_STALE_FALLBACK") == "true",

		RiskCountWeight: countWeight,
		RiskAvgWeight:   avgWeight,
		RiskMaxWeight:   maxWeight,
	}

	if cfg.RegionsPath == "" {
		return nil, errors.New("REGIONS_PATH is required")
	}
	if cfg.RegionStrategy != "bbox" && cfg.RegionStrategy != "polygon" {
		return nil, fmt.Errorf("invalid REGION_STRATEGY %q (want bbox or polygon)", cfg.RegionStrategy)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return d, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return v, nil
}
