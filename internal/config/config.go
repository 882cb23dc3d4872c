package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type AppConfig struct {
	// ChartAPIBaseURL points at the upstream chart gateway. When empty, the
	// service still answers but every response carries a single
	// configuration-missing item.
	ChartAPIBaseURL string `validate:"omitempty,url"`

	// CacheFile overrides the snapshot cache location.
	CacheFile string

	// Defaults applied when a request omits artist/track.
	ArtistName string `validate:"required"`
	TrackTitle string `validate:"required"`

	// ProviderTimeout bounds each upstream provider call.
	ProviderTimeout time.Duration `validate:"gt=0"`

	// QuickRetryCooldown is the minimum gap before re-fetching after a
	// transient failure.
	QuickRetryCooldown time.Duration `validate:"gt=0"`

	// TimestampGrace offsets the displayed lastUpdated past the KST hour.
	TimestampGrace time.Duration `validate:"gte=0"`

	// BackgroundRefresh arms the hourly warm-refresh scheduler.
	BackgroundRefresh bool

	Port string
	Env  string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		ChartAPIBaseURL: strings.TrimSpace(os.Getenv("KOREA_MUSIC_CHART_API_BASE_URL")),
		CacheFile:       strings.TrimSpace(os.Getenv("CHARTS_CACHE_FILE")),
		ArtistName:      getenvDefault("ARTIST_NAME", "EXO"),
		TrackTitle:      getenvDefault("TRACK_TITLE", "Crown"),
		Port:            getenvDefault("PORT", "8080"),
		Env:             getenvDefault("APP_ENV", "development"),
	}

	var err error
	if cfg.ProviderTimeout, err = getenvDuration("PROVIDER_TIMEOUT", "8s"); err != nil {
		return nil, err
	}
	if cfg.QuickRetryCooldown, err = getenvDuration("QUICK_RETRY_COOLDOWN", "60s"); err != nil {
		return nil, err
	}
	if cfg.TimestampGrace, err = getenvDuration("CHARTS_TIMESTAMP_GRACE", "1m"); err != nil {
		return nil, err
	}

	cfg.BackgroundRefresh = backgroundRefreshEnabled(os.Getenv("CHARTS_BACKGROUND_REFRESH"), cfg.Env)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// backgroundRefreshEnabled applies the override flag, defaulting to enabled
// outside production (where a platform cron usually owns cache warming).
func backgroundRefreshEnabled(flag, env string) bool {
	switch strings.TrimSpace(flag) {
	case "1":
		return true
	case "0":
		return false
	}
	return !strings.EqualFold(env, "production")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
