package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/crownsite/chart-aggregation/internal/api/http"
	"github.com/crownsite/chart-aggregation/internal/charts"
	"github.com/crownsite/chart-aggregation/internal/charts/providers"
	"github.com/crownsite/chart-aggregation/internal/config"
	"github.com/crownsite/chart-aggregation/internal/logging"
	"github.com/crownsite/chart-aggregation/internal/metrics"
	"github.com/crownsite/chart-aggregation/internal/scheduler"
	"github.com/crownsite/chart-aggregation/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog := logging.New(cfg.Env)
	m := metrics.New()

	// Shared HTTP client for outbound provider calls. Per-provider deadlines
	// are tighter; this is the outer bound.
	httpClient := &http.Client{
		Timeout: cfg.ProviderTimeout + 2*time.Second,
	}

	fileStore := store.NewFileStore(cfg.CacheFile, zlog)

	// Without a gateway base URL the service stays up and answers with a
	// configuration-missing item instead of attempting network calls.
	var provs []charts.Provider
	if cfg.ChartAPIBaseURL != "" {
		provs = providers.NewGatewayProviders(httpClient, cfg.ChartAPIBaseURL, cfg.ProviderTimeout, providers.DefaultPlatforms())
	} else {
		zlog.Warn().Msg("KOREA_MUSIC_CHART_API_BASE_URL is not set; serving placeholder charts")
	}

	service := charts.NewService(fileStore, provs, charts.Options{
		DefaultArtist:      cfg.ArtistName,
		DefaultTrack:       cfg.TrackTitle,
		QuickRetryCooldown: cfg.QuickRetryCooldown,
		TimestampGrace:     cfg.TimestampGrace,
	}, zlog, m)

	if cfg.BackgroundRefresh {
		sched := scheduler.New(service, cfg.ArtistName, cfg.TrackTitle, zlog)
		if err := sched.Start(); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "chart-aggregation",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "chart-aggregation",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("error during shutdown")
	}
}
