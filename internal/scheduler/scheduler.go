package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/crownsite/chart-aggregation/internal/charts"
)

// Scheduler proactively refreshes the charts cache so incoming requests
// usually hit the fast serve-cached path. It is owned by the composition
// root and is a convenience only: requests stay correct without it.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *charts.Service
	artist    string
	track     string
	log       zerolog.Logger
}

// New creates a Scheduler that warms the cache for the given default song.
func New(service *charts.Service, artist, track string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		artist:    artist,
		track:     track,
		log:       log,
	}
}

// Start arms the warm-refresh job: first run at the next KST top of hour,
// then every 60 minutes. Korean charts publish on KST hour boundaries, so
// aligning the first run keeps the cache at most seconds behind a new chart.
func (s *Scheduler) Start() error {
	firstRun := charts.NextTopOfHour(time.Now())

	_, err := s.scheduler.Every(1).Hour().StartAt(firstRun).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		s.log.Debug().Msg("scheduler: running charts warm refresh")
		s.service.Get(ctx, s.artist, s.track, false)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info().Time("firstRun", firstRun).Msg("scheduler: hourly charts refresh armed")
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
