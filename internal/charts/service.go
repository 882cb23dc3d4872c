package charts

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/crownsite/chart-aggregation/internal/metrics"
)

// Options tune the staleness policy and the defaults applied when a request
// omits the artist or track.
type Options struct {
	DefaultArtist string
	DefaultTrack  string

	// QuickRetryCooldown bounds how long a transient upstream failure stays
	// visible: once a cached snapshot carries a transient status and this
	// much time has passed since the fetch, the next request refreshes
	// instead of waiting for the hourly boundary.
	QuickRetryCooldown time.Duration

	// TimestampGrace shifts the displayed lastUpdated slightly past the
	// top of the hour to account for the providers' own hourly batch jobs.
	TimestampGrace time.Duration
}

// Service decides per request whether the cached snapshot is still servable
// and, when it is not, fans out to every provider, merges rank history and
// persists the result. Concurrent stale-cache requests for the same
// (artist, track) coalesce into a single upstream fan-out.
type Service struct {
	store     Store
	providers []Provider
	opts      Options
	log       zerolog.Logger
	metrics   *metrics.Metrics
	flight    singleflight.Group
}

func NewService(store Store, providers []Provider, opts Options, log zerolog.Logger, m *metrics.Metrics) *Service {
	if opts.QuickRetryCooldown <= 0 {
		opts.QuickRetryCooldown = 60 * time.Second
	}
	return &Service{
		store:     store,
		providers: providers,
		opts:      opts,
		log:       log,
		metrics:   m,
	}
}

// Get returns the aggregate snapshot for (artist, track), serving the cache
// when it is fresh and refreshing otherwise. It never fails: anything
// unexpected degrades to a single generic-failure item so the API contract
// stays "always a ChartsData".
func (s *Service) Get(ctx context.Context, artist, track string, force bool) (data ChartsData) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("charts refresh panicked")
			data = s.failsafe()
		}
	}()

	if artist == "" {
		artist = s.opts.DefaultArtist
	}
	if track == "" {
		track = s.opts.DefaultTrack
	}

	cached, ok := s.store.Read()
	decision := s.decide(cached, ok, force, time.Now())
	s.metrics.ObserveCacheDecision(decision)

	if decision == decisionHit {
		return cached.Data()
	}

	v, _, _ := s.flight.Do(artist+"\x00"+track, func() (interface{}, error) {
		return s.refresh(ctx, artist, track), nil
	})
	return v.(ChartsData)
}

const (
	decisionHit        = "hit"
	decisionForced     = "forced"
	decisionSchema     = "schema"
	decisionQuickRetry = "quick_retry"
	decisionStale      = "stale"
	decisionMiss       = "miss"
)

// decide classifies why (or whether) a refresh is needed, in the policy's
// precedence order.
func (s *Service) decide(cached Snapshot, ok, force bool, now time.Time) string {
	switch {
	case force:
		return decisionForced
	case !ok:
		return decisionMiss
	case cached.Data().HasDeprecatedPlaceholders():
		return decisionSchema
	case s.quickRetryDue(cached, now):
		return decisionQuickRetry
	case StaleForHourlyRefresh(cached.LastUpdated, now):
		return decisionStale
	}
	return decisionHit
}

// quickRetryDue reports whether the last fetch recorded a transient failure
// long enough ago that an early retry is allowed.
func (s *Service) quickRetryDue(cached Snapshot, now time.Time) bool {
	if !cached.Data().HasTransientFailure() {
		return false
	}
	fetchedAt, err := time.Parse(time.RFC3339, cached.FetchedAt)
	if err != nil {
		return false
	}
	return now.Sub(fetchedAt) >= s.opts.QuickRetryCooldown
}

// refresh fans out to every provider concurrently, joins once all calls have
// settled, merges prevRank carry-forward from the previous snapshot and
// persists the result. A persistence failure is logged and swallowed; the
// freshly computed data is returned regardless.
func (s *Service) refresh(ctx context.Context, artist, track string) ChartsData {
	start := time.Now()

	if len(s.providers) == 0 {
		data := ChartsData{
			LastUpdated: HourStamp(time.Now(), s.opts.TimestampGrace),
			Items:       []ChartItem{StatusItem("차트", StatusConfigMissing)},
		}
		s.persist(data)
		return data
	}

	prevRanks := s.previousRanks()

	items := make([]ChartItem, len(s.providers))
	var wg sync.WaitGroup
	for i, p := range s.providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			items[i] = p.Fetch(ctx, artist, track)
		}(i, p)
	}
	wg.Wait()

	for i := range items {
		item := &items[i]
		outcome := string(item.StatusCode)
		if outcome == "" {
			outcome = "ok"
		}
		s.metrics.ObserveFetch(item.Label, outcome)

		// Provider-supplied movement wins; otherwise carry the previous
		// snapshot's rank forward as prevRank.
		if item.Rank != nil && item.PrevRank == nil {
			if prev, ok := prevRanks[item.Label]; ok {
				item.PrevRank = &prev
			}
		}
	}

	data := ChartsData{
		LastUpdated: HourStamp(time.Now(), s.opts.TimestampGrace),
		Items:       items,
	}
	s.persist(data)

	s.metrics.ObserveRefreshDuration(time.Since(start).Seconds())
	s.log.Info().
		Str("artist", artist).
		Str("track", track).
		Dur("took", time.Since(start)).
		Msg("charts refreshed")
	return data
}

// previousRanks indexes the cached snapshot's ranks by platform label.
func (s *Service) previousRanks() map[string]int {
	cached, ok := s.store.Read()
	if !ok {
		return nil
	}
	prev := make(map[string]int, len(cached.Items))
	for _, item := range cached.Items {
		if item.Rank != nil {
			prev[item.Label] = *item.Rank
		}
	}
	return prev
}

func (s *Service) persist(data ChartsData) {
	snapshot := Snapshot{LastUpdated: data.LastUpdated, Items: data.Items}
	if err := s.store.Write(snapshot); err != nil {
		// Read-only deployments still get a correct response.
		s.log.Warn().Err(err).Msg("cache write failed; serving unpersisted data")
	}
}

// failsafe is the last-resort snapshot when the refresh itself blew up.
func (s *Service) failsafe() ChartsData {
	data := ChartsData{
		LastUpdated: HourStamp(time.Now(), s.opts.TimestampGrace),
		Items:       []ChartItem{StatusItem("차트", StatusInternalError)},
	}
	s.persist(data)
	return data
}
