package store

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/crownsite/chart-aggregation/internal/charts"
)

// FileStore persists the latest charts snapshot as a single JSON file. The
// snapshot is the unit of persistence: every write replaces the whole file.
type FileStore struct {
	mu   sync.Mutex
	path string
	log  zerolog.Logger
}

// DefaultPath is the cache location used when CHARTS_CACHE_FILE is unset.
func DefaultPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return filepath.Join(cwd, ".cache", "charts-cache.json")
}

func NewFileStore(path string, log zerolog.Logger) *FileStore {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}
	return &FileStore{path: path, log: log}
}

// Read loads the cached snapshot. The parse is deliberately permissive: a
// missing file, unreadable JSON, or a wrong top-level shape all count as
// "no cache", and individually malformed items are dropped instead of
// failing the read. Items written by older deployments carry only display
// text; their status tags are recovered by fragment matching.
func (s *FileStore) Read() (charts.Snapshot, bool) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return charts.Snapshot{}, false
	}

	var parsed struct {
		LastUpdated any               `json:"lastUpdated"`
		FetchedAt   any               `json:"fetchedAt"`
		Items       []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return charts.Snapshot{}, false
	}

	lastUpdated, ok := parsed.LastUpdated.(string)
	if !ok || parsed.Items == nil {
		return charts.Snapshot{}, false
	}

	snapshot := charts.Snapshot{
		LastUpdated: lastUpdated,
		Items:       make([]charts.ChartItem, 0, len(parsed.Items)),
	}
	if fetchedAt, ok := parsed.FetchedAt.(string); ok {
		snapshot.FetchedAt = fetchedAt
	}

	for _, rawItem := range parsed.Items {
		var item charts.ChartItem
		if err := json.Unmarshal(rawItem, &item); err != nil {
			continue
		}
		if strings.TrimSpace(item.Label) == "" {
			continue
		}
		if item.StatusCode == charts.StatusNone && item.Status != "" {
			item.StatusCode = charts.StatusFromDisplay(item.Status)
		}
		snapshot.Items = append(snapshot.Items, item)
	}

	return snapshot, true
}

// Write replaces the cache file with the given snapshot, stamping FetchedAt
// with wall-clock now. The parent directory is created on demand. Callers
// treat a write error as non-fatal so read-only deployments keep serving.
func (s *FileStore) Write(snapshot charts.Snapshot) error {
	snapshot.FetchedAt = time.Now().Format(time.RFC3339)

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(s.path, payload, 0o644); err != nil {
		return err
	}
	s.log.Debug().Str("path", s.path).Int("items", len(snapshot.Items)).Msg("cache snapshot written")
	return nil
}
