package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crownsite/chart-aggregation/internal/charts"
)

func iptr(v int) *int { return &v }

func testStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "charts-cache.json")
	return NewFileStore(path, zerolog.Nop()), path
}

func TestWriteThenRead_RoundTrip(t *testing.T) {
	fs, _ := testStore(t)

	in := charts.Snapshot{
		LastUpdated: "2024-01-01T13:00:00+09:00",
		Items: []charts.ChartItem{
			{Label: "멜론 TOP100", Rank: iptr(3), PrevRank: iptr(5)},
			charts.StatusItem("지니 TOP200", charts.StatusNotCharted),
		},
	}
	require.NoError(t, fs.Write(in))

	out, ok := fs.Read()
	require.True(t, ok)
	assert.Equal(t, in.LastUpdated, out.LastUpdated)
	assert.Equal(t, in.Items, out.Items)
	// Write stamps the actual fetch completion time.
	assert.NotEmpty(t, out.FetchedAt)
}

func TestRead_Idempotent(t *testing.T) {
	fs, _ := testStore(t)
	require.NoError(t, fs.Write(charts.Snapshot{
		LastUpdated: "2024-01-01T13:00:00+09:00",
		Items:       []charts.ChartItem{{Label: "멜론 TOP100", Rank: iptr(3)}},
	}))

	first, ok := fs.Read()
	require.True(t, ok)
	second, ok := fs.Read()
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestRead_MissingFile(t *testing.T) {
	fs, _ := testStore(t)
	_, ok := fs.Read()
	assert.False(t, ok)
}

func TestRead_WrongTypeLastUpdated(t *testing.T) {
	fs, path := testStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"lastUpdated": 123, "items": []}`), 0o644))

	_, ok := fs.Read()
	assert.False(t, ok)
}

func TestRead_InvalidJSON(t *testing.T) {
	fs, path := testStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"lastUpdated": "2024`), 0o644))

	_, ok := fs.Read()
	assert.False(t, ok)
}

func TestRead_MissingItems(t *testing.T) {
	fs, path := testStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"lastUpdated": "2024-01-01T13:00:00+09:00"}`), 0o644))

	_, ok := fs.Read()
	assert.False(t, ok)
}

func TestRead_DropsMalformedItems(t *testing.T) {
	fs, path := testStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	payload := `{
		"lastUpdated": "2024-01-01T13:00:00+09:00",
		"items": [
			{"label": "멜론 TOP100", "rank": 3},
			{"label": "", "rank": 4},
			{"rank": 5},
			{"label": "지니 TOP200", "rank": "oops"},
			{"label": "벅스 실시간", "status": "차트 미진입"}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	out, ok := fs.Read()
	require.True(t, ok)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "멜론 TOP100", out.Items[0].Label)
	assert.Equal(t, "벅스 실시간", out.Items[1].Label)
}

func TestRead_HealsLegacyStatusTags(t *testing.T) {
	fs, path := testStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	payload := `{
		"lastUpdated": "2024-01-01T13:00:00+09:00",
		"fetchedAt": "2024-01-01T13:00:02+09:00",
		"items": [{"label": "멜론 TOP100", "status": "차트 API 서버 연결 실패"}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	out, ok := fs.Read()
	require.True(t, ok)
	require.Len(t, out.Items, 1)
	assert.Equal(t, charts.StatusNetworkError, out.Items[0].StatusCode)
	assert.Equal(t, "2024-01-01T13:00:02+09:00", out.FetchedAt)
}

func TestWrite_ReplacesWholeSnapshot(t *testing.T) {
	fs, _ := testStore(t)
	require.NoError(t, fs.Write(charts.Snapshot{
		LastUpdated: "2024-01-01T13:00:00+09:00",
		Items: []charts.ChartItem{
			{Label: "멜론 TOP100", Rank: iptr(3)},
			{Label: "지니 TOP200", Rank: iptr(8)},
		},
	}))
	require.NoError(t, fs.Write(charts.Snapshot{
		LastUpdated: "2024-01-01T14:00:00+09:00",
		Items:       []charts.ChartItem{{Label: "멜론 TOP100", Rank: iptr(2)}},
	}))

	out, ok := fs.Read()
	require.True(t, ok)
	assert.Equal(t, "2024-01-01T14:00:00+09:00", out.LastUpdated)
	require.Len(t, out.Items, 1)
	assert.Equal(t, 2, *out.Items[0].Rank)
}
