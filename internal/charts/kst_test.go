package charts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func TestStaleForHourlyRefresh_SameKSTHour(t *testing.T) {
	now := mustParse(t, "2024-01-01T13:59:59+09:00")
	assert.False(t, StaleForHourlyRefresh("2024-01-01T13:00:00+09:00", now))
}

func TestStaleForHourlyRefresh_NextKSTHour(t *testing.T) {
	now := mustParse(t, "2024-01-01T14:00:00+09:00")
	assert.True(t, StaleForHourlyRefresh("2024-01-01T13:00:00+09:00", now))
}

func TestStaleForHourlyRefresh_MixedZones(t *testing.T) {
	// 04:30Z is 13:30 KST; same KST hour as a stamp written at 13:00 KST.
	now := mustParse(t, "2024-01-01T04:30:00Z")
	assert.False(t, StaleForHourlyRefresh("2024-01-01T13:00:00+09:00", now))
}

func TestStaleForHourlyRefresh_UnparsableStampIsStale(t *testing.T) {
	assert.True(t, StaleForHourlyRefresh("not-a-timestamp", time.Now()))
	assert.True(t, StaleForHourlyRefresh("", time.Now()))
}

func TestHourStamp_TruncatesToKSTHour(t *testing.T) {
	now := mustParse(t, "2024-01-01T13:42:17+09:00")
	assert.Equal(t, "2024-01-01T13:00:00+09:00", HourStamp(now, 0))
}

func TestHourStamp_AppliesGrace(t *testing.T) {
	now := mustParse(t, "2024-01-01T13:42:17+09:00")
	assert.Equal(t, "2024-01-01T13:01:00+09:00", HourStamp(now, time.Minute))
}

func TestHourStamp_StaysInsideItsOwnHour(t *testing.T) {
	now := mustParse(t, "2024-01-01T13:42:17+09:00")
	assert.False(t, StaleForHourlyRefresh(HourStamp(now, time.Minute), now))
}

func TestNextTopOfHour(t *testing.T) {
	now := mustParse(t, "2024-01-01T13:42:17+09:00")
	next := NextTopOfHour(now)
	assert.Equal(t, "2024-01-01T14:00:00+09:00", next.Format(time.RFC3339))

	onBoundary := mustParse(t, "2024-01-01T13:00:00+09:00")
	assert.Equal(t, "2024-01-01T14:00:00+09:00", NextTopOfHour(onBoundary).Format(time.RFC3339))
}
