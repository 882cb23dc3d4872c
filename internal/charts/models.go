package charts

import (
	"strings"

	"github.com/crownsite/chart-aggregation/internal/common"
)

// Status classifies the outcome of one provider fetch. The zero value means
// the provider returned a usable rank. Display text shown to API consumers
// is derived from the tag, never the other way around.
type Status string

const (
	StatusNone          Status = ""
	StatusNetworkError  Status = "network"
	StatusHTTPError     Status = "http"
	StatusParseError    Status = "parse"
	StatusNotCharted    Status = "notCharted"
	StatusConfigMissing Status = "configMissing"
	StatusInternalError Status = "internal"
)

// Display returns the human-readable status string for this tag. The Korean
// strings are part of the public API shape and must stay stable.
func (s Status) Display() string {
	switch s {
	case StatusNetworkError:
		return "차트 API 서버 연결 실패"
	case StatusHTTPError:
		return "차트 연동 실패"
	case StatusParseError:
		return "차트 응답 파싱 실패"
	case StatusNotCharted:
		return "차트 미진입"
	case StatusConfigMissing:
		return "Missing env: KOREA_MUSIC_CHART_API_BASE_URL"
	case StatusInternalError:
		return "차트 연동 실패"
	default:
		return ""
	}
}

// Transient reports whether this status should trigger the quick-retry path
// instead of waiting for the next hourly boundary.
func (s Status) Transient() bool {
	switch s {
	case StatusNetworkError, StatusHTTPError, StatusParseError, StatusInternalError:
		return true
	}
	return false
}

// StatusFromDisplay recovers a status tag from a display string. Cache files
// written before tags were persisted only carry the display text, so reads
// heal them by fragment matching once; fresh writes always carry the tag.
func StatusFromDisplay(display string) Status {
	switch {
	case display == "":
		return StatusNone
	case common.HasAny(display, "서버 연결 실패"):
		return StatusNetworkError
	case common.HasAny(display, "응답 파싱 실패"):
		return StatusParseError
	case common.HasAny(display, "연동 실패"):
		return StatusHTTPError
	case common.HasAny(display, "미진입"):
		return StatusNotCharted
	case common.HasAny(display, "Missing env"):
		return StatusConfigMissing
	}
	return StatusInternalError
}

// ChartItem is one provider's result for the tracked song. Rank and PrevRank
// are absent when the song is not charted or the fetch failed. RankStatus and
// ChangedRank mirror the provider's own movement signal when it supplies one;
// they are persisted so the next cycle can audit where PrevRank came from.
type ChartItem struct {
	Label       string `json:"label"`
	Status      string `json:"status,omitempty"`
	StatusCode  Status `json:"statusCode,omitempty"`
	Rank        *int   `json:"rank,omitempty"`
	PrevRank    *int   `json:"prevRank,omitempty"`
	RankStatus  string `json:"rankStatus,omitempty"`
	ChangedRank *int   `json:"changedRank,omitempty"`
}

// StatusItem builds a rank-less item carrying only a failure or placeholder
// state for the given platform label.
func StatusItem(label string, code Status) ChartItem {
	return ChartItem{
		Label:      label,
		Status:     code.Display(),
		StatusCode: code,
	}
}

// Movement returns the rank delta against the previous snapshot. Positive
// means the song moved up (rank 5 from prevRank 10 is +5); zero covers both
// a flat rank and unknown movement.
func (i ChartItem) Movement() int {
	if i.Rank == nil || i.PrevRank == nil {
		return 0
	}
	return *i.PrevRank - *i.Rank
}

// ChartsData is the aggregate snapshot returned to API consumers. Items hold
// exactly one entry per configured platform, in configuration order.
type ChartsData struct {
	LastUpdated string      `json:"lastUpdated"`
	Items       []ChartItem `json:"items"`
}

// HasTransientFailure reports whether any item recorded a failure worth
// retrying ahead of the hourly boundary.
func (d ChartsData) HasTransientFailure() bool {
	for _, item := range d.Items {
		if item.StatusCode.Transient() {
			return true
		}
	}
	return false
}

// HasDeprecatedPlaceholders detects placeholder entries left behind by
// earlier cache schemas so they can be refreshed away instead of served.
func (d ChartsData) HasDeprecatedPlaceholders() bool {
	for _, item := range d.Items {
		label := strings.TrimSpace(item.Label)
		status := strings.TrimSpace(item.Status)
		if label == "플로 실시간" {
			return true
		}
		if strings.Contains(label, "플로") && status == "준비중" {
			return true
		}
	}
	return false
}

// Snapshot is the persisted form of ChartsData. FetchedAt records when the
// fetch actually completed and drives the quick-retry cooldown; it is never
// exposed through the API.
type Snapshot struct {
	LastUpdated string      `json:"lastUpdated"`
	FetchedAt   string      `json:"fetchedAt,omitempty"`
	Items       []ChartItem `json:"items"`
}

// Data strips the persisted-only fields.
func (s Snapshot) Data() ChartsData {
	return ChartsData{LastUpdated: s.LastUpdated, Items: s.Items}
}

// Store is the contract the snapshot cache must satisfy. Read is permissive:
// a missing, unreadable, or structurally invalid cache reads as (zero, false)
// rather than an error.
type Store interface {
	Read() (Snapshot, bool)
	Write(snapshot Snapshot) error
}
