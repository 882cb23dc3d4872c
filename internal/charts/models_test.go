package charts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func iptr(v int) *int { return &v }

func TestMovement_SignConvention(t *testing.T) {
	// Lower rank number is better; climbing from 10 to 5 is +5.
	up := ChartItem{Rank: iptr(5), PrevRank: iptr(10)}
	assert.Equal(t, 5, up.Movement())

	down := ChartItem{Rank: iptr(10), PrevRank: iptr(5)}
	assert.Equal(t, -5, down.Movement())

	flat := ChartItem{Rank: iptr(5), PrevRank: iptr(5)}
	assert.Equal(t, 0, flat.Movement())

	unknown := ChartItem{Rank: iptr(5)}
	assert.Equal(t, 0, unknown.Movement())
}

func TestStatusTransient(t *testing.T) {
	assert.True(t, StatusNetworkError.Transient())
	assert.True(t, StatusHTTPError.Transient())
	assert.True(t, StatusParseError.Transient())
	assert.True(t, StatusInternalError.Transient())

	assert.False(t, StatusNone.Transient())
	assert.False(t, StatusNotCharted.Transient())
	assert.False(t, StatusConfigMissing.Transient())
}

func TestStatusFromDisplay_HealsLegacyCaches(t *testing.T) {
	assert.Equal(t, StatusNetworkError, StatusFromDisplay("차트 API 서버 연결 실패"))
	assert.Equal(t, StatusHTTPError, StatusFromDisplay("차트 연동 실패"))
	assert.Equal(t, StatusParseError, StatusFromDisplay("차트 응답 파싱 실패"))
	assert.Equal(t, StatusNotCharted, StatusFromDisplay("차트 미진입"))
	assert.Equal(t, StatusConfigMissing, StatusFromDisplay("Missing env: KOREA_MUSIC_CHART_API_BASE_URL"))
	assert.Equal(t, StatusNone, StatusFromDisplay(""))
	assert.Equal(t, StatusInternalError, StatusFromDisplay("something unrecognized"))
}

func TestStatusItem(t *testing.T) {
	item := StatusItem("멜론 TOP100", StatusNotCharted)
	assert.Equal(t, "멜론 TOP100", item.Label)
	assert.Equal(t, "차트 미진입", item.Status)
	assert.Equal(t, StatusNotCharted, item.StatusCode)
	assert.Nil(t, item.Rank)
}

func TestHasTransientFailure(t *testing.T) {
	ok := ChartsData{Items: []ChartItem{
		{Label: "멜론 TOP100", Rank: iptr(3)},
		StatusItem("지니 TOP200", StatusNotCharted),
	}}
	assert.False(t, ok.HasTransientFailure())

	broken := ChartsData{Items: []ChartItem{
		{Label: "멜론 TOP100", Rank: iptr(3)},
		StatusItem("지니 TOP200", StatusNetworkError),
	}}
	assert.True(t, broken.HasTransientFailure())
}

func TestHasDeprecatedPlaceholders(t *testing.T) {
	legacyLabel := ChartsData{Items: []ChartItem{{Label: "플로 실시간", Status: "차트 미진입"}}}
	assert.True(t, legacyLabel.HasDeprecatedPlaceholders())

	legacyStatus := ChartsData{Items: []ChartItem{{Label: "플로 24시간", Status: "준비중"}}}
	assert.True(t, legacyStatus.HasDeprecatedPlaceholders())

	current := ChartsData{Items: []ChartItem{{Label: "플로 24시간", Rank: iptr(12)}}}
	assert.False(t, current.HasDeprecatedPlaceholders())
}
