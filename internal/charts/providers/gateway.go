package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/crownsite/chart-aggregation/internal/charts"
)

// Platform is one chart endpoint on the upstream gateway. PathFormat takes
// the URL-escaped artist name.
type Platform struct {
	Label      string
	PathFormat string
}

// DefaultPlatforms returns the configured chart list. Order here is the
// order items appear in every snapshot.
func DefaultPlatforms() []Platform {
	return []Platform{
		{Label: "멜론 TOP100", PathFormat: "/melon/chart/%s"},
		{Label: "멜론 HOT100 100일", PathFormat: "/melon/hot100/D100/chart/%s"},
		{Label: "멜론 HOT100 30일", PathFormat: "/melon/hot100/D30/chart/%s"},
		{Label: "지니 TOP200", PathFormat: "/genie/chart/%s"},
		{Label: "벅스 실시간", PathFormat: "/bugs/chart/%s"},
		{Label: "플로 24시간", PathFormat: "/flo/chart/%s"},
		{Label: "바이브 국내 급상승", PathFormat: "/vibe/chart/%s"},
	}
}

var errHTTPStatus = errors.New("unexpected status code")

// GatewayProvider fetches one platform's chart through the Korea music chart
// gateway and matches the tracked song inside the payload. Each platform
// gets its own circuit breaker so a flapping upstream is short-circuited
// without blocking the others.
type GatewayProvider struct {
	platform Platform
	baseURL  string
	client   *http.Client
	timeout  time.Duration
	circuit  *gobreaker.CircuitBreaker
}

// NewGatewayProviders builds one provider per platform against the given
// gateway base URL. The timeout bounds each fetch so a hanging platform
// cannot stall the refresh join barrier.
func NewGatewayProviders(client *http.Client, baseURL string, timeout time.Duration, platforms []Platform) []charts.Provider {
	provs := make([]charts.Provider, 0, len(platforms))
	for _, platform := range platforms {
		cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        platform.Label,
			MaxRequests: 3,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		})
		provs = append(provs, &GatewayProvider{
			platform: platform,
			baseURL:  strings.TrimRight(baseURL, "/"),
			client:   client,
			timeout:  timeout,
			circuit:  cb,
		})
	}
	return provs
}

func (p *GatewayProvider) Label() string {
	return p.platform.Label
}

// Fetch issues a single GET for this platform and classifies the outcome.
// There are no retries inside a cycle; recovery from transient failures is
// the staleness layer's quick-retry concern.
func (p *GatewayProvider) Fetch(ctx context.Context, artist, track string) charts.ChartItem {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	endpoint := p.baseURL + fmt.Sprintf(p.platform.PathFormat, url.PathEscape(artist))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return charts.StatusItem(p.platform.Label, charts.StatusNetworkError)
	}
	req.Header.Set("Accept", "application/json")

	body, err := p.do(req)
	if err != nil {
		if errors.Is(err, errHTTPStatus) {
			return charts.StatusItem(p.platform.Label, charts.StatusHTTPError)
		}
		return charts.StatusItem(p.platform.Label, charts.StatusNetworkError)
	}

	entries, err := charts.ExtractEntries(body)
	if err != nil {
		return charts.StatusItem(p.platform.Label, charts.StatusParseError)
	}

	match := charts.PickEntry(entries, artist, track)
	if match == nil {
		return charts.StatusItem(p.platform.Label, charts.StatusNotCharted)
	}
	rank, ok := match.RankValue()
	if !ok {
		return charts.StatusItem(p.platform.Label, charts.StatusNotCharted)
	}

	item := charts.ChartItem{
		Label:      p.platform.Label,
		Rank:       &rank,
		PrevRank:   match.PrevRankFromMovement(rank),
		RankStatus: strings.TrimSpace(match.RankStatus),
	}
	if match.ChangedRank != nil {
		changed := int(*match.ChangedRank)
		item.ChangedRank = &changed
	}
	return item
}

// do runs the request through the circuit breaker and returns the response
// body on 2xx. Non-2xx responses count as breaker failures, matching how
// upstream flapping should open the circuit.
func (p *GatewayProvider) do(req *http.Request) ([]byte, error) {
	out, err := p.circuit.Execute(func() (interface{}, error) {
		resp, err := p.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, fmt.Errorf("%w: %d", errHTTPStatus, resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}

	body, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return body, nil
}
