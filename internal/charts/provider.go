package charts

import "context"

// Provider resolves the tracked song's current rank on a single chart
// platform. Fetch never fails: every failure mode degrades into a ChartItem
// carrying the matching status tag, so one broken platform cannot take down
// the aggregate.
type Provider interface {
	Label() string
	Fetch(ctx context.Context, artist, track string) ChartItem
}
