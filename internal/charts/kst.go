package charts

import "time"

// Korean charts refresh on KST calendar hours. KST is a fixed UTC+9 offset
// with no daylight saving, so hour boundaries line up with UTC hour
// boundaries and truncation needs no zone conversion.
var kst = time.FixedZone("KST", 9*60*60)

// TopOfHour returns the KST top of the hour containing t.
func TopOfHour(t time.Time) time.Time {
	return t.Truncate(time.Hour).In(kst)
}

// NextTopOfHour returns the first KST top of hour strictly after t.
func NextTopOfHour(t time.Time) time.Time {
	return TopOfHour(t).Add(time.Hour)
}

// HourStamp formats the snapshot timestamp for the hour containing now.
// The grace offset shifts the displayed time slightly past the boundary so
// it reads as "after the providers' own hourly batch", independent of how
// long our fetch took.
func HourStamp(now time.Time, grace time.Duration) string {
	return TopOfHour(now).Add(grace).Format(time.RFC3339)
}

// StaleForHourlyRefresh reports whether a snapshot stamped lastUpdated needs
// a refresh at time now: true once now has crossed into a different KST
// calendar hour. An unparsable stamp is always stale.
func StaleForHourlyRefresh(lastUpdated string, now time.Time) bool {
	last, err := time.Parse(time.RFC3339, lastUpdated)
	if err != nil {
		return true
	}
	return !last.Truncate(time.Hour).Equal(now.Truncate(time.Hour))
}
