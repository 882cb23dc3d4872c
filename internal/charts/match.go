package charts

import (
	"strings"
	"unicode"

	json "github.com/goccy/go-json"
	"golang.org/x/text/unicode/norm"
)

// ProviderEntry is one row of a provider's chart payload as delivered by the
// upstream gateway. Numeric fields arrive as JSON numbers; pointers keep
// "absent" distinguishable from zero.
type ProviderEntry struct {
	Rank        *float64 `json:"rank"`
	RankStatus  string   `json:"rankStatus"`
	ChangedRank *float64 `json:"changedRank"`
	ArtistName  string   `json:"artistName"`
	Title       string   `json:"title"`
}

// RankValue returns the entry's rank as a positive integer, or false when the
// rank is absent or out of range.
func (e ProviderEntry) RankValue() (int, bool) {
	if e.Rank == nil || *e.Rank < 1 {
		return 0, false
	}
	return int(*e.Rank), true
}

// PrevRankFromMovement derives the previous rank from the provider's own
// movement signal. "up" means the previous position was numerically worse.
func (e ProviderEntry) PrevRankFromMovement(rank int) *int {
	changed := 0
	if e.ChangedRank != nil {
		changed = int(*e.ChangedRank)
	}

	var prev int
	switch strings.ToLower(strings.TrimSpace(e.RankStatus)) {
	case "static":
		prev = rank
	case "up":
		prev = rank + changed
	case "down":
		prev = rank - changed
	default:
		return nil
	}
	return &prev
}

// ExtractEntries parses a provider payload shaped either as a bare array or
// as an object wrapping a "data" array. An object without a data array is a
// legitimate empty result, not a parse failure.
func ExtractEntries(raw []byte) ([]ProviderEntry, error) {
	trimmed := strings.TrimLeftFunc(string(raw), unicode.IsSpace)
	if strings.HasPrefix(trimmed, "[") {
		var entries []ProviderEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	}

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, err
	}
	if len(wrapper.Data) == 0 || strings.TrimLeftFunc(string(wrapper.Data), unicode.IsSpace) == "null" {
		return nil, nil
	}

	var entries []ProviderEntry
	if err := json.Unmarshal(wrapper.Data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ComparableKey collapses a title or artist name into a form robust to the
// spacing, punctuation, width and case differences between providers:
// NFKC-normalized, lowercased, with everything but letters and digits
// stripped.
func ComparableKey(s string) string {
	normalized := strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PickEntry selects the entry best representing (artist, track) from a
// provider's rows. Both the track title and the artist name must match:
// title keys must be equal or contain one another, and the matching entry's
// artist key must contain the target artist key. Provider ordering is the
// provider's own relevance ranking, so the first survivor wins. Returns nil
// when nothing matches, which callers report as "not charted".
func PickEntry(entries []ProviderEntry, artist, track string) *ProviderEntry {
	artistKey := ComparableKey(artist)
	trackKey := ComparableKey(track)
	if artistKey == "" || trackKey == "" {
		return nil
	}

	for i := range entries {
		titleKey := ComparableKey(entries[i].Title)
		if titleKey == "" {
			continue
		}
		if titleKey != trackKey && !strings.Contains(titleKey, trackKey) && !strings.Contains(trackKey, titleKey) {
			continue
		}
		if !strings.Contains(ComparableKey(entries[i].ArtistName), artistKey) {
			continue
		}
		return &entries[i]
	}
	return nil
}
