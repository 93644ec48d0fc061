package risk

import (
	"sort"
	"strings"
)

// criticalKeywords flag adverse-media items that warrant escalation
// regardless of volume.
var criticalKeywords = []string{
	"fraud", "money laundering", "terrorist", "corruption", "criminal",
}

// AdverseMediaSignal summarizes negative news collected by an external
// search collaborator. Only the item count drives the risk component
// score; critical keywords are surfaced as contributing factors for the
// analyst.
type AdverseMediaSignal struct {
	Count            int      `json:"count"`
	CriticalKeywords []string `json:"critical_keywords,omitempty"`
}

// NewAdverseMediaSignal builds a signal from raw adverse-media snippets.
// Returns nil when there are no items, which the assessment engine treats
// as an absent signal.
func NewAdverseMediaSignal(items []string) *AdverseMediaSignal {
	if len(items) == 0 {
		return nil
	}
	found := map[string]struct{}{}
	for _, item := range items {
		lower := strings.ToLower(item)
		for _, kw := range criticalKeywords {
			if strings.Contains(lower, kw) {
				found[kw] = struct{}{}
			}
		}
	}
	signal := &AdverseMediaSignal{Count: len(items)}
	for kw := range found {
		signal.CriticalKeywords = append(signal.CriticalKeywords, kw)
	}
	sort.Strings(signal.CriticalKeywords)
	return signal
}
