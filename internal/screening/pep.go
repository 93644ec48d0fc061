package screening

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// PEP screening thresholds. The strict threshold always applies; the
// fuzzy threshold additionally admits matches when the caller opts in.
const (
	pepStrictThreshold = 0.8
	pepFuzzyThreshold  = 0.7
	pepConfirmedScore  = 0.9
	pepMaxMatches      = 5
)

// PEPEngine screens subjects against PEP watchlist entries.
type PEPEngine struct {
	logger  *zap.SugaredLogger
	store   *Store
	matcher NameMatcher
}

// NewPEPEngine creates a PEP screening engine backed by the given store.
func NewPEPEngine(store *Store, logger *zap.SugaredLogger) *PEPEngine {
	return &PEPEngine{logger: logger, store: store}
}

// Screen checks the subject against the PEP watchlist. With fuzzy enabled
// the inclusion threshold drops from 0.8 to 0.7 to admit transliteration
// variants at the cost of more manual review.
//
// An empty or unavailable store degrades to a "No Match" result carrying a
// warning; screening never blocks the pipeline. If the caller's deadline
// expires mid-scan the matches accumulated so far are returned, again with
// a warning.
func (e *PEPEngine) Screen(ctx context.Context, subject Subject, fuzzy bool) Result {
	result := Result{Status: StatusNoMatch, ListsChecked: []string{ProgramPEP}}

	if e.store.Len() == 0 {
		result.Warnings = append(result.Warnings, "PEP watchlist is empty; screening degraded to no-match")
		e.logger.Warnw("PEP screening degraded", "reason", "empty watchlist", "subject", subject.Name)
		return result
	}

	// The nationality filter is advisory: reference data often lacks
	// nationality, so a filtered query that comes back empty falls back to
	// the full list instead of failing the screening. Sanctions entries
	// sharing the store are excluded; they are screened separately.
	entries := pepOnly(e.store.Query(subject.EntityType.EntryType(), subject.Nationality))
	if len(entries) == 0 && subject.Nationality != "" {
		entries = pepOnly(e.store.Query(subject.EntityType.EntryType(), ""))
	}

	threshold := pepStrictThreshold
	if fuzzy {
		threshold = pepFuzzyThreshold
	}

	var matches []MatchResult
	partial := false
	for _, entry := range entries {
		if ctx.Err() != nil {
			partial = true
			break
		}
		matches = append(matches, e.matchEntry(subject, entry, threshold)...)
	}

	sortMatches(matches)
	result.TotalMatches = len(matches)
	if len(matches) > pepMaxMatches {
		matches = matches[:pepMaxMatches]
	}
	result.Matches = matches
	result.Status = pepStatus(matches)
	if partial {
		result.Warnings = append(result.Warnings, "PEP screening interrupted by deadline; result is partial")
	}

	e.logger.Infow("PEP screening completed",
		"subject", subject.Name,
		"status", result.Status,
		"total_matches", result.TotalMatches,
		"fuzzy", fuzzy)
	return result
}

// matchEntry scores a subject against one entry: the best of primary name
// and aliases yields at most one direct/alias match, and each qualifying
// relation yields its own relation match. Both can be recorded for the
// same entry.
func (e *PEPEngine) matchEntry(subject Subject, entry *WatchlistEntry, threshold float64) []MatchResult {
	var out []MatchResult

	score := e.matcher.Similarity(subject.Name, entry.PrimaryName)
	basis := MatchDirectName
	for _, alias := range entry.Aliases {
		if s := e.matcher.Similarity(subject.Name, alias); s > score {
			score, basis = s, MatchAlias
		}
	}
	score = AdjustForDateOfBirth(score, subject.DateOfBirth, entry.DateOfBirth)
	if score > threshold {
		out = append(out, MatchResult{
			SourceList: entry.Program,
			Entry:      entry,
			Score:      score,
			Basis:      basis,
			IsExact:    score >= exactMatchScore,
		})
	}

	for _, rel := range entry.Relations {
		relScore := e.matcher.Similarity(subject.Name, rel.Name)
		relScore = AdjustForDateOfBirth(relScore, subject.DateOfBirth, entry.DateOfBirth)
		if relScore > threshold {
			out = append(out, MatchResult{
				SourceList:   entry.Program,
				Entry:        entry,
				Score:        relScore,
				Basis:        MatchRelation,
				Relationship: rel.Relationship,
				IsExact:      relScore >= exactMatchScore,
			})
		}
	}
	return out
}

func pepStatus(matches []MatchResult) string {
	if len(matches) == 0 {
		return StatusNoMatch
	}
	top := matches[0]
	switch {
	case top.Score > pepConfirmedScore && top.Basis == MatchRelation:
		return StatusPEPAssociate
	case top.Score > pepConfirmedScore:
		return StatusConfirmedPEP
	default:
		return StatusPotentialMatch
	}
}

func pepOnly(entries []*WatchlistEntry) []*WatchlistEntry {
	out := entries[:0:0]
	for _, e := range entries {
		if e.IsPEP() {
			out = append(out, e)
		}
	}
	return out
}

// sortMatches orders by descending score with entry id and basis as
// tiebreakers so identical inputs always produce identical output.
func sortMatches(matches []MatchResult) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Entry.ID != matches[j].Entry.ID {
			return matches[i].Entry.ID < matches[j].Entry.ID
		}
		return matches[i].Basis < matches[j].Basis
	})
}
