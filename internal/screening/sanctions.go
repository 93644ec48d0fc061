package screening

import (
	"context"

	"go.uber.org/zap"
)

// Sanctions screening constants. The inclusion threshold is caller
// supplied; these govern status derivation and truncation.
const (
	sanctionsExactScore   = 0.95
	sanctionsHighScore    = 0.90
	sanctionsMaxMatches   = 10
	DefaultFuzzyThreshold = 0.85
)

// Sanctions recommendations, keyed to the screening status.
const (
	recSanctionsClear = "No sanctions concerns identified. Proceed with standard due diligence."
	recSanctionsHit   = "DO NOT PROCEED. Exact sanctions match found. Reject application and file SAR if required."
	recSanctionsHigh  = "HIGH RISK. Conduct enhanced due diligence and manual verification before proceeding."
	recSanctionsMed   = "MEDIUM RISK. Manual review required to confirm identity and assess sanctions risk."
)

// sanctionsLists drops the PEP list from a combined list-name slice.
func sanctionsLists(lists []string) []string {
	out := lists[:0:0]
	for _, l := range lists {
		if l != ProgramPEP {
			out = append(out, l)
		}
	}
	return out
}

// SanctionsEngine screens subjects against sanctions watchlist entries.
type SanctionsEngine struct {
	logger  *zap.SugaredLogger
	store   *Store
	matcher NameMatcher
}

// NewSanctionsEngine creates a sanctions screening engine backed by the
// given store.
func NewSanctionsEngine(store *Store, logger *zap.SugaredLogger) *SanctionsEngine {
	return &SanctionsEngine{logger: logger, store: store}
}

// Screen checks the subject against the sanctions watchlist. threshold is
// the inclusion cutoff for fuzzy matches; values outside (0,1] fall back
// to DefaultFuzzyThreshold.
//
// Unlike PEP screening the country filter is a hard filter: sanctions
// jurisdiction scoping is strict, so entries from other countries are
// excluded entirely rather than re-queried. Relation matching does not
// apply; sanctions entries carry no family relations in this model.
func (e *SanctionsEngine) Screen(ctx context.Context, subject Subject, threshold float64) Result {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultFuzzyThreshold
	}

	result := Result{
		Status:         StatusSanctionsClear,
		RiskLevel:      RiskLevelLow,
		Recommendation: recSanctionsClear,
		ListsChecked:   sanctionsLists(e.store.Lists()),
	}

	if e.store.Len() == 0 {
		result.Warnings = append(result.Warnings, "sanctions watchlist is empty; screening degraded to clear")
		e.logger.Warnw("sanctions screening degraded", "reason", "empty watchlist", "subject", subject.Name)
		return result
	}

	entries := e.store.Query(subject.EntityType.EntryType(), subject.Nationality)

	var matches []MatchResult
	partial := false
	for _, entry := range entries {
		if entry.IsPEP() {
			continue
		}
		if ctx.Err() != nil {
			partial = true
			break
		}
		score := e.matcher.Similarity(subject.Name, entry.PrimaryName)
		basis := MatchDirectName
		for _, alias := range entry.Aliases {
			if s := e.matcher.Similarity(subject.Name, alias); s > score {
				score, basis = s, MatchAlias
			}
		}
		score = AdjustForDateOfBirth(score, subject.DateOfBirth, entry.DateOfBirth)
		if score >= threshold {
			matches = append(matches, MatchResult{
				SourceList: entry.Program,
				Entry:      entry,
				Score:      score,
				Basis:      basis,
				IsExact:    score >= exactMatchScore,
			})
		}
	}

	sortMatches(matches)
	result.TotalMatches = len(matches)
	if len(matches) > sanctionsMaxMatches {
		matches = matches[:sanctionsMaxMatches]
	}
	result.Matches = matches

	switch highest := result.HighestScore(); {
	case len(matches) == 0:
		// keep the clear defaults
	case highest >= sanctionsExactScore:
		result.Status = StatusSanctionsHit
		result.RiskLevel = RiskLevelCritical
		result.Recommendation = recSanctionsHit
	case highest >= sanctionsHighScore:
		result.Status = StatusSanctionsPotentialHit
		result.RiskLevel = RiskLevelHigh
		result.Recommendation = recSanctionsHigh
	default:
		result.Status = StatusSanctionsPossible
		result.RiskLevel = RiskLevelMedium
		result.Recommendation = recSanctionsMed
	}

	if partial {
		result.Warnings = append(result.Warnings, "sanctions screening interrupted by deadline; result is partial")
	}

	e.logger.Infow("sanctions screening completed",
		"subject", subject.Name,
		"status", result.Status,
		"risk_level", result.RiskLevel,
		"total_matches", result.TotalMatches,
		"threshold", threshold)
	return result
}
