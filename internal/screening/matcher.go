package screening

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

var (
	nonNameChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// NormalizeName prepares a name for comparison: lowercase, strip
// everything except letters, digits, hyphens and spaces, collapse runs of
// whitespace.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = nonNameChars.ReplaceAllString(name, " ")
	name = whitespace.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// NameMatcher scores the similarity of two names in [0,1].
type NameMatcher struct{}

// Similarity returns 1.0 for normalized equality, a fixed 0.9 floor when
// either normalized name contains the other, and a Levenshtein ratio
// otherwise. Blank names score 0.0: an absent name carries no evidence of
// identity, so it must not produce the degenerate empty-equals-empty match.
func (NameMatcher) Similarity(a, b string) float64 {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 0.9
	}
	distance := levenshtein.ComputeDistance(na, nb)
	maxLen := utf8.RuneCountInString(na)
	if l := utf8.RuneCountInString(nb); l > maxLen {
		maxLen = l
	}
	ratio := 1.0 - float64(distance)/float64(maxLen)
	if ratio < 0 {
		return 0
	}
	return ratio
}

// AdjustForDateOfBirth applies the secondary-attribute adjustment used by
// the screening engines: a confirmed date-of-birth match boosts the name
// score, a conflicting one dampens it. A mismatch alone is not
// disqualifying; transcription variance in reference data is common enough
// that eliminating the match outright would cost false negatives.
func AdjustForDateOfBirth(score float64, subjectDOB, entryDOB *time.Time) float64 {
	if subjectDOB == nil || entryDOB == nil {
		return score
	}
	if sameDate(*subjectDOB, *entryDOB) {
		score += 0.1
		if score > 1 {
			score = 1
		}
		return score
	}
	return score * 0.8
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
