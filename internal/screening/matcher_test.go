package screening

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "Vladimir PUTIN", "vladimir putin"},
		{"strips punctuation", "O'Brien, John Jr.", "o brien john jr"},
		{"collapses whitespace", "  Kim   Jong   Un ", "kim jong un"},
		{"keeps hyphens and digits", "Jean-Claude 3rd", "jean-claude 3rd"},
		{"empty", "", ""},
		{"only punctuation", "!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.input))
		})
	}
}

func TestSimilarity(t *testing.T) {
	var m NameMatcher

	t.Run("identical names score 1.0", func(t *testing.T) {
		assert.Equal(t, 1.0, m.Similarity("Angela Merkel", "angela MERKEL"))
	})

	t.Run("blank names score 0.0", func(t *testing.T) {
		assert.Equal(t, 0.0, m.Similarity("", ""))
		assert.Equal(t, 0.0, m.Similarity("Angela Merkel", ""))
		assert.Equal(t, 0.0, m.Similarity("", "Angela Merkel"))
		assert.Equal(t, 0.0, m.Similarity("...", "..."))
	})

	t.Run("containment floors at 0.9", func(t *testing.T) {
		assert.Equal(t, 0.9, m.Similarity("Merkel", "Angela Merkel"))
		assert.Equal(t, 0.9, m.Similarity("Angela Merkel", "Merkel"))
	})

	t.Run("symmetric", func(t *testing.T) {
		a, b := "Vladimir Putin", "Vladimir Putyn"
		assert.Equal(t, m.Similarity(a, b), m.Similarity(b, a))
	})

	t.Run("close transliterations score high", func(t *testing.T) {
		score := m.Similarity("Vladimir Putin", "Vladimir Putyn")
		assert.Greater(t, score, 0.9)
		assert.Less(t, score, 1.0)
	})

	t.Run("unrelated names score low", func(t *testing.T) {
		assert.Less(t, m.Similarity("John Smith", "Xi Jinping"), 0.5)
	})

	t.Run("bounded in [0,1]", func(t *testing.T) {
		for _, pair := range [][2]string{
			{"a", "completely different long name here"},
			{"x", "y"},
			{"same", "same"},
		} {
			score := m.Similarity(pair[0], pair[1])
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	})
}

func TestAdjustForDateOfBirth(t *testing.T) {
	dob := time.Date(1954, 7, 17, 0, 0, 0, 0, time.UTC)
	sameDOB := time.Date(1954, 7, 17, 12, 30, 0, 0, time.UTC)
	otherDOB := time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		score    float64
		subject  *time.Time
		entry    *time.Time
		expected float64
	}{
		{"both nil leaves score", 0.85, nil, nil, 0.85},
		{"subject nil leaves score", 0.85, nil, &dob, 0.85},
		{"entry nil leaves score", 0.85, &dob, nil, 0.85},
		{"matching date boosts by 0.1", 0.85, &dob, &sameDOB, 0.95},
		{"boost caps at 1.0", 0.95, &dob, &dob, 1.0},
		{"conflicting date dampens by 0.8", 0.85, &dob, &otherDOB, 0.68},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, AdjustForDateOfBirth(tt.score, tt.subject, tt.entry), 1e-9)
		})
	}
}
