package screening

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pepTestStore(t *testing.T) *Store {
	t.Helper()
	dob := time.Date(1954, 7, 17, 0, 0, 0, 0, time.UTC)
	store := NewStore(zap.NewNop().Sugar())
	store.Load([]WatchlistEntry{
		{
			ID:          "PEP-001",
			PrimaryName: "Angela Merkel",
			Aliases:     []string{"Angela Dorothea Merkel"},
			EntryType:   EntryIndividual,
			DateOfBirth: &dob,
			Country:     "Germany",
			Program:     "PEP",
			Position:    "Former Chancellor",
			RiskLevel:   RiskLevelHigh,
			Relations: []Relation{
				{Name: "Joachim Sauer", Relationship: "spouse"},
			},
		},
		{
			ID:          "PEP-002",
			PrimaryName: "Emmanuel Macron",
			EntryType:   EntryIndividual,
			Country:     "France",
			Program:     "PEP",
			Position:    "President",
		},
	})
	return store
}

func TestPEPScreenConfirmedMatch(t *testing.T) {
	engine := NewPEPEngine(pepTestStore(t), zap.NewNop().Sugar())

	result := engine.Screen(context.Background(), Subject{
		Name:       "Angela Merkel",
		EntityType: EntityIndividual,
	}, false)

	assert.Equal(t, StatusConfirmedPEP, result.Status)
	require.NotEmpty(t, result.Matches)
	top := result.Matches[0]
	assert.Equal(t, 1.0, top.Score)
	assert.True(t, top.IsExact)
	assert.Equal(t, MatchDirectName, top.Basis)
	assert.Equal(t, "PEP-001", top.Entry.ID)
	assert.Empty(t, result.Warnings)
}

func TestPEPScreenDOBBoost(t *testing.T) {
	engine := NewPEPEngine(pepTestStore(t), zap.NewNop().Sugar())
	dob := time.Date(1954, 7, 17, 0, 0, 0, 0, time.UTC)

	result := engine.Screen(context.Background(), Subject{
		Name:        "Angela Merkle",
		EntityType:  EntityIndividual,
		DateOfBirth: &dob,
	}, false)

	require.NotEmpty(t, result.Matches)
	// The transposition costs similarity; the confirmed birth date buys
	// part of it back.
	assert.Greater(t, result.Matches[0].Score, 0.9)
}

func TestPEPScreenFuzzyThreshold(t *testing.T) {
	// "Angell Mirkel" vs "Angela Merkel": distance 3 over 13 runes gives
	// a similarity in the (0.7, 0.8] band, admitted only in fuzzy mode.
	subject := Subject{Name: "Angell Mirkelx", EntityType: EntityIndividual}
	store := pepTestStore(t)
	engine := NewPEPEngine(store, zap.NewNop().Sugar())

	var m NameMatcher
	score := m.Similarity(subject.Name, "Angela Merkel")
	require.Greater(t, score, 0.7)
	require.LessOrEqual(t, score, 0.8)

	strict := engine.Screen(context.Background(), subject, false)
	assert.Equal(t, StatusNoMatch, strict.Status)
	assert.Empty(t, strict.Matches)

	fuzzy := engine.Screen(context.Background(), subject, true)
	assert.Equal(t, StatusPotentialMatch, fuzzy.Status)
	require.Len(t, fuzzy.Matches, 1)
	assert.False(t, fuzzy.Matches[0].IsExact)
}

func TestPEPScreenRelationMatch(t *testing.T) {
	engine := NewPEPEngine(pepTestStore(t), zap.NewNop().Sugar())

	result := engine.Screen(context.Background(), Subject{
		Name:       "Joachim Sauer",
		EntityType: EntityIndividual,
	}, false)

	assert.Equal(t, StatusPEPAssociate, result.Status)
	require.NotEmpty(t, result.Matches)
	top := result.Matches[0]
	assert.Equal(t, MatchRelation, top.Basis)
	assert.Equal(t, "spouse", top.Relationship)
	assert.Equal(t, "PEP-001", top.Entry.ID)
}

func TestPEPScreenNationalityFilterIsAdvisory(t *testing.T) {
	engine := NewPEPEngine(pepTestStore(t), zap.NewNop().Sugar())

	// No PEP entry carries country "Brazil"; the filtered query is empty so
	// screening falls back to the full list and still finds the match.
	result := engine.Screen(context.Background(), Subject{
		Name:        "Angela Merkel",
		EntityType:  EntityIndividual,
		Nationality: "Brazil",
	}, false)

	assert.Equal(t, StatusConfirmedPEP, result.Status)
	require.NotEmpty(t, result.Matches)
}

func TestPEPScreenEmptyStore(t *testing.T) {
	engine := NewPEPEngine(NewStore(zap.NewNop().Sugar()), zap.NewNop().Sugar())

	result := engine.Screen(context.Background(), Subject{
		Name:       "Angela Merkel",
		EntityType: EntityIndividual,
	}, false)

	assert.Equal(t, StatusNoMatch, result.Status)
	assert.Empty(t, result.Matches)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "empty")
}

func TestPEPScreenCancelledContext(t *testing.T) {
	engine := NewPEPEngine(pepTestStore(t), zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := engine.Screen(ctx, Subject{
		Name:       "Angela Merkel",
		EntityType: EntityIndividual,
	}, false)

	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "partial")
}

func TestPEPScreenIdempotent(t *testing.T) {
	engine := NewPEPEngine(pepTestStore(t), zap.NewNop().Sugar())
	subject := Subject{Name: "Angela Merkel", EntityType: EntityIndividual}

	first := engine.Screen(context.Background(), subject, true)
	second := engine.Screen(context.Background(), subject, true)
	assert.Equal(t, first, second)
}

func TestPEPScreenTruncation(t *testing.T) {
	store := NewStore(zap.NewNop().Sugar())
	entries := make([]WatchlistEntry, 0, 8)
	for _, id := range []string{"PEP-A", "PEP-B", "PEP-C", "PEP-D", "PEP-E", "PEP-F", "PEP-G", "PEP-H"} {
		entries = append(entries, WatchlistEntry{
			ID:          id,
			PrimaryName: "Carlos Mendez",
			EntryType:   EntryIndividual,
			Program:     "PEP",
		})
	}
	store.Load(entries)
	engine := NewPEPEngine(store, zap.NewNop().Sugar())

	result := engine.Screen(context.Background(), Subject{
		Name:       "Carlos Mendez",
		EntityType: EntityIndividual,
	}, false)

	assert.Equal(t, 8, result.TotalMatches)
	assert.Len(t, result.Matches, 5)
	// Equal scores fall back to id order.
	assert.Equal(t, "PEP-A", result.Matches[0].Entry.ID)
}
