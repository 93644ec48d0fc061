package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/complyon/kycengine/internal/report"
	"github.com/complyon/kycengine/internal/risk"
	"github.com/complyon/kycengine/internal/screening"
)

func testService(t *testing.T, cache Cache) (*Service, *screening.Store) {
	t.Helper()
	sugar := zap.NewNop().Sugar()
	store := screening.NewStore(sugar)
	store.Load([]screening.WatchlistEntry{
		{
			ID:          "PEP-001",
			PrimaryName: "Angela Merkel",
			EntryType:   screening.EntryIndividual,
			Country:     "Germany",
			Program:     "PEP",
		},
		{
			ID:          "OFAC-100",
			PrimaryName: "Viktor Bout",
			EntryType:   screening.EntryIndividual,
			Country:     "Russia",
			Program:     "OFAC",
		},
	})
	svc := New(store, risk.NewEngine(sugar), report.NewAssembler(nil, sugar), cache, nil, sugar)
	return svc, store
}

func TestScreenRejectsInvalidSubject(t *testing.T) {
	svc, _ := testService(t, nil)

	tests := []struct {
		name    string
		subject screening.Subject
	}{
		{"missing name", screening.Subject{EntityType: screening.EntityIndividual}},
		{"missing entity type", screening.Subject{Name: "Jane Doe"}},
		{"unknown entity type", screening.Subject{Name: "Jane Doe", EntityType: "vessel"}},
		{"future date of birth", func() screening.Subject {
			future := time.Now().Add(24 * time.Hour)
			return screening.Subject{Name: "Jane Doe", EntityType: screening.EntityIndividual, DateOfBirth: &future}
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := svc.Screen(context.Background(), tt.subject, Options{})
			assert.Nil(t, rep)
			assert.ErrorIs(t, err, ErrInvalidSubject)
		})
	}
}

func TestScreenEndToEnd(t *testing.T) {
	svc, _ := testService(t, nil)

	rep, err := svc.Screen(context.Background(), screening.Subject{
		Name:        "Viktor Bout",
		EntityType:  screening.EntityIndividual,
		Nationality: "Russia",
	}, Options{})
	require.NoError(t, err)

	assert.Equal(t, screening.StatusSanctionsHit, rep.Sanctions.Status)
	// The OFAC entry is a sanctions record; it must not leak into the PEP
	// result even though both engines share the store.
	assert.Equal(t, screening.StatusNoMatch, rep.PEP.Status)
	assert.NotZero(t, rep.ID)
	assert.NotEmpty(t, rep.Narrative)
	assert.Greater(t, rep.Risk.WeightedScore, 0.0)
	assert.NotEmpty(t, rep.Risk.Classification)
}

func TestScreenPEPPath(t *testing.T) {
	svc, _ := testService(t, nil)

	rep, err := svc.Screen(context.Background(), screening.Subject{
		Name:       "Angela Merkel",
		EntityType: screening.EntityIndividual,
	}, Options{})
	require.NoError(t, err)

	assert.Equal(t, screening.StatusConfirmedPEP, rep.PEP.Status)
	assert.Equal(t, screening.StatusSanctionsClear, rep.Sanctions.Status)
	assert.Equal(t, 0.9, rep.Risk.Components[risk.ComponentPEP].Score)
}

func TestScreenUsesCache(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	svc, _ := testService(t, cache)
	subject := screening.Subject{Name: "Angela Merkel", EntityType: screening.EntityIndividual}

	first, err := svc.Screen(context.Background(), subject, Options{})
	require.NoError(t, err)

	// Same subject against the same snapshot: served from cache, so the
	// report identity is preserved.
	second, err := svc.Screen(context.Background(), subject, Options{})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestScreenWatchlistRefreshInvalidatesCache(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	svc, store := testService(t, cache)
	subject := screening.Subject{Name: "Newly Listed", EntityType: screening.EntityIndividual}

	before, err := svc.Screen(context.Background(), subject, Options{})
	require.NoError(t, err)
	require.Equal(t, screening.StatusSanctionsClear, before.Sanctions.Status)

	// A refresh that lists the subject must be visible on the next
	// screening even while the cached clear report is inside its TTL.
	store.Merge([]screening.WatchlistEntry{{
		ID:          "OFAC-999",
		PrimaryName: "Newly Listed",
		EntryType:   screening.EntryIndividual,
		Program:     "OFAC",
	}})

	listed, err := svc.Screen(context.Background(), subject, Options{})
	require.NoError(t, err)
	assert.NotEqual(t, before.ID, listed.ID)
	assert.Equal(t, screening.StatusSanctionsHit, listed.Sanctions.Status)
}

func TestScreenOptionsChangeCacheKey(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	svc, _ := testService(t, cache)
	subject := screening.Subject{Name: "Angela Merkel", EntityType: screening.EntityIndividual}

	strict, err := svc.Screen(context.Background(), subject, Options{})
	require.NoError(t, err)
	fuzzy, err := svc.Screen(context.Background(), subject, Options{Fuzzy: true})
	require.NoError(t, err)

	assert.NotEqual(t, strict.ID, fuzzy.ID)
}

func TestScreenAdverseMediaFlowsIntoAssessment(t *testing.T) {
	svc, _ := testService(t, nil)
	subject := screening.Subject{Name: "John Smith", EntityType: screening.EntityIndividual}

	clean, err := svc.Screen(context.Background(), subject, Options{})
	require.NoError(t, err)
	flagged, err := svc.Screen(context.Background(), subject, Options{
		AdverseMedia: []string{"fraud charges", "bribery probe"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, clean.Risk.Components[risk.ComponentAdverseMedia].Score)
	assert.Equal(t, 0.5, flagged.Risk.Components[risk.ComponentAdverseMedia].Score)
	assert.Greater(t, flagged.Risk.WeightedScore, clean.Risk.WeightedScore)
}

func TestStatus(t *testing.T) {
	svc, _ := testService(t, nil)

	status := svc.Status()
	assert.Equal(t, 2, status.Entries)
	assert.Equal(t, []string{"OFAC", "PEP"}, status.Lists)
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache(10 * time.Millisecond)
	rep := &report.Report{}
	cache.Set(context.Background(), "k", rep)

	got, ok := cache.Get(context.Background(), "k")
	require.True(t, ok)
	assert.Same(t, rep, got)

	time.Sleep(20 * time.Millisecond)
	_, ok = cache.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestCacheKeyFingerprint(t *testing.T) {
	base := screening.Subject{Name: "Jane Doe", EntityType: screening.EntityIndividual}

	t.Run("normalized name variants collide", func(t *testing.T) {
		variant := base
		variant.Name = "  jane DOE "
		assert.Equal(t, cacheKey(1, base, Options{}), cacheKey(1, variant, Options{}))
	})

	t.Run("different subjects diverge", func(t *testing.T) {
		other := base
		other.Name = "John Doe"
		assert.NotEqual(t, cacheKey(1, base, Options{}), cacheKey(1, other, Options{}))
	})

	t.Run("threshold changes diverge", func(t *testing.T) {
		assert.NotEqual(t,
			cacheKey(1, base, Options{SanctionsThreshold: 0.85}),
			cacheKey(1, base, Options{SanctionsThreshold: 0.95}))
	})

	t.Run("watchlist generations diverge", func(t *testing.T) {
		assert.NotEqual(t, cacheKey(1, base, Options{}), cacheKey(2, base, Options{}))
	})
}

func BenchmarkScreen(b *testing.B) {
	sugar := zap.NewNop().Sugar()
	store := screening.NewStore(sugar)
	entries := make([]screening.WatchlistEntry, 0, 1000)
	for i := 0; i < 1000; i++ {
		entries = append(entries, screening.WatchlistEntry{
			ID:          fmt.Sprintf("OFAC-%04d", i),
			PrimaryName: fmt.Sprintf("Listed Person %d", i),
			EntryType:   screening.EntryIndividual,
			Program:     "OFAC",
		})
	}
	store.Load(entries)
	svc := New(store, risk.NewEngine(sugar), report.NewAssembler(nil, sugar), nil, nil, sugar)
	subject := screening.Subject{Name: "Listed Person 500", EntityType: screening.EntityIndividual}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Screen(context.Background(), subject, Options{}); err != nil {
			b.Fatal(err)
		}
	}
}
