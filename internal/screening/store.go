package screening

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Store holds the active watchlist reference data. Readers operate on an
// immutable snapshot behind an atomic pointer: Load and Merge build a new
// snapshot and swap it in, so queries running during a refresh see a
// stale-but-consistent view and are never blocked.
type Store struct {
	logger *zap.SugaredLogger

	// writeMu serializes writers only; readers go through snap.
	writeMu sync.Mutex
	snap    atomic.Pointer[snapshot]
}

type snapshot struct {
	gen     uint64
	entries map[string]*WatchlistEntry
	lists   []string
}

// MergeStats reports the outcome of a Load or Merge operation. Skipped
// counts malformed entries dropped during the operation.
type MergeStats struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// NewStore creates an empty watchlist store.
func NewStore(logger *zap.SugaredLogger) *Store {
	s := &Store{logger: logger}
	s.snap.Store(&snapshot{entries: map[string]*WatchlistEntry{}})
	return s
}

// Load replaces the active snapshot with the given entries. Malformed
// entries (missing id or primary name) are skipped and counted rather
// than failing the whole load.
func (s *Store) Load(entries []WatchlistEntry) MergeStats {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := &snapshot{
		gen:     s.snap.Load().gen + 1,
		entries: make(map[string]*WatchlistEntry, len(entries)),
	}
	var stats MergeStats
	for i := range entries {
		e := entries[i]
		if !validEntry(&e) {
			stats.Skipped++
			continue
		}
		if _, ok := next.entries[e.ID]; !ok {
			stats.Added++
		} else {
			stats.Updated++
		}
		next.entries[e.ID] = &e
	}
	next.lists = listNames(next.entries)
	s.snap.Store(next)

	if stats.Skipped > 0 {
		s.logger.Warnw("skipped malformed watchlist entries during load", "skipped", stats.Skipped)
	}
	s.logger.Infow("watchlist loaded", "entries", len(next.entries), "lists", next.lists)
	return stats
}

// Merge folds entries into the active snapshot by id: unknown ids are
// added, known ids are overwritten in full. Concurrent queries keep
// reading the previous snapshot until the swap completes.
func (s *Store) Merge(entries []WatchlistEntry) MergeStats {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.snap.Load()
	next := &snapshot{
		gen:     cur.gen + 1,
		entries: make(map[string]*WatchlistEntry, len(cur.entries)+len(entries)),
	}
	for id, e := range cur.entries {
		next.entries[id] = e
	}

	var stats MergeStats
	for i := range entries {
		e := entries[i]
		if !validEntry(&e) {
			stats.Skipped++
			continue
		}
		if _, ok := next.entries[e.ID]; ok {
			stats.Updated++
		} else {
			stats.Added++
		}
		next.entries[e.ID] = &e
	}
	next.lists = listNames(next.entries)
	s.snap.Store(next)

	s.logger.Infow("watchlist merged",
		"added", stats.Added, "updated", stats.Updated, "skipped", stats.Skipped,
		"entries", len(next.entries))
	return stats
}

// Query returns all entries of the given type, optionally narrowed to a
// country (case-insensitive exact match). An empty store yields an empty
// slice, never an error. Returned entries are shared with the snapshot and
// must be treated as read-only.
func (s *Store) Query(entryType EntryType, countryFilter string) []*WatchlistEntry {
	snap := s.snap.Load()
	out := make([]*WatchlistEntry, 0, len(snap.entries))
	for _, e := range snap.entries {
		if e.EntryType != entryType {
			continue
		}
		if countryFilter != "" && !strings.EqualFold(e.Country, countryFilter) {
			continue
		}
		out = append(out, e)
	}
	// Deterministic order keeps repeated screenings byte-identical.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of entries in the active snapshot.
func (s *Store) Len() int {
	return len(s.snap.Load().entries)
}

// Generation returns a counter that increments on every Load and Merge.
// Callers caching anything derived from a snapshot include it in their
// keys so a watchlist refresh invalidates stale results immediately
// instead of waiting out a TTL.
func (s *Store) Generation() uint64 {
	return s.snap.Load().gen
}

// Lists returns the distinct source-list names in the active snapshot.
func (s *Store) Lists() []string {
	return s.snap.Load().lists
}

func validEntry(e *WatchlistEntry) bool {
	return strings.TrimSpace(e.ID) != "" && strings.TrimSpace(e.PrimaryName) != ""
}

func listNames(entries map[string]*WatchlistEntry) []string {
	seen := map[string]struct{}{}
	for _, e := range entries {
		if e.Program != "" {
			seen[e.Program] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
