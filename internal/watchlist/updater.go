package watchlist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/complyon/kycengine/internal/screening"
)

// Source describes one remote reference-data endpoint.
type Source struct {
	Name   string `mapstructure:"name" json:"name"`
	URL    string `mapstructure:"url" json:"url"`
	Format Format `mapstructure:"format" json:"format"`
}

// UpdaterConfig tunes the background refresh loop.
type UpdaterConfig struct {
	Interval       time.Duration
	RequestTimeout time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	UserAgent      string
}

// DefaultUpdaterConfig returns the refresh defaults: daily updates, three
// attempts per source.
func DefaultUpdaterConfig() UpdaterConfig {
	return UpdaterConfig{
		Interval:       24 * time.Hour,
		RequestTimeout: 30 * time.Second,
		MaxRetries:     3,
		RetryDelay:     5 * time.Second,
		UserAgent:      "kycengine-watchlist-updater/1.0",
	}
}

// Updater refreshes the watchlist store from remote sources on a fixed
// interval. Fetches happen off the screening critical path; entries are
// merged into a fresh snapshot so concurrent screenings keep reading a
// consistent view.
type Updater struct {
	logger *zap.SugaredLogger
	store  *screening.Store
	loader *Loader
	repo   *Repository
	client *http.Client
	cfg    UpdaterConfig
	srcs   []Source
}

// NewUpdater creates a background updater. repo may be nil when fetched
// entries should not be persisted.
func NewUpdater(store *screening.Store, repo *Repository, srcs []Source, cfg UpdaterConfig, logger *zap.SugaredLogger) *Updater {
	return &Updater{
		logger: logger,
		store:  store,
		loader: NewLoader(logger),
		repo:   repo,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		cfg:    cfg,
		srcs:   srcs,
	}
}

// Start runs the refresh loop until ctx is cancelled. An initial refresh
// fires immediately.
func (u *Updater) Start(ctx context.Context) {
	if len(u.srcs) == 0 {
		u.logger.Info("no remote watchlist sources configured; updater idle")
		return
	}
	ticker := time.NewTicker(u.cfg.Interval)
	defer ticker.Stop()

	if err := u.RefreshAll(ctx); err != nil {
		u.logger.Errorw("initial watchlist refresh failed", "error", err)
	}
	for {
		select {
		case <-ctx.Done():
			u.logger.Info("stopping watchlist updater")
			return
		case <-ticker.C:
			if err := u.RefreshAll(ctx); err != nil {
				u.logger.Errorw("watchlist refresh failed", "error", err)
			}
		}
	}
}

// RefreshAll fetches every configured source and merges the results into
// the store. Sources fail independently; one unreachable endpoint does
// not abort the others.
func (u *Updater) RefreshAll(ctx context.Context) error {
	var failures int
	for _, src := range u.srcs {
		if err := u.refreshSource(ctx, src); err != nil {
			failures++
			u.logger.Errorw("watchlist source refresh failed",
				"source", src.Name, "error", err)
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d watchlist sources failed to refresh", failures, len(u.srcs))
	}
	return nil
}

func (u *Updater) refreshSource(ctx context.Context, src Source) error {
	data, err := u.fetch(ctx, src)
	if err != nil {
		return err
	}
	parsed, err := u.loader.Parse(data, src.Format)
	if err != nil {
		return err
	}
	stats := u.store.Merge(parsed.Entries)
	u.logger.Infow("watchlist source refreshed",
		"source", src.Name,
		"added", stats.Added, "updated", stats.Updated,
		"skipped", stats.Skipped+parsed.Skipped)

	if u.repo != nil {
		if err := u.repo.SaveEntries(ctx, parsed.Entries); err != nil {
			u.logger.Warnw("persisting refreshed watchlist failed", "source", src.Name, "error", err)
		}
	}
	return nil
}

// fetch downloads one source with bounded retries.
func (u *Updater) fetch(ctx context.Context, src Source) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < u.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(u.cfg.RetryDelay):
			}
		}
		data, err := u.fetchOnce(ctx, src.URL)
		if err == nil {
			return data, nil
		}
		lastErr = err
		u.logger.Warnw("watchlist fetch failed, retrying",
			"source", src.Name, "attempt", attempt+1, "error", err)
	}
	return nil, fmt.Errorf("fetch %s after %d attempts: %w", src.Name, u.cfg.MaxRetries, lastErr)
}

func (u *Updater) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", u.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
