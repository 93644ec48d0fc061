// Package service orchestrates the screening pipeline: subject
// validation, parallel PEP and sanctions screening, composite risk
// assessment and report assembly.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/complyon/kycengine/internal/metrics"
	"github.com/complyon/kycengine/internal/report"
	"github.com/complyon/kycengine/internal/risk"
	"github.com/complyon/kycengine/internal/screening"
)

// ErrInvalidSubject rejects a screening request before any engine runs.
// It is the only failure mode that halts the pipeline; everything else
// degrades to warnings in the report.
var ErrInvalidSubject = errors.New("invalid subject")

// Options tune one screening run.
type Options struct {
	// Fuzzy lowers the PEP inclusion threshold from 0.8 to 0.7.
	Fuzzy bool `json:"fuzzy"`
	// SanctionsThreshold is the sanctions inclusion cutoff; zero means
	// the default of 0.85.
	SanctionsThreshold float64 `json:"sanctions_threshold"`
	// AdverseMedia carries negative-news snippets collected upstream.
	AdverseMedia []string `json:"adverse_media"`
}

// Service wires the engines together behind a single Screen entry point.
type Service struct {
	logger    *zap.SugaredLogger
	validate  *validator.Validate
	store     *screening.Store
	pep       *screening.PEPEngine
	sanctions *screening.SanctionsEngine
	risk      *risk.Engine
	assembler *report.Assembler
	cache     Cache
	metrics   *metrics.Metrics
}

// New creates a screening service. cache and m may be nil; a nil cache
// disables result caching and nil metrics disables instrumentation.
func New(store *screening.Store, riskEngine *risk.Engine, assembler *report.Assembler, cache Cache, m *metrics.Metrics, logger *zap.SugaredLogger) *Service {
	if cache == nil {
		cache = nopCache{}
	}
	return &Service{
		logger:    logger,
		validate:  validator.New(),
		store:     store,
		pep:       screening.NewPEPEngine(store, logger),
		sanctions: screening.NewSanctionsEngine(store, logger),
		risk:      riskEngine,
		assembler: assembler,
		cache:     cache,
		metrics:   m,
	}
}

// Screen runs the full due-diligence pipeline for one subject. PEP and
// sanctions screening run concurrently against the shared snapshot store;
// the risk engine joins on both results. A caller deadline that expires
// mid-screening yields a best-effort partial report, not an error.
func (s *Service) Screen(ctx context.Context, subject screening.Subject, opts Options) (*report.Report, error) {
	if err := s.validateSubject(subject); err != nil {
		return nil, err
	}

	key := cacheKey(s.store.Generation(), subject, opts)
	if cached, ok := s.cache.Get(ctx, key); ok {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		s.logger.Debugw("screening served from cache", "subject", subject.Name)
		return cached, nil
	}

	start := time.Now()

	var pepResult, sanctionsResult screening.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pepResult = s.pep.Screen(gctx, subject, opts.Fuzzy)
		return nil
	})
	g.Go(func() error {
		sanctionsResult = s.sanctions.Screen(gctx, subject, opts.SanctionsThreshold)
		return nil
	})
	// Engines never return errors; the group is a join barrier for the
	// risk engine, which must not run before both results exist.
	_ = g.Wait()

	media := risk.NewAdverseMediaSignal(opts.AdverseMedia)
	assessment := s.risk.Assess(subject, pepResult, sanctionsResult, media)
	rep := s.assembler.Assemble(ctx, subject, pepResult, sanctionsResult, assessment)

	s.observe(rep, time.Since(start))
	s.cache.Set(ctx, key, rep)
	return rep, nil
}

// WatchlistStatus describes the active snapshot for operational
// endpoints.
type WatchlistStatus struct {
	Entries int      `json:"entries"`
	Lists   []string `json:"lists"`
}

// Status reports the current watchlist snapshot size and sources.
func (s *Service) Status() WatchlistStatus {
	return WatchlistStatus{Entries: s.store.Len(), Lists: s.store.Lists()}
}

func (s *Service) validateSubject(subject screening.Subject) error {
	if err := s.validate.Struct(subject); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSubject, err)
	}
	if subject.DateOfBirth != nil && subject.DateOfBirth.After(time.Now()) {
		return fmt.Errorf("%w: date of birth is in the future", ErrInvalidSubject)
	}
	return nil
}

func (s *Service) observe(rep *report.Report, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ScreeningsTotal.WithLabelValues(rep.Risk.Classification).Inc()
	s.metrics.MatchesFound.WithLabelValues("pep").Add(float64(rep.PEP.TotalMatches))
	s.metrics.MatchesFound.WithLabelValues("sanctions").Add(float64(rep.Sanctions.TotalMatches))
	s.metrics.ScreeningDuration.Observe(elapsed.Seconds())
	s.metrics.WatchlistEntries.Set(float64(s.store.Len()))
}
