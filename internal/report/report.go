// Package report merges engine outputs into the compliance report record
// handed to downstream consumers. Narrative generation is delegated to an
// external collaborator behind the Narrator interface; the assembler
// itself is deterministic.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/complyon/kycengine/internal/risk"
	"github.com/complyon/kycengine/internal/screening"
)

// Report is the full due-diligence result for one subject.
type Report struct {
	ID          uuid.UUID           `json:"id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Subject     screening.Subject   `json:"subject"`
	PEP         screening.Result    `json:"pep_screening"`
	Sanctions   screening.Result    `json:"sanctions_screening"`
	Risk        risk.Assessment     `json:"risk_assessment"`
	Warnings    []string            `json:"warnings,omitempty"`
	Narrative   string              `json:"narrative,omitempty"`
}

// Narrator produces free-text report narrative from the structured
// result. Implementations typically call an LLM; errors degrade to the
// built-in summary rather than failing the report.
type Narrator interface {
	Narrate(ctx context.Context, r *Report) (string, error)
}

// Assembler builds Reports from engine outputs.
type Assembler struct {
	logger   *zap.SugaredLogger
	narrator Narrator
	now      func() time.Time
}

// NewAssembler creates an assembler. narrator may be nil, in which case
// the deterministic fallback summary is always used.
func NewAssembler(narrator Narrator, logger *zap.SugaredLogger) *Assembler {
	return &Assembler{logger: logger, narrator: narrator, now: time.Now}
}

// Assemble merges the engine outputs into a single immutable report,
// aggregating per-engine warnings so degraded screenings stay visible to
// the caller.
func (a *Assembler) Assemble(ctx context.Context, subject screening.Subject, pep, sanctions screening.Result, assessment risk.Assessment) *Report {
	r := &Report{
		ID:          uuid.New(),
		GeneratedAt: a.now().UTC(),
		Subject:     subject,
		PEP:         pep,
		Sanctions:   sanctions,
		Risk:        assessment,
	}
	r.Warnings = append(r.Warnings, pep.Warnings...)
	r.Warnings = append(r.Warnings, sanctions.Warnings...)

	r.Narrative = a.narrate(ctx, r)
	return r
}

func (a *Assembler) narrate(ctx context.Context, r *Report) string {
	if a.narrator != nil {
		text, err := a.narrator.Narrate(ctx, r)
		if err == nil && text != "" {
			return text
		}
		if err != nil {
			a.logger.Warnw("narrative generation failed, using fallback summary", "error", err)
			r.Warnings = append(r.Warnings, "narrative generation unavailable; structured summary substituted")
		}
	}
	return summarize(r)
}

// summarize is the deterministic fallback narrative.
func summarize(r *Report) string {
	return fmt.Sprintf(
		"KYC screening for %s (%s): PEP status %q (%d match(es)), sanctions status %q (%d match(es)). "+
			"Composite risk score %.3f, classified %s. %s; %s monitoring.",
		r.Subject.Name, r.Subject.EntityType,
		r.PEP.Status, r.PEP.TotalMatches,
		r.Sanctions.Status, r.Sanctions.TotalMatches,
		r.Risk.WeightedScore, r.Risk.Classification,
		r.Risk.DueDiligenceLevel, r.Risk.MonitoringFrequency)
}
