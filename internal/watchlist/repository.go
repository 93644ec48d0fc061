package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/complyon/kycengine/internal/report"
	"github.com/complyon/kycengine/internal/screening"
)

// EntryRecord is the persisted form of a watchlist entry. Aliases and
// relations are stored as JSON text so the schema works on both sqlite
// and postgres.
type EntryRecord struct {
	ID          string `gorm:"primaryKey"`
	PrimaryName string `gorm:"index"`
	EntryType   string `gorm:"index"`
	Country     string
	Program     string `gorm:"index"`
	Position    string
	RiskLevel   string
	DateOfBirth *time.Time
	Aliases     string
	Relations   string
	UpdatedAt   time.Time
}

// ReportRecord is the persisted summary of one screening report, kept as
// per-subject screening history.
type ReportRecord struct {
	ID             uuid.UUID `gorm:"primaryKey;type:uuid"`
	SubjectName    string    `gorm:"index"`
	EntityType     string
	PEPStatus      string
	SanctionsState string
	WeightedScore  float64
	Classification string
	Payload        string
	CreatedAt      time.Time `gorm:"index"`
}

// Repository persists watchlist entries and screening reports out-of-band
// of the screening hot path.
type Repository struct {
	db *gorm.DB
}

// Open connects to the configured database. driver is "sqlite" or
// "postgres".
func Open(driver, dsn string) (*Repository, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported watchlist database driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open watchlist database: %w", err)
	}
	if err := db.AutoMigrate(&EntryRecord{}, &ReportRecord{}); err != nil {
		return nil, fmt.Errorf("migrate watchlist schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// SaveEntries upserts entries by id.
func (r *Repository) SaveEntries(ctx context.Context, entries []screening.WatchlistEntry) error {
	for i := range entries {
		rec, err := toRecord(&entries[i])
		if err != nil {
			return err
		}
		if err := r.db.WithContext(ctx).Save(rec).Error; err != nil {
			return fmt.Errorf("save watchlist entry %s: %w", entries[i].ID, err)
		}
	}
	return nil
}

// LoadEntries reads every persisted entry, for seeding the in-memory
// snapshot at startup.
func (r *Repository) LoadEntries(ctx context.Context) ([]screening.WatchlistEntry, error) {
	var records []EntryRecord
	if err := r.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load watchlist entries: %w", err)
	}
	entries := make([]screening.WatchlistEntry, 0, len(records))
	for i := range records {
		entry, err := fromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// SaveReport appends a screening report to the subject's history.
func (r *Repository) SaveReport(ctx context.Context, rep *report.Report) error {
	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", rep.ID, err)
	}
	rec := ReportRecord{
		ID:             rep.ID,
		SubjectName:    rep.Subject.Name,
		EntityType:     string(rep.Subject.EntityType),
		PEPStatus:      rep.PEP.Status,
		SanctionsState: rep.Sanctions.Status,
		WeightedScore:  rep.Risk.WeightedScore,
		Classification: rep.Risk.Classification,
		Payload:        string(payload),
		CreatedAt:      rep.GeneratedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("save report %s: %w", rep.ID, err)
	}
	return nil
}

// History returns the most recent report summaries for a subject name,
// newest first.
func (r *Repository) History(ctx context.Context, subjectName string, limit int) ([]ReportRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []ReportRecord
	err := r.db.WithContext(ctx).
		Where("subject_name = ?", subjectName).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("load screening history for %q: %w", subjectName, err)
	}
	return records, nil
}

func toRecord(e *screening.WatchlistEntry) (*EntryRecord, error) {
	aliases, err := json.Marshal(e.Aliases)
	if err != nil {
		return nil, fmt.Errorf("encode aliases for %s: %w", e.ID, err)
	}
	relations, err := json.Marshal(e.Relations)
	if err != nil {
		return nil, fmt.Errorf("encode relations for %s: %w", e.ID, err)
	}
	return &EntryRecord{
		ID:          e.ID,
		PrimaryName: e.PrimaryName,
		EntryType:   string(e.EntryType),
		Country:     e.Country,
		Program:     e.Program,
		Position:    e.Position,
		RiskLevel:   string(e.RiskLevel),
		DateOfBirth: e.DateOfBirth,
		Aliases:     string(aliases),
		Relations:   string(relations),
	}, nil
}

func fromRecord(rec *EntryRecord) (screening.WatchlistEntry, error) {
	entry := screening.WatchlistEntry{
		ID:          rec.ID,
		PrimaryName: rec.PrimaryName,
		EntryType:   screening.EntryType(rec.EntryType),
		Country:     rec.Country,
		Program:     rec.Program,
		Position:    rec.Position,
		RiskLevel:   screening.RiskLevel(rec.RiskLevel),
		DateOfBirth: rec.DateOfBirth,
	}
	if rec.Aliases != "" {
		if err := json.Unmarshal([]byte(rec.Aliases), &entry.Aliases); err != nil {
			return entry, fmt.Errorf("decode aliases for %s: %w", rec.ID, err)
		}
	}
	if rec.Relations != "" {
		if err := json.Unmarshal([]byte(rec.Relations), &entry.Relations); err != nil {
			return entry, fmt.Errorf("decode relations for %s: %w", rec.ID, err)
		}
	}
	return entry, nil
}
