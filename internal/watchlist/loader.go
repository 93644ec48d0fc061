// Package watchlist loads, persists and refreshes the reference data
// behind the screening store. The store itself never performs I/O; every
// file read, database round-trip and HTTP fetch lives here.
package watchlist

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/complyon/kycengine/internal/screening"
)

const dateLayout = "2006-01-02"

// Format names the supported reference-file layouts.
type Format string

const (
	// FormatPEP is the flat PEP database layout: {"peps": [...]}.
	FormatPEP Format = "pep"
	// FormatSanctions is the per-list sanctions layout: {"lists": {...}}.
	FormatSanctions Format = "sanctions"
)

// LoadResult carries parsed entries plus the count of records dropped for
// missing required fields. Partial loads are normal: one bad record must
// not sink the rest of the list.
type LoadResult struct {
	Entries []screening.WatchlistEntry
	Skipped int
}

// pepFile mirrors the PEP database JSON layout.
type pepFile struct {
	PEPs []pepRecord `json:"peps"`
}

type pepRecord struct {
	Name          string      `json:"name"`
	Aliases       []string    `json:"aliases"`
	Nationality   string      `json:"nationality"`
	DateOfBirth   string      `json:"date_of_birth"`
	Position      string      `json:"position"`
	RiskLevel     string      `json:"risk_level"`
	FamilyMembers []pepFamily `json:"family_members"`
}

type pepFamily struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
}

// sanctionsFile mirrors the sanctions lists JSON layout.
type sanctionsFile struct {
	Lists map[string]sanctionsList `json:"lists"`
}

type sanctionsList struct {
	Entries []sanctionsRecord `json:"entries"`
}

type sanctionsRecord struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Aliases     []string `json:"aliases"`
	DateOfBirth string   `json:"date_of_birth"`
	Country     string   `json:"country"`
	Nationality string   `json:"nationality"`
	Program     string   `json:"sanctions_program"`
}

// Loader parses watchlist reference files.
type Loader struct {
	logger *zap.SugaredLogger
}

// NewLoader creates a file loader.
func NewLoader(logger *zap.SugaredLogger) *Loader {
	return &Loader{logger: logger}
}

// LoadFile reads and parses one reference file.
func (l *Loader) LoadFile(path string, format Format) (LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("read watchlist file %s: %w", path, err)
	}
	res, err := l.Parse(data, format)
	if err != nil {
		return LoadResult{}, fmt.Errorf("parse watchlist file %s: %w", path, err)
	}
	l.logger.Infow("watchlist file loaded",
		"path", path, "format", format,
		"entries", len(res.Entries), "skipped", res.Skipped)
	return res, nil
}

// Parse decodes raw reference data in the given format.
func (l *Loader) Parse(data []byte, format Format) (LoadResult, error) {
	switch format {
	case FormatPEP:
		return l.parsePEP(data)
	case FormatSanctions:
		return l.parseSanctions(data)
	default:
		return LoadResult{}, fmt.Errorf("unknown watchlist format %q", format)
	}
}

func (l *Loader) parsePEP(data []byte) (LoadResult, error) {
	var file pepFile
	if err := json.Unmarshal(data, &file); err != nil {
		return LoadResult{}, fmt.Errorf("decode PEP database: %w", err)
	}

	var res LoadResult
	for _, rec := range file.PEPs {
		if strings.TrimSpace(rec.Name) == "" {
			res.Skipped++
			continue
		}
		entry := screening.WatchlistEntry{
			// PEP source files carry no stable ids; derive one from the
			// name so repeated refreshes merge instead of duplicating.
			ID:          pepID(rec.Name),
			PrimaryName: rec.Name,
			Aliases:     rec.Aliases,
			EntryType:   screening.EntryIndividual,
			Country:     rec.Nationality,
			Program:     screening.ProgramPEP,
			Position:    rec.Position,
			RiskLevel:   screening.RiskLevel(rec.RiskLevel),
			DateOfBirth: l.parseDate(rec.DateOfBirth, rec.Name),
		}
		for _, fam := range rec.FamilyMembers {
			if strings.TrimSpace(fam.Name) == "" {
				continue
			}
			entry.Relations = append(entry.Relations, screening.Relation{
				Name:         fam.Name,
				Relationship: fam.Relationship,
			})
		}
		res.Entries = append(res.Entries, entry)
	}
	return res, nil
}

func (l *Loader) parseSanctions(data []byte) (LoadResult, error) {
	var file sanctionsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return LoadResult{}, fmt.Errorf("decode sanctions lists: %w", err)
	}

	var res LoadResult
	for listName, list := range file.Lists {
		for _, rec := range list.Entries {
			if strings.TrimSpace(rec.ID) == "" || strings.TrimSpace(rec.Name) == "" {
				res.Skipped++
				continue
			}
			country := rec.Country
			if country == "" {
				country = rec.Nationality
			}
			entryType := screening.EntryIndividual
			if rec.Type == "entity" {
				entryType = screening.EntryEntity
			}
			res.Entries = append(res.Entries, screening.WatchlistEntry{
				ID:          rec.ID,
				PrimaryName: rec.Name,
				Aliases:     rec.Aliases,
				EntryType:   entryType,
				Country:     country,
				Program:     listName,
				DateOfBirth: l.parseDate(rec.DateOfBirth, rec.Name),
			})
		}
	}
	return res, nil
}

// parseDate treats an unparseable date as absent: the entry still
// screens by name, it just loses the date-of-birth adjustment.
func (l *Loader) parseDate(value, name string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		l.logger.Warnw("unparseable date of birth on watchlist entry, ignoring",
			"entry", name, "value", value)
		return nil
	}
	return &t
}

func pepID(name string) string {
	h := fnv.New64a()
	h.Write([]byte(screening.NormalizeName(name)))
	return fmt.Sprintf("PEP-%016x", h.Sum64())
}
