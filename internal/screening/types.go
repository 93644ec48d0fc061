package screening

import (
	"time"
)

// EntityType classifies the subject being screened.
type EntityType string

const (
	EntityIndividual EntityType = "individual"
	EntityCorporate  EntityType = "corporate"
)

// EntryType classifies a watchlist entry. Reference lists distinguish
// natural persons from legal entities, vessels etc.; this model keeps the
// two buckets the screening engines care about.
type EntryType string

const (
	EntryIndividual EntryType = "individual"
	EntryEntity     EntryType = "entity"
)

// EntryType maps the subject classification onto the watchlist bucket
// queried during screening.
func (t EntityType) EntryType() EntryType {
	if t == EntityCorporate {
		return EntryEntity
	}
	return EntryIndividual
}

// CustomerType refines the subject classification for risk scoring.
type CustomerType string

const (
	CustomerIndividual CustomerType = "individual"
	CustomerCorporate  CustomerType = "corporate"
	CustomerTrust      CustomerType = "trust"
	CustomerFoundation CustomerType = "foundation"
)

// RiskLevel represents a qualitative risk severity.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "Low"
	RiskLevelMedium   RiskLevel = "Medium"
	RiskLevelHigh     RiskLevel = "High"
	RiskLevelCritical RiskLevel = "Critical"
)

// Subject is the entity being screened. It is immutable for the duration
// of a screening run; engines never modify it.
type Subject struct {
	Name              string       `json:"name" validate:"required"`
	EntityType        EntityType   `json:"entity_type" validate:"required,oneof=individual corporate"`
	DateOfBirth       *time.Time   `json:"date_of_birth,omitempty"`
	Nationality       string       `json:"nationality,omitempty"`
	ResidenceCountry  string       `json:"residence_country,omitempty"`
	BusinessCountries []string     `json:"business_countries,omitempty"`
	Industry          string       `json:"industry,omitempty"`
	CustomerType      CustomerType `json:"customer_type,omitempty" validate:"omitempty,oneof=individual corporate trust foundation"`
	ComplexStructure  bool         `json:"complex_structure,omitempty"`
	OffshoreElements  bool         `json:"offshore_elements,omitempty"`
}

// Relation links a watchlist entry to a family member or close associate.
// Sanctions entries do not carry relations in this model; PEP entries may.
type Relation struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
}

// WatchlistEntry is a single reference-list record (PEP or sanctions).
// Entries are loaded out-of-band and are read-only during screening.
type WatchlistEntry struct {
	ID          string     `json:"id"`
	PrimaryName string     `json:"primary_name"`
	Aliases     []string   `json:"aliases,omitempty"`
	EntryType   EntryType  `json:"entry_type"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Country     string     `json:"country,omitempty"`
	Relations   []Relation `json:"relations,omitempty"`
	Program     string     `json:"program"`
	Position    string     `json:"position,omitempty"`
	RiskLevel   RiskLevel  `json:"risk_level,omitempty"`
}

// ProgramPEP is the program name marking politically-exposed-person
// entries; entries under any other program belong to a sanctions list.
const ProgramPEP = "PEP"

// IsPEP reports whether the entry belongs to the PEP list rather than a
// sanctions program.
func (e *WatchlistEntry) IsPEP() bool { return e.Program == ProgramPEP }

// MatchBasis records which name on the entry produced the match.
type MatchBasis string

const (
	MatchDirectName MatchBasis = "direct_name"
	MatchAlias      MatchBasis = "alias"
	MatchRelation   MatchBasis = "relation"
)

// exactMatchScore is the score at or above which a match is flagged exact.
const exactMatchScore = 0.95

// MatchResult is a single scored hit against a watchlist entry.
type MatchResult struct {
	SourceList   string          `json:"source_list"`
	Entry        *WatchlistEntry `json:"entry"`
	Score        float64         `json:"match_score"`
	Basis        MatchBasis      `json:"match_basis"`
	Relationship string          `json:"relationship,omitempty"`
	IsExact      bool            `json:"is_exact"`
}

// PEP screening statuses, derived from the highest-scoring match.
const (
	StatusConfirmedPEP   = "Confirmed PEP"
	StatusPEPAssociate   = "PEP Associate"
	StatusPotentialMatch = "Potential Match - Verification Required"
	StatusNoMatch        = "No Match"
)

// Sanctions screening statuses.
const (
	StatusSanctionsHit          = "Hit - Exact Match Found"
	StatusSanctionsPotentialHit = "Potential Hit - High Similarity"
	StatusSanctionsPossible     = "Possible Match - Manual Review Required"
	StatusSanctionsClear        = "Clear - No Matches Found"
)

// Result is the outcome of one screening run (PEP or sanctions).
// RiskLevel and Recommendation are populated by sanctions screening only.
type Result struct {
	Status         string        `json:"status"`
	Matches        []MatchResult `json:"matches"`
	TotalMatches   int           `json:"total_matches"`
	ListsChecked   []string      `json:"lists_checked"`
	RiskLevel      RiskLevel     `json:"risk_level,omitempty"`
	Recommendation string        `json:"recommendation,omitempty"`
	Warnings       []string      `json:"warnings,omitempty"`
}

// HighestScore returns the best match score, or 0 when there are no matches.
func (r *Result) HighestScore() float64 {
	if len(r.Matches) == 0 {
		return 0
	}
	return r.Matches[0].Score
}
