package risk

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/complyon/kycengine/internal/screening"
)

// ComponentName identifies one weighted risk factor.
type ComponentName string

const (
	ComponentGeographic   ComponentName = "geographic"
	ComponentCustomerType ComponentName = "customer_type"
	ComponentIndustry     ComponentName = "industry"
	ComponentPEP          ComponentName = "pep"
	ComponentSanctions    ComponentName = "sanctions"
	ComponentAdverseMedia ComponentName = "adverse_media"
)

// Weights is the fixed contribution of each component to the composite
// score. The values sum to exactly 1.0; a unit test pins this. Missing
// components contribute zero without redistributing weight onto the rest.
var Weights = map[ComponentName]float64{
	ComponentGeographic:   0.25,
	ComponentIndustry:     0.20,
	ComponentCustomerType: 0.15,
	ComponentPEP:          0.15,
	ComponentSanctions:    0.15,
	ComponentAdverseMedia: 0.10,
}

// componentOrder fixes the summation order of the weighted components.
// Float addition is not associative, so summing in map-iteration order
// would make the composite score vary run to run for identical inputs
// and could flip a classification sitting on a band boundary.
var componentOrder = []ComponentName{
	ComponentGeographic,
	ComponentIndustry,
	ComponentCustomerType,
	ComponentPEP,
	ComponentSanctions,
	ComponentAdverseMedia,
}

// Component is one scored risk factor with its contributing evidence.
type Component struct {
	Name    ComponentName `json:"name"`
	Score   float64       `json:"score"`
	Factors []string      `json:"contributing_factors,omitempty"`
	Level   string        `json:"qualitative_level"`
}

// Classification labels and their paired due-diligence levels.
const (
	ClassificationHigh   = "High Risk"
	ClassificationMedium = "Medium Risk"
	ClassificationLow    = "Low Risk"

	DueDiligenceEnhancedRequired    = "Enhanced Due Diligence Required"
	DueDiligenceEnhancedRecommended = "Enhanced Due Diligence Recommended"
	DueDiligenceStandard            = "Standard Due Diligence"

	MonitoringQuarterly  = "quarterly"
	MonitoringSemiAnnual = "semi_annual"
	MonitoringAnnual     = "annual"
)

// Classification thresholds; scores landing exactly on a boundary
// classify into the higher band.
const (
	highRiskThreshold   = 0.7
	mediumRiskThreshold = 0.4
)

// Assessment is the composite risk result for one subject.
type Assessment struct {
	Components           map[ComponentName]Component `json:"components"`
	WeightedScore        float64                     `json:"weighted_score"`
	Classification       string                      `json:"classification"`
	DueDiligenceLevel    string                      `json:"due_diligence_level"`
	MonitoringFrequency  string                      `json:"monitoring_frequency"`
	Recommendations      []string                    `json:"recommendations"`
	ApprovalRequirements []string                    `json:"approval_requirements"`
}

// Engine computes composite risk assessments. It is a pure function of
// its inputs: no I/O, no hidden state, safe for concurrent use.
type Engine struct {
	logger *zap.SugaredLogger
	tables Tables
}

// NewEngine creates an assessment engine with the default risk tables.
func NewEngine(logger *zap.SugaredLogger) *Engine {
	return &Engine{logger: logger, tables: DefaultTables()}
}

// NewEngineWithTables creates an assessment engine with custom tables
// overlaid on the defaults.
func NewEngineWithTables(logger *zap.SugaredLogger, tables Tables) *Engine {
	return &Engine{logger: logger, tables: DefaultTables().Merge(tables)}
}

// Assess combines subject attributes with the screening outcomes into a
// weighted composite assessment. media may be nil when no adverse-media
// signal was collected; the component then scores zero.
func (e *Engine) Assess(subject screening.Subject, pep, sanctions screening.Result, media *AdverseMediaSignal) Assessment {
	components := map[ComponentName]Component{
		ComponentGeographic:   e.geographicRisk(subject),
		ComponentCustomerType: e.customerTypeRisk(subject),
		ComponentIndustry:     e.industryRisk(subject),
		ComponentPEP:          e.pepRisk(pep),
		ComponentSanctions:    e.sanctionsRisk(sanctions),
		ComponentAdverseMedia: e.adverseMediaRisk(media),
	}

	weighted := 0.0
	for _, name := range componentOrder {
		weighted += components[name].Score * Weights[name]
	}

	a := Assessment{
		Components:    components,
		WeightedScore: weighted,
	}
	switch {
	case weighted >= highRiskThreshold:
		a.Classification = ClassificationHigh
		a.DueDiligenceLevel = DueDiligenceEnhancedRequired
		a.MonitoringFrequency = MonitoringQuarterly
		a.ApprovalRequirements = []string{"Compliance Officer", "Senior Management", "Risk Committee"}
	case weighted >= mediumRiskThreshold:
		a.Classification = ClassificationMedium
		a.DueDiligenceLevel = DueDiligenceEnhancedRecommended
		a.MonitoringFrequency = MonitoringSemiAnnual
		a.ApprovalRequirements = []string{"Compliance Officer", "Department Head"}
	default:
		a.Classification = ClassificationLow
		a.DueDiligenceLevel = DueDiligenceStandard
		a.MonitoringFrequency = MonitoringAnnual
		a.ApprovalRequirements = []string{"Standard Approval Process"}
	}
	a.Recommendations = e.recommendations(a)

	e.logger.Infow("risk assessment completed",
		"subject", subject.Name,
		"weighted_score", weighted,
		"classification", a.Classification)
	return a
}

// geographicRisk scores the worst country across residence, nationality
// and business countries. A subject with no country data at all scores
// the low-risk default.
func (e *Engine) geographicRisk(subject screening.Subject) Component {
	countries := make([]string, 0, len(subject.BusinessCountries)+2)
	if subject.ResidenceCountry != "" {
		countries = append(countries, subject.ResidenceCountry)
	}
	if subject.Nationality != "" {
		countries = append(countries, subject.Nationality)
	}
	for _, c := range subject.BusinessCountries {
		if c != "" {
			countries = append(countries, c)
		}
	}

	c := Component{Name: ComponentGeographic, Score: countryScoreLow}
	for _, country := range countries {
		score := e.tables.countryScore(country)
		c.Factors = append(c.Factors, fmt.Sprintf("%s (%s risk)", country, strings.ToLower(e.tables.countryTier(country))))
		if score > c.Score {
			c.Score = score
		}
	}
	c.Level = qualitativeLevel(c.Score)
	return c
}

func (e *Engine) customerTypeRisk(subject screening.Subject) Component {
	c := Component{Name: ComponentCustomerType}

	switch {
	case subject.CustomerType == screening.CustomerTrust || subject.CustomerType == screening.CustomerFoundation:
		c.Score = 0.7
		c.Factors = append(c.Factors, fmt.Sprintf("%s structure", capitalize(string(subject.CustomerType))))
	case subject.EntityType == screening.EntityCorporate:
		c.Score = 0.5
		c.Factors = append(c.Factors, "Corporate entity")
	default:
		c.Score = 0.3
		c.Factors = append(c.Factors, "Individual customer")
	}

	if subject.ComplexStructure {
		c.Score += 0.3
		c.Factors = append(c.Factors, "Complex ownership structure")
	}
	if subject.OffshoreElements {
		c.Score += 0.2
		c.Factors = append(c.Factors, "Offshore components")
	}
	if c.Score > 1 {
		c.Score = 1
	}
	c.Level = qualitativeLevel(c.Score)
	return c
}

func (e *Engine) industryRisk(subject screening.Subject) Component {
	c := Component{Name: ComponentIndustry, Score: 0.2}
	if subject.Industry == "" {
		c.Level = qualitativeLevel(c.Score)
		return c
	}
	if term, ok := matchesIndustry(e.tables.HighRiskIndustries, subject.Industry); ok {
		c.Score = 0.8
		c.Factors = append(c.Factors, fmt.Sprintf("High-risk industry: %s (%s)", subject.Industry, term))
	} else if term, ok := matchesIndustry(e.tables.MediumRiskIndustries, subject.Industry); ok {
		c.Score = 0.5
		c.Factors = append(c.Factors, fmt.Sprintf("Medium-risk industry: %s (%s)", subject.Industry, term))
	} else {
		c.Factors = append(c.Factors, fmt.Sprintf("Standard industry: %s", subject.Industry))
	}
	c.Level = qualitativeLevel(c.Score)
	return c
}

func (e *Engine) pepRisk(pep screening.Result) Component {
	c := Component{Name: ComponentPEP}
	switch pep.Status {
	case screening.StatusConfirmedPEP:
		c.Score = 0.9
	case screening.StatusPEPAssociate:
		c.Score = 0.7
	case screening.StatusPotentialMatch:
		c.Score = 0.5
	default:
		c.Score = 0.0
	}
	if c.Score > 0 {
		c.Factors = append(c.Factors, fmt.Sprintf("PEP screening: %s", pep.Status))
	}
	c.Level = qualitativeLevel(c.Score)
	return c
}

func (e *Engine) sanctionsRisk(sanctions screening.Result) Component {
	c := Component{Name: ComponentSanctions}
	switch {
	case sanctions.Status == screening.StatusSanctionsHit,
		sanctions.Status == screening.StatusSanctionsPotentialHit:
		c.Score = 1.0
	case sanctions.Status == screening.StatusSanctionsPossible,
		sanctions.RiskLevel == screening.RiskLevelMedium:
		c.Score = 0.5
	default:
		c.Score = 0.0
	}
	if c.Score > 0 {
		c.Factors = append(c.Factors, fmt.Sprintf("Sanctions screening: %s", sanctions.Status))
	}
	c.Level = qualitativeLevel(c.Score)
	return c
}

// adverseMediaRisk scores the stepped adverse-media signal: absent or
// zero items contribute nothing, a handful scores medium, a sustained
// pattern scores high.
func (e *Engine) adverseMediaRisk(media *AdverseMediaSignal) Component {
	c := Component{Name: ComponentAdverseMedia}
	if media == nil || media.Count == 0 {
		c.Level = qualitativeLevel(0)
		return c
	}
	if media.Count > 5 {
		c.Score = 0.8
	} else {
		c.Score = 0.5
	}
	c.Factors = append(c.Factors, fmt.Sprintf("Adverse media items: %d", media.Count))
	for _, kw := range media.CriticalKeywords {
		c.Factors = append(c.Factors, fmt.Sprintf("Critical keyword: %s", kw))
	}
	c.Level = qualitativeLevel(c.Score)
	return c
}

func (e *Engine) recommendations(a Assessment) []string {
	var recs []string
	if a.Classification == ClassificationHigh {
		recs = append(recs,
			"Require senior management approval for onboarding",
			"Conduct enhanced due diligence including source of wealth verification",
			"Implement transaction monitoring with lower thresholds")
	}
	if a.Components[ComponentGeographic].Level == "High" {
		recs = append(recs,
			"Verify business rationale for high-risk country connections",
			"Obtain additional documentation for cross-border activities")
	}
	if a.Components[ComponentPEP].Score > 0 {
		recs = append(recs,
			"Obtain senior management approval for PEP relationship",
			"Establish source of wealth and source of funds",
			"Conduct annual reviews of PEP status")
	}
	if a.Components[ComponentSanctions].Score > 0.5 {
		recs = append(recs,
			"Escalate to compliance team for sanctions review",
			"Do not proceed without compliance clearance")
	}
	if a.Components[ComponentAdverseMedia].Score > 0.4 {
		recs = append(recs,
			"Investigate adverse media findings in detail",
			"Request explanation from client regarding adverse media coverage")
	}
	return recs
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// qualitativeLevel maps a component score onto the Low/Medium/High scale.
func qualitativeLevel(score float64) string {
	switch {
	case score > 0.7:
		return "High"
	case score > 0.4:
		return "Medium"
	default:
		return "Low"
	}
}
