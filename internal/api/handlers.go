package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/complyon/kycengine/internal/screening"
	"github.com/complyon/kycengine/internal/service"
)

// screenRequest is the wire form of a screening request. Dates use the
// ISO 2006-01-02 layout.
type screenRequest struct {
	Name              string   `json:"name"`
	EntityType        string   `json:"entity_type"`
	DateOfBirth       string   `json:"date_of_birth"`
	Nationality       string   `json:"nationality"`
	ResidenceCountry  string   `json:"residence_country"`
	BusinessCountries []string `json:"business_countries"`
	Industry          string   `json:"industry"`
	CustomerType      string   `json:"customer_type"`
	ComplexStructure  bool     `json:"complex_structure"`
	OffshoreElements  bool     `json:"offshore_elements"`

	Fuzzy              *bool    `json:"fuzzy"`
	SanctionsThreshold float64  `json:"sanctions_threshold"`
	AdverseMedia       []string `json:"adverse_media"`
}

func (r *screenRequest) toSubject() (screening.Subject, error) {
	subject := screening.Subject{
		Name:              r.Name,
		EntityType:        screening.EntityType(r.EntityType),
		Nationality:       r.Nationality,
		ResidenceCountry:  r.ResidenceCountry,
		BusinessCountries: r.BusinessCountries,
		Industry:          r.Industry,
		CustomerType:      screening.CustomerType(r.CustomerType),
		ComplexStructure:  r.ComplexStructure,
		OffshoreElements:  r.OffshoreElements,
	}
	if r.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", r.DateOfBirth)
		if err != nil {
			return screening.Subject{}, err
		}
		subject.DateOfBirth = &dob
	}
	return subject, nil
}

func (s *Server) handleScreen(c *gin.Context) {
	var req screenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	subject, err := req.toSubject()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_of_birth, expected YYYY-MM-DD", "details": err.Error()})
		return
	}

	opts := service.Options{
		Fuzzy:              s.defaults.Fuzzy,
		SanctionsThreshold: s.defaults.SanctionsThreshold,
		AdverseMedia:       req.AdverseMedia,
	}
	if req.Fuzzy != nil {
		opts.Fuzzy = *req.Fuzzy
	}
	if req.SanctionsThreshold != 0 {
		opts.SanctionsThreshold = req.SanctionsThreshold
	}

	rep, err := s.svc.Screen(c.Request.Context(), subject, opts)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSubject) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if s.repo != nil {
		if err := s.repo.SaveReport(c.Request.Context(), rep); err != nil {
			s.logger.Warn("failed to persist screening report",
				zap.String("report_id", rep.ID.String()), zap.Error(err))
		}
	}
	if s.writer != nil {
		if err := s.writer.Write(rep); err != nil {
			s.logger.Warn("failed to export screening report",
				zap.String("report_id", rep.ID.String()), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, rep)
}

// historyEntry is one persisted screening in the history response, with
// the stored report payload inlined.
type historyEntry struct {
	ID             string          `json:"id"`
	SubjectName    string          `json:"subject_name"`
	EntityType     string          `json:"entity_type"`
	PEPStatus      string          `json:"pep_status"`
	SanctionsState string          `json:"sanctions_status"`
	WeightedScore  float64         `json:"weighted_score"`
	Classification string          `json:"classification"`
	CreatedAt      time.Time       `json:"created_at"`
	Report         json.RawMessage `json:"report,omitempty"`
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "screening history not available"})
		return
	}

	subject := c.Query("subject")
	if subject == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject query parameter is required"})
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	records, err := s.repo.History(c.Request.Context(), subject, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	entries := make([]historyEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, historyEntry{
			ID:             rec.ID.String(),
			SubjectName:    rec.SubjectName,
			EntityType:     rec.EntityType,
			PEPStatus:      rec.PEPStatus,
			SanctionsState: rec.SanctionsState,
			WeightedScore:  rec.WeightedScore,
			Classification: rec.Classification,
			CreatedAt:      rec.CreatedAt,
			Report:         json.RawMessage(rec.Payload),
		})
	}
	c.JSON(http.StatusOK, gin.H{"subject": subject, "screenings": entries})
}

func (s *Server) handleWatchlistStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Status())
}

func (s *Server) handleWatchlistRefresh(c *gin.Context) {
	if s.updater == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no remote watchlist sources configured"})
		return
	}
	if err := s.updater.RefreshAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.svc.Status())
}
