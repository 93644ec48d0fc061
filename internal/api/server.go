// Package api exposes the screening service over HTTP.
package api

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/complyon/kycengine/internal/report"
	"github.com/complyon/kycengine/internal/service"
	"github.com/complyon/kycengine/internal/watchlist"
)

// Defaults are server-level screening defaults applied when a request
// leaves the corresponding option unset.
type Defaults struct {
	Fuzzy              bool
	SanctionsThreshold float64
}

// Server wires the screening service and watchlist operations into a
// gin router. updater, repo and writer may be nil when the deployment
// runs without remote sources, persistence or file export.
type Server struct {
	logger   *zap.Logger
	svc      *service.Service
	updater  *watchlist.Updater
	repo     *watchlist.Repository
	writer   report.Writer
	registry *prometheus.Registry
	defaults Defaults
}

// NewServer creates an HTTP server front for the screening service.
func NewServer(logger *zap.Logger, svc *service.Service, updater *watchlist.Updater, repo *watchlist.Repository, writer report.Writer, registry *prometheus.Registry, defaults Defaults) *Server {
	return &Server{
		logger:   logger,
		svc:      svc,
		updater:  updater,
		repo:     repo,
		writer:   writer,
		registry: registry,
		defaults: defaults,
	}
}

// Router builds the gin engine with logging and recovery middleware.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(ginzap.Ginzap(s.logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(s.logger, true))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/v1")
	{
		v1.POST("/screenings", s.handleScreen)
		v1.GET("/screenings/history", s.handleHistory)

		wl := v1.Group("/watchlist")
		{
			wl.GET("/status", s.handleWatchlistStatus)
			wl.POST("/refresh", s.handleWatchlistRefresh)
		}
	}

	return router
}
