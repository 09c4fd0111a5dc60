// Package api implements the REST/NDJSON exit points spec §6 names as the
// core pipeline's only externally reachable surface: job lifecycle CRUD and
// a progress stream. Everything else §6 could plausibly want (auth, CORS,
// admin dashboards, pagination helpers beyond limit/offset) is an explicit
// Non-goal; this package is deliberately thin.
//
// Grounded on the teacher's gin-based pkg/api/handlers.go and cmd/tarsy's
// router wiring in main.go — the teacher's pkg/api directory also carries a
// larger echo/v5 server (server.go, handler_*.go) that isn't reachable from
// the teacher's own go.mod (echo/v5 is never a declared dependency there),
// so handlers.go's gin idiom is what this package generalizes.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wikiforge/wikiforge/pkg/jobs"
	"github.com/wikiforge/wikiforge/pkg/progress"
	"github.com/wikiforge/wikiforge/pkg/tokens"
)

// Server wires the job manager, progress bus, and token guards to a gin
// router. It holds no other state: every request re-reads the store.
type Server struct {
	jobs        *jobs.Manager
	bus         *progress.Bus
	rateLimiter *tokens.RateLimiter
	budget      *tokens.BudgetTracker
	logger      *slog.Logger

	router *gin.Engine
}

// NewServer constructs a Server and registers its routes. rateLimiter and
// budget may be nil, in which case admission checks are skipped entirely
// (spec §4.K: a limit of zero or less already means unlimited; nil goes
// one step further for deployments that don't configure guards at all).
func NewServer(jobManager *jobs.Manager, bus *progress.Bus, rateLimiter *tokens.RateLimiter, budget *tokens.BudgetTracker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		jobs:        jobManager,
		bus:         bus,
		rateLimiter: rateLimiter,
		budget:      budget,
		logger:      logger,
	}
	s.router = gin.New()
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler, for use with http.Server or
// httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.health)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jobsGroup := s.router.Group("/jobs")
	{
		jobsGroup.POST("", s.createJob)
		jobsGroup.GET("", s.listJobs)
		jobsGroup.GET("/:id", s.getJob)
		jobsGroup.DELETE("/:id", s.cancelJob)
		jobsGroup.POST("/:id/pause", s.pauseJob)
		jobsGroup.POST("/:id/resume", s.resumeJob)
		jobsGroup.POST("/:id/retry", s.retryJob)
		jobsGroup.POST("/:id/pages/:pageID/retry", s.retryPage)
		jobsGroup.GET("/:id/progress/stream", s.streamProgress)
	}
}

// requestLogger is a minimal structured-logging middleware in the teacher's
// slog idiom, replacing gin's default text logger.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
