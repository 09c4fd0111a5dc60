package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wikiforge/wikiforge/pkg/jobs"
)

// createJob handles POST /jobs (spec §6). Idempotent: a matching active job
// is returned instead of creating a duplicate (spec §3).
func (s *Server) createJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if s.rateLimiter != nil {
		admitted, err := s.rateLimiter.Admit(c.Request.Context(), req.ClientID)
		if err != nil {
			writeError(c, err)
			return
		}
		if !admitted {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again shortly"})
			return
		}
	}
	if s.budget != nil {
		status, err := s.budget.CheckBudget(c.Request.Context(), req.ClientID, 0)
		if err != nil {
			writeError(c, err)
			return
		}
		if !status.Allowed {
			c.JSON(http.StatusForbidden, gin.H{
				"error":     "monthly budget exhausted",
				"used_usd":  status.UsedUSD,
				"limit_usd": status.LimitUSD,
				"remaining": status.Remaining,
			})
			return
		}
	}

	id, created, err := s.jobs.CreateJob(c.Request.Context(), req.toCreateRequest())
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, createJobResponse{JobID: id})
}

// getJob handles GET /jobs/{id}.
func (s *Server) getJob(c *gin.Context) {
	detail, err := s.jobs.GetJobDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newJobDetailResponse(detail))
}

// listJobs handles GET /jobs (spec §6): owner/repo/status/provider/client_id
// filters, limit clamped to [1,100] (default 100), offset clamped to >=0.
func (s *Server) listJobs(c *gin.Context) {
	filters := jobs.ListFilters{
		Status:   jobs.Status(c.Query("status")),
		Provider: c.Query("provider"),
		ClientID: c.Query("client_id"),
		Owner:    c.Query("owner"),
		Repo:     c.Query("repo"),
	}

	limit := parseIntDefault(c.Query("limit"), 100)
	offset := parseIntDefault(c.Query("offset"), 0)

	result, err := s.jobs.ListJobs(c.Request.Context(), filters, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListJobsResponse(result))
}

func parseIntDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// cancelJob handles DELETE /jobs/{id}: cancellation, not row deletion (spec
// §6's naming follows the original's DELETE-means-cancel route).
func (s *Server) cancelJob(c *gin.Context) {
	id := c.Param("id")
	ok, err := s.jobs.CancelJob(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		writeNotAllowed(c, "cancelled", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (s *Server) pauseJob(c *gin.Context) {
	id := c.Param("id")
	ok, err := s.jobs.PauseJob(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		writeNotAllowed(c, "paused", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "paused"})
}

func (s *Server) resumeJob(c *gin.Context) {
	id := c.Param("id")
	ok, err := s.jobs.ResumeJob(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		writeNotAllowed(c, "resumed", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resumed"})
}

func (s *Server) retryJob(c *gin.Context) {
	id := c.Param("id")
	ok, err := s.jobs.RetryJob(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		writeNotAllowed(c, "retried", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "generating_pages"})
}

// retryPage handles POST /jobs/{id}/pages/{pageID}/retry. The job id in the
// path is not consulted beyond routing — RetryFailedPage resolves the
// page's owning job itself, matching the original's
// retry_failed_page(page_id) call (original_source/api/routes/jobs.py).
func (s *Server) retryPage(c *gin.Context) {
	pageID := c.Param("pageID")
	ok, err := s.jobs.RetryFailedPage(c.Request.Context(), pageID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		writeNotAllowed(c, "retried", pageID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "pending"})
}
