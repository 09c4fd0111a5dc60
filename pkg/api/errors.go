package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wikiforge/wikiforge/pkg/jobs"
	"github.com/wikiforge/wikiforge/pkg/tokens"
)

// writeError maps a domain error to the HTTP status §6 implies for it and
// writes the JSON error body. Anything unrecognized is a 500.
func writeError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, jobs.ErrNotFound), errors.Is(err, jobs.ErrPageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, jobs.ErrIllegalState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, tokens.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		var verr *jobs.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// writeNotAllowed reports a state-machine guard failure: the manager's
// conditional transition ran but affected no row.
func writeNotAllowed(c *gin.Context, action, id string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "job " + id + " cannot be " + action + " from its current state"})
}
