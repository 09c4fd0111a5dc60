package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wikiforge/wikiforge/pkg/jobs"
	"github.com/wikiforge/wikiforge/pkg/progress"
)

const heartbeatInterval = 30 * time.Second

// streamFrame is one line of the NDJSON response body.
type streamFrame struct {
	Heartbeat bool             `json:"heartbeat,omitempty"`
	Event     *progress.Event  `json:"event,omitempty"`
	Job       *jobDetailResponse `json:"job,omitempty"`
}

// streamProgress handles GET /jobs/{id}/progress/stream (spec §6): writes
// the current job snapshot as the first NDJSON line, then forwards every
// progress.Bus event for this job as its own line, with a 30s heartbeat
// when nothing else has been written. The stream ends once the job reaches
// a terminal status.
//
// This is the original's WebSocket handler
// (original_source/api/routes/jobs.py, @router.websocket) re-expressed as a
// plain HTTP stream per spec §6's literal wording — no upgrade handshake,
// no client-to-server messages, just a one-way feed the client reads until
// EOF.
func (s *Server) streamProgress(c *gin.Context) {
	jobID := c.Param("id")

	detail, err := s.jobs.GetJobDetail(c.Request.Context(), jobID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	c.Status(http.StatusOK)

	var mu sync.Mutex
	writeFrame := func(f streamFrame) bool {
		mu.Lock()
		defer mu.Unlock()
		line, merr := json.Marshal(f)
		if merr != nil {
			return false
		}
		if _, werr := c.Writer.Write(append(line, '\n')); werr != nil {
			return false
		}
		c.Writer.Flush()
		return true
	}

	snapshot := newJobDetailResponse(detail)
	if !writeFrame(streamFrame{Job: &snapshot}) {
		return
	}
	if jobs.Status(detail.Job.Status).IsTerminal() {
		return
	}

	events := make(chan progress.Event, 16)
	done := make(chan struct{})
	var closeOnce sync.Once
	closeDone := func() { closeOnce.Do(func() { close(done) }) }

	if s.bus != nil {
		s.bus.Register(jobID, func(evt progress.Event) {
			select {
			case events <- evt:
			case <-done:
			}
		})
		defer s.bus.Unregister(jobID)
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			closeDone()
			return
		case evt := <-events:
			if !writeFrame(streamFrame{Event: &evt}) {
				closeDone()
				return
			}
			if jobs.Status(evt.Status).IsTerminal() {
				closeDone()
				return
			}
		case <-ticker.C:
			current, err := s.jobs.GetJob(c.Request.Context(), jobID)
			if err == nil && current.Status.IsTerminal() {
				closeDone()
				return
			}
			if !writeFrame(streamFrame{Heartbeat: true}) {
				closeDone()
				return
			}
		}
	}
}
