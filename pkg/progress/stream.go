package progress

import (
	"context"
	"encoding/json"
	"io"
	"time"
)

// heartbeatInterval is how long the stream waits for a real event before
// synthesizing a heartbeat frame (spec §6: "heartbeats every 30 s").
const heartbeatInterval = 30 * time.Second

// Snapshot is the current persisted job status, used both as the stream's
// first frame and as the basis for synthetic heartbeats.
type Snapshot struct {
	JobID            string
	Status           string
	Phase            int
	ProgressPercent  int
	Totals           Totals
	CurrentPageTitle string
}

// StreamWriter writes newline-delimited JSON frames to w: the initial
// snapshot, then forwarded Bus events, then synthetic heartbeats whenever
// 30s pass without a real event, until ctx is cancelled or the job reaches
// a terminal status (spec §6).
type StreamWriter struct {
	w       io.Writer
	encoder *json.Encoder
}

// NewStreamWriter wraps w for NDJSON frame writes.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w, encoder: json.NewEncoder(w)}
}

type frame struct {
	Type  string `json:"type"`
	Event `json:"event,omitempty"`
}

// WriteSnapshot emits the first frame: the job's current persisted state.
func (s *StreamWriter) WriteSnapshot(snap Snapshot) error {
	return s.encoder.Encode(map[string]interface{}{
		"type":               "snapshot",
		"job_id":             snap.JobID,
		"status":             snap.Status,
		"phase":              snap.Phase,
		"progress_percent":   snap.ProgressPercent,
		"totals":             snap.Totals,
		"current_page_title": snap.CurrentPageTitle,
	})
}

// WriteEvent emits a forwarded progress event frame.
func (s *StreamWriter) WriteEvent(evt Event) error {
	return s.encoder.Encode(frame{Type: "event", Event: evt})
}

// WriteHeartbeat emits a synthetic heartbeat frame carrying the latest
// known status and currently-generating page title, if any.
func (s *StreamWriter) WriteHeartbeat(snap Snapshot) error {
	return s.encoder.Encode(map[string]interface{}{
		"type":               "heartbeat",
		"job_id":             snap.JobID,
		"status":             snap.Status,
		"current_page_title": snap.CurrentPageTitle,
	})
}

// isTerminal reports whether status ends the stream; mirrors
// jobs.Status.IsTerminal without importing pkg/jobs to keep this package
// dependency-light (the caller already holds a jobs.Status to pass in).
func isTerminal(status string) bool {
	switch status {
	case "completed", "partially_completed", "cancelled", "failed":
		return true
	default:
		return false
	}
}

// Pump reads events for jobID off the Bus and writes them as NDJSON frames
// until ctx is cancelled, the event stream reports a terminal status, or a
// write fails. latest is called to fetch the freshest Snapshot whenever a
// heartbeat is due.
func Pump(ctx context.Context, bus *Bus, jobID string, sw *StreamWriter, initial Snapshot, latest func() Snapshot) error {
	if err := sw.WriteSnapshot(initial); err != nil {
		return err
	}
	if isTerminal(initial.Status) {
		return nil
	}

	events := make(chan Event, 16)
	bus.Register(jobID, func(evt Event) {
		select {
		case events <- evt:
		default:
		}
	})
	defer bus.Unregister(jobID)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt := <-events:
			if err := sw.WriteEvent(evt); err != nil {
				return err
			}
			if isTerminal(evt.Status) {
				return nil
			}
		case <-ticker.C:
			snap := latest()
			if err := sw.WriteHeartbeat(snap); err != nil {
				return err
			}
			if isTerminal(snap.Status) {
				return nil
			}
		}
	}
}
