// Package progress implements the Progress Bus (spec §4.J): a thread-safe
// job_id → callback registry the dispatcher pushes phase/page transitions
// through, simplified from the teacher's Postgres LISTEN/NOTIFY + WebSocket
// pkg/events fan-out (out of scope here — the wiki pipeline has no
// multi-pod fan-out requirement) down to a single in-process callback map.
package progress

import (
	"sync"
	"time"
)

// staleAfter is how long an unregistered-but-forgotten callback is kept
// around before GC reclaims it (spec §4.J: "garbage-collected on each
// registration" after 3600s).
const staleAfter = 3600 * time.Second

// Totals summarizes page counts at the moment an event was emitted.
type Totals struct {
	TotalPages     int
	CompletedPages int
	FailedPages    int
}

// Event is the shape forwarded to a registered callback (spec §4.J).
type Event struct {
	JobID           string
	Status          string
	Phase           int
	ProgressPercent int
	Message         string
	PageID          string
	PageTitle       string
	PageStatus      string
	Totals          Totals
	Error           string
	TokenSummary    map[string]int64
}

// Callback receives progress events for one job. Implementations must not
// block for long — the dispatcher calls this synchronously on its own
// goroutine for that job.
type Callback func(Event)

type registration struct {
	cb           Callback
	registeredAt time.Time
}

// Bus is the thread-safe job_id → callback registry.
type Bus struct {
	mu   sync.Mutex
	regs map[string]registration
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{regs: make(map[string]registration)}
}

// Register installs cb as the callback for jobID, replacing any existing
// one, and opportunistically garbage-collects registrations older than
// staleAfter.
func (b *Bus) Register(jobID string, cb Callback) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	for id, reg := range b.regs {
		if now.Sub(reg.registeredAt) > staleAfter {
			delete(b.regs, id)
		}
	}

	b.regs[jobID] = registration{cb: cb, registeredAt: now}
}

// Unregister removes jobID's callback, if any.
func (b *Bus) Unregister(jobID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.regs, jobID)
}

// Emit forwards evt to jobID's registered callback, if one is present. The
// callback runs under a recover shield so a panicking or misbehaving client
// handler can never take down the dispatcher (spec §4.J: "under a shield to
// prevent client cancellation from propagating into the worker").
func (b *Bus) Emit(evt Event) {
	b.mu.Lock()
	reg, ok := b.regs[evt.JobID]
	b.mu.Unlock()
	if !ok {
		return
	}
	b.safeInvoke(reg.cb, evt)
}

func (b *Bus) safeInvoke(cb Callback, evt Event) {
	defer func() { _ = recover() }()
	cb(evt)
}
