package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestPump_WritesSnapshotThenExitsOnTerminalStatus(t *testing.T) {
	bus := NewBus()
	var buf bytes.Buffer
	sw := NewStreamWriter(&buf)

	err := Pump(context.Background(), bus, "job-1", sw, Snapshot{JobID: "job-1", Status: "completed"}, nil)
	if err != nil {
		t.Fatalf("pump: %v", err)
	}

	var frame map[string]interface{}
	dec := json.NewDecoder(&buf)
	if err := dec.Decode(&frame); err != nil {
		t.Fatalf("decode snapshot frame: %v", err)
	}
	if frame["type"] != "snapshot" {
		t.Errorf("expected snapshot frame first, got %v", frame)
	}
}

func TestPump_ForwardsEventAndStopsOnTerminalEvent(t *testing.T) {
	bus := NewBus()
	var buf bytes.Buffer
	sw := NewStreamWriter(&buf)

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := Pump(context.Background(), bus, "job-2", sw, Snapshot{JobID: "job-2", Status: "generating_pages"}, func() Snapshot {
			return Snapshot{JobID: "job-2", Status: "generating_pages"}
		})
		if err != nil {
			t.Errorf("pump: %v", err)
		}
	}()

	// Give Pump a moment to register before emitting.
	time.Sleep(20 * time.Millisecond)
	bus.Emit(Event{JobID: "job-2", Status: "completed", Message: "all done"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pump did not exit after terminal event")
	}

	out := buf.String()
	if !strings.Contains(out, "all done") {
		t.Errorf("expected forwarded event in output, got:\n%s", out)
	}
}

func TestPump_CancelledContextStops(t *testing.T) {
	bus := NewBus()
	var buf bytes.Buffer
	sw := NewStreamWriter(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Pump(ctx, bus, "job-3", sw, Snapshot{JobID: "job-3", Status: "generating_pages"}, func() Snapshot {
		return Snapshot{JobID: "job-3", Status: "generating_pages"}
	})
	if err == nil {
		t.Error("expected context-cancellation error")
	}
}
