package events

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingAppender struct {
	mu       sync.Mutex
	names    []string
	sessions []string
	err      error
}

func (a *recordingAppender) Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.names = append(a.names, event)
	a.sessions = append(a.sessions, sessionID)
	return nil
}

func TestEmitRejectsUnknownEvent(t *testing.T) {
	Clear()
	if _, err := Emit("info", "node.started", "", nil); err == nil {
		t.Fatal("expected error for unknown event")
	}
	if len(Snapshot()) != 0 {
		t.Error("unknown event should not be buffered")
	}
}

func TestEmitPersistsWithSessionID(t *testing.T) {
	Clear()
	a := &recordingAppender{}
	SetAppender(a)
	defer SetAppender(nil)

	if _, err := Emit("info", "level.completed", "", map[string]interface{}{
		"session_id": "run-1",
		"level":      "Tamp",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.names) != 1 || a.names[0] != "level.completed" {
		t.Fatalf("expected one persisted level.completed, got %v", a.names)
	}
	if a.sessions[0] != "run-1" {
		t.Errorf("expected session_id run-1, got %q", a.sessions[0])
	}
}

func TestEmitAppendFailureLoggedOnce(t *testing.T) {
	Clear()
	SetAppender(&recordingAppender{err: errors.New("db down")})
	defer SetAppender(nil)

	for i := 0; i < 3; i++ {
		Emit("info", "menu.updated", "", nil)
	}

	if got := len(Find("system.error")); got != 1 {
		t.Errorf("expected exactly one system.error, got %d", got)
	}
	if got := len(Find("menu.updated")); got != 3 {
		t.Errorf("expected 3 menu.updated events, got %d", got)
	}
}

func TestTotalCountSurvivesClear(t *testing.T) {
	before := TotalCount()
	Emit("info", "results.shown", "", nil)
	Clear()
	if TotalCount() != before+1 {
		t.Errorf("expected total %d, got %d", before+1, TotalCount())
	}
}

func TestRingBufferWraps(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := 0; i < 5; i++ {
		rb.Add(Event{Name: "menu.updated", Fields: map[string]interface{}{"i": i}})
	}
	snap := rb.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 events, got %d", len(snap))
	}
	if snap[0].Fields["i"] != 2 || snap[2].Fields["i"] != 4 {
		t.Errorf("unexpected order: %v %v", snap[0].Fields["i"], snap[2].Fields["i"])
	}
}

func TestRingBufferLastFiltered(t *testing.T) {
	rb := NewRingBuffer(4)
	for i := 0; i < 6; i++ {
		rb.Add(Event{Name: "level.completed", Fields: map[string]interface{}{"i": i}})
	}
	even := func(e Event) bool { return e.Fields["i"].(int)%2 == 0 }

	got := rb.Last(0, even)
	if len(got) != 2 || got[0].Fields["i"] != 2 || got[1].Fields["i"] != 4 {
		t.Errorf("expected buffered even events 2 and 4, got %+v", got)
	}
	if got := rb.Last(1, nil); len(got) != 1 || got[0].Fields["i"] != 5 {
		t.Errorf("expected newest event 5, got %+v", got)
	}
	if rb.Total() != 6 {
		t.Errorf("expected total 6, got %d", rb.Total())
	}
}
