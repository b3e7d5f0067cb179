package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

var buffer = NewRingBuffer(256)

// Appender persists events. *postgres.Client satisfies it.
type Appender interface {
	Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error
}

var (
	store         Appender
	storeMu       sync.RWMutex
	storeErrorLog bool
)

// SetAppender sets the sink used for event persistence. nil disables persistence.
func SetAppender(a Appender) {
	storeMu.Lock()
	store = a
	storeErrorLog = false
	storeMu.Unlock()
}

type Event struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Name      string                 `json:"event"`
	Message   string                 `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func Emit(level, name, msg string, fields map[string]interface{}) ([]byte, error) {
	if err := Validate(name); err != nil {
		return nil, err
	}

	ts := time.Now().UTC()
	e := Event{
		Timestamp: ts.Format(time.RFC3339Nano),
		Level:     level,
		Name:      name,
		Message:   msg,
		Fields:    fields,
	}

	buffer.Add(e)
	broadcast(e)
	persist(ts, e)

	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	return b, nil
}

func persist(ts time.Time, e Event) {
	storeMu.RLock()
	a := store
	logged := storeErrorLog
	storeMu.RUnlock()

	if a == nil {
		return
	}

	sessionID, _ := e.Fields["session_id"].(string)
	if err := a.Append(ts, e.Level, e.Name, e.Message, e.Fields, sessionID); err != nil {
		if logged {
			return
		}
		storeMu.Lock()
		if storeErrorLog {
			storeMu.Unlock()
			return
		}
		storeErrorLog = true
		storeMu.Unlock()

		// Added straight to the ring buffer: going through Emit would recurse
		// while the store keeps failing.
		buffer.Add(Event{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Level:     "error",
			Name:      "system.error",
			Message:   "event append failed",
			Fields: map[string]interface{}{
				"error": err.Error(),
			},
		})
	}
}

func Snapshot() []Event {
	return buffer.Snapshot()
}

// TotalCount returns the number of events emitted since startup.
func TotalCount() uint64 {
	return buffer.Total()
}

// Clear resets the event buffer. Used for testing.
func Clear() {
	buffer.Clear()
}

// Find returns buffered events with the given name, oldest first.
func Find(name string) []Event {
	var out []Event
	for _, e := range buffer.Snapshot() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
