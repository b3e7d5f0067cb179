package api

import (
	"net/http"
	"strings"
	"sync"
)

// readinessState tracks the dependencies /ready reports on.
type readinessState struct {
	mu               sync.RWMutex
	sessionsReady    bool
	mqttConnected    bool
	mqttOptional     bool
	storageConnected bool
	storageOptional  bool
}

var readiness = &readinessState{
	mqttOptional:    true,
	storageOptional: true,
}

// SetSessionsReady marks the session registry as accepting sessions.
func SetSessionsReady(ready bool) {
	readiness.mu.Lock()
	readiness.sessionsReady = ready
	readiness.mu.Unlock()
}

// SetMQTTState records the scene broker connection and whether it is optional.
func SetMQTTState(connected, optional bool) {
	readiness.mu.Lock()
	readiness.mqttConnected = connected
	readiness.mqttOptional = optional
	readiness.mu.Unlock()
}

// SetStorageState records the storage connection and whether it is optional.
func SetStorageState(connected, optional bool) {
	readiness.mu.Lock()
	readiness.storageConnected = connected
	readiness.storageOptional = optional
	readiness.mu.Unlock()
}

// CheckStatus is the state of one dependency.
type CheckStatus struct {
	Status   string `json:"status"`
	Optional bool   `json:"optional,omitempty"`
}

type ReadinessResponse struct {
	Ready       bool                   `json:"ready"`
	Checks      map[string]CheckStatus `json:"checks"`
	NotReadyMsg string                 `json:"message,omitempty"`
}

func dependencyCheck(name string, connected, optional bool, reasons *[]string) CheckStatus {
	switch {
	case connected:
		return CheckStatus{Status: "ok", Optional: optional}
	case optional:
		return CheckStatus{Status: "unavailable", Optional: true}
	}
	*reasons = append(*reasons, name+" not connected")
	return CheckStatus{Status: "not_ready"}
}

func readyHandler(w http.ResponseWriter, r *http.Request) {
	readiness.mu.RLock()
	sessionsReady := readiness.sessionsReady
	mqttConnected, mqttOptional := readiness.mqttConnected, readiness.mqttOptional
	storageConnected, storageOptional := readiness.storageConnected, readiness.storageOptional
	readiness.mu.RUnlock()

	var reasons []string
	checks := map[string]CheckStatus{}

	if sessionsReady {
		checks["sessions"] = CheckStatus{Status: "ok"}
	} else {
		checks["sessions"] = CheckStatus{Status: "not_ready"}
		reasons = append(reasons, "session registry not ready")
	}
	checks["mqtt"] = dependencyCheck("mqtt", mqttConnected, mqttOptional, &reasons)
	checks["storage"] = dependencyCheck("storage", storageConnected, storageOptional, &reasons)

	resp := ReadinessResponse{
		Ready:       len(reasons) == 0,
		Checks:      checks,
		NotReadyMsg: strings.Join(reasons, "; "),
	}
	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
