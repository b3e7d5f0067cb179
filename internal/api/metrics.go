package api

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/AaronLay10/BrewSim/internal/events"
	"github.com/AaronLay10/BrewSim/internal/simulation"
	"github.com/AaronLay10/BrewSim/internal/version"
)

var metricsState = &MetricsState{}

// MetricsState holds runtime metrics for the /metrics endpoint.
type MetricsState struct {
	mu        sync.RWMutex
	startTime time.Time
}

// InitMetrics initializes the metrics system. Must be called at startup.
func InitMetrics() {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.startTime = time.Now()
}

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}

// metricsHandler returns Prometheus-compatible metrics in text format.
func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	metricsState.mu.RLock()
	startTime := metricsState.startTime
	metricsState.mu.RUnlock()

	readiness.mu.RLock()
	mqttConnected := readiness.mqttConnected
	storageConnected := readiness.storageConnected
	readiness.mu.RUnlock()

	byState := s.sessions.CountByState()

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	writeHeader := func(name, mtype, help string) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
	}
	labels := fmt.Sprintf(`service="%s",instance="%s",version="%s"`, s.service, hostname, version.Version)
	writeMetric := func(name, mtype, help string, value interface{}) {
		writeHeader(name, mtype, help)
		fmt.Fprintf(w, "%s{%s} %v\n", name, labels, value)
	}

	writeMetric("brewsim_uptime_seconds", "gauge",
		"Number of seconds since the service started", time.Since(startTime).Seconds())

	writeHeader("brewsim_sessions", "gauge", "Number of sessions by controller state")
	for _, st := range []simulation.State{simulation.StateAtMenu, simulation.StatePlaying, simulation.StateComplete} {
		fmt.Fprintf(w, "brewsim_sessions{%s,state=\"%s\"} %d\n", labels, st, byState[st])
	}

	writeMetric("brewsim_events_total", "counter",
		"Total number of events emitted since startup", events.TotalCount())
	writeMetric("brewsim_mqtt_connected", "gauge",
		"Whether the scene broker is connected (1) or not (0)", boolGauge(mqttConnected))
	writeMetric("brewsim_storage_connected", "gauge",
		"Whether storage is connected (1) or not (0)", boolGauge(storageConnected))
	writeMetric("brewsim_ws_clients", "gauge",
		"Number of active event stream subscribers", events.SubscriberCount())
	writeMetric("brewsim_events_dropped_total", "counter",
		"Events dropped for subscribers that fell behind", events.DroppedCount())
}
