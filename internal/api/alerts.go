package api

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"
)

// Alert severity levels
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Alert event types
const (
	AlertMQTTDisconnected   = "mqtt_disconnected"
	AlertStorageUnavailable = "storage_unavailable"
)

// AlertPayload is the JSON structure sent to the webhook.
type AlertPayload struct {
	Service   string                 `json:"service"`
	Event     string                 `json:"event"`
	Timestamp string                 `json:"timestamp"`
	Severity  string                 `json:"severity"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// dependencyAlert raises one alert after a dependency has been down for
// delay and one recovery notice when it comes back.
type dependencyAlert struct {
	event    string
	severity string
	name     string
	delay    time.Duration

	downSince time.Time
	sent      bool
}

var (
	alertMu      sync.Mutex
	alertWebhook string
	alertService = "brewsim"
	alertClient  = &http.Client{Timeout: 10 * time.Second}
	alertSend    = sendWebhook

	mqttAlert = &dependencyAlert{
		event: AlertMQTTDisconnected, severity: SeverityWarning,
		name: "MQTT broker", delay: 30 * time.Second,
	}
	storageAlert = &dependencyAlert{
		event: AlertStorageUnavailable, severity: SeverityCritical,
		name: "storage", delay: 5 * time.Second,
	}
)

// InitAlerts configures alerting from BREWSIM_ALERT_WEBHOOK_URL and the
// optional BREWSIM_MQTT_ALERT_DELAY / BREWSIM_STORAGE_ALERT_DELAY durations.
func InitAlerts(service string) {
	alertMu.Lock()
	defer alertMu.Unlock()

	alertWebhook = os.Getenv("BREWSIM_ALERT_WEBHOOK_URL")
	if service != "" {
		alertService = service
	}
	if d, err := time.ParseDuration(os.Getenv("BREWSIM_MQTT_ALERT_DELAY")); err == nil {
		mqttAlert.delay = d
	}
	if d, err := time.ParseDuration(os.Getenv("BREWSIM_STORAGE_ALERT_DELAY")); err == nil {
		storageAlert.delay = d
	}
	mqttAlert.reset()
	storageAlert.reset()

	if alertWebhook != "" {
		log.Printf("Alerts enabled: webhook URL configured (mqtt_delay=%s, storage_delay=%s)",
			mqttAlert.delay, storageAlert.delay)
	}
}

func (a *dependencyAlert) reset() {
	a.downSince = time.Time{}
	a.sent = false
}

// observe records the dependency state at now and returns the alert to
// send, if any.
func (a *dependencyAlert) observe(connected bool, now time.Time) *AlertPayload {
	if connected {
		wasAlerted := a.sent
		a.reset()
		if !wasAlerted {
			return nil
		}
		return &AlertPayload{
			Event:    a.event,
			Severity: SeverityInfo,
			Message:  a.name + " connection restored",
			Details:  map[string]interface{}{"recovered_at": now.UTC().Format(time.RFC3339)},
		}
	}

	if a.downSince.IsZero() {
		a.downSince = now
	}
	if a.sent || now.Sub(a.downSince) < a.delay {
		return nil
	}
	a.sent = true
	return &AlertPayload{
		Event:    a.event,
		Severity: a.severity,
		Message:  a.name + " unavailable",
		Details: map[string]interface{}{
			"disconnected_since":   a.downSince.UTC().Format(time.RFC3339),
			"disconnected_seconds": int(now.Sub(a.downSince).Seconds()),
		},
	}
}

// CheckAlerts compares the current dependency states against the alert
// thresholds and sends any alert that is due.
func CheckAlerts(mqttConnected, storageConnected bool, now time.Time) {
	alertMu.Lock()
	var due []*AlertPayload
	if p := mqttAlert.observe(mqttConnected, now); p != nil {
		due = append(due, p)
	}
	if p := storageAlert.observe(storageConnected, now); p != nil {
		due = append(due, p)
	}
	webhook, service, send := alertWebhook, alertService, alertSend
	alertMu.Unlock()

	for _, p := range due {
		p.Service = service
		p.Timestamp = now.UTC().Format(time.RFC3339)
		if webhook == "" {
			log.Printf("[ALERT] %s severity=%s msg=%q details=%v", p.Event, p.Severity, p.Message, p.Details)
			continue
		}
		go send(webhook, *p)
	}
}

// setAlertSender replaces the webhook sender and returns a func that
// restores the previous one.
func setAlertSender(fn func(string, AlertPayload)) (restore func()) {
	alertMu.Lock()
	prev := alertSend
	alertSend = fn
	alertMu.Unlock()
	return func() {
		alertMu.Lock()
		alertSend = prev
		alertMu.Unlock()
	}
}

// StartAlertMonitor periodically checks the readiness state. Only
// dependencies that are enabled are checked. stop returns once the monitor
// goroutine has exited.
func StartAlertMonitor(checkInterval time.Duration, mqttEnabled, storageEnabled bool) (stop func()) {
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				readiness.mu.RLock()
				mqttConnected := readiness.mqttConnected || !mqttEnabled
				storageConnected := readiness.storageConnected || !storageEnabled
				readiness.mu.RUnlock()

				CheckAlerts(mqttConnected, storageConnected, now)
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
		<-finished
	}
}

// sendWebhook performs the actual HTTP POST (runs in goroutine).
func sendWebhook(url string, payload AlertPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("alert: failed to marshal payload: %v", err)
		return
	}

	resp, err := alertClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("alert: webhook POST failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("alert: webhook returned status %d", resp.StatusCode)
	}
}
