package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AaronLay10/BrewSim/internal/simulation"
)

// DefaultPrefix is the root of every BrewSim topic.
const DefaultPrefix = "brewsim"

// StartTopic is where a level scene is told to start.
func StartTopic(prefix, sessionID, level string) string {
	return fmt.Sprintf("%s/%s/levels/%s/start", prefix, sessionID, level)
}

// StopTopic is where a level scene is told to tear down.
func StopTopic(prefix, sessionID, level string) string {
	return fmt.Sprintf("%s/%s/levels/%s/stop", prefix, sessionID, level)
}

// ResultFilter matches result messages for every session and level.
func ResultFilter(prefix string) string {
	return prefix + "/+/levels/+/result"
}

// ParseResultTopic extracts the session ID and level from a result topic.
func ParseResultTopic(prefix, topic string) (sessionID, level string, err error) {
	rest, ok := strings.CutPrefix(topic, prefix+"/")
	if !ok {
		return "", "", fmt.Errorf("topic %q outside prefix %q", topic, prefix)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 4 || parts[1] != "levels" || parts[3] != "result" || parts[0] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("malformed result topic %q", topic)
	}
	return parts[0], parts[2], nil
}

// StartCommand is published on StartTopic.
type StartCommand struct {
	Level  string                 `json:"level"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// ResultPayload is what a scene station publishes when its level ends.
type ResultPayload struct {
	Score    *int     `json:"score"`
	MaxScore *int     `json:"max_score"`
	Comments []string `json:"comments"`
}

// ParseResult decodes and validates a result payload.
func ParseResult(data []byte) (simulation.SingleScore, error) {
	var p ResultPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return simulation.SingleScore{}, fmt.Errorf("invalid result JSON: %w", err)
	}
	if p.Score == nil {
		return simulation.SingleScore{}, fmt.Errorf("score is required")
	}
	if p.MaxScore == nil {
		return simulation.SingleScore{}, fmt.Errorf("max_score is required")
	}
	s := simulation.SingleScore{Score: *p.Score, MaxScore: *p.MaxScore, Comments: p.Comments}
	if err := s.Validate(); err != nil {
		return simulation.SingleScore{}, err
	}
	return s, nil
}
