package mqtt

import (
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/AaronLay10/BrewSim/internal/events"
	"github.com/AaronLay10/BrewSim/internal/simulation"
)

// Router delivers a level result to its session. *session.Registry satisfies it.
type Router interface {
	Deliver(sessionID, level string, result simulation.SingleScore) error
}

// Subscriber is the subset of *Client the result subscriber needs.
type Subscriber interface {
	Subscribe(topic string, handler paho.MessageHandler) error
}

// ResultSubscriber subscribes to scene result topics and routes each
// result into its session. Subscription is idempotent across reconnects.
type ResultSubscriber struct {
	mu         sync.RWMutex
	client     Subscriber
	prefix     string
	scenes     *SceneRegistry
	router     Router
	subscribed map[string]bool
}

// NewResultSubscriber creates a new result subscriber.
func NewResultSubscriber(client Subscriber, prefix string, scenes *SceneRegistry, router Router) *ResultSubscriber {
	return &ResultSubscriber{
		client:     client,
		prefix:     prefix,
		scenes:     scenes,
		router:     router,
		subscribed: make(map[string]bool),
	}
}

// SubscribeResults subscribes to the result filter if not already subscribed.
func (s *ResultSubscriber) SubscribeResults() error {
	topic := ResultFilter(s.prefix)

	s.mu.Lock()
	if s.subscribed[topic] {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.client.Subscribe(topic, s.handle); err != nil {
		return err
	}

	s.mu.Lock()
	s.subscribed[topic] = true
	s.mu.Unlock()
	return nil
}

func (s *ResultSubscriber) handle(_ paho.Client, msg paho.Message) {
	s.HandleResult(msg.Topic(), msg.Payload())
}

// HandleResult parses one result message and delivers it. Failures are
// reported as scene.error and never reach the controller.
func (s *ResultSubscriber) HandleResult(topic string, payload []byte) {
	sessionID, level, err := ParseResultTopic(s.prefix, topic)
	if err != nil {
		sceneError(topic, "", "", err)
		return
	}
	result, err := ParseResult(payload)
	if err != nil {
		sceneError(topic, sessionID, level, err)
		return
	}
	if !s.scenes.IsLive(sessionID, level) {
		events.Emit("warning", "scene.error", "result for a scene that is not live", map[string]interface{}{
			"topic":      topic,
			"session_id": sessionID,
			"level":      level,
		})
		return
	}

	events.Emit("info", "scene.result", "", map[string]interface{}{
		"topic":      topic,
		"session_id": sessionID,
		"level":      level,
		"score":      result.Score,
		"max_score":  result.MaxScore,
	})
	if err := s.router.Deliver(sessionID, level, result); err != nil {
		sceneError(topic, sessionID, level, err)
	}
}

func sceneError(topic, sessionID, level string, err error) {
	fields := map[string]interface{}{
		"topic": topic,
		"error": err.Error(),
	}
	if sessionID != "" {
		fields["session_id"] = sessionID
		fields["level"] = level
	}
	events.Emit("error", "scene.error", "failed to handle scene result", fields)
}

// IsSubscribed returns true if the topic is already subscribed.
func (s *ResultSubscriber) IsSubscribed(topic string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subscribed[topic]
}

// ClearSubscriptions clears the subscription tracking.
// Call this on disconnect to allow re-subscription on reconnect.
func (s *ResultSubscriber) ClearSubscriptions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed = make(map[string]bool)
}
