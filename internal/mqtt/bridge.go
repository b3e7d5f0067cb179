package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/AaronLay10/BrewSim/internal/events"
	"github.com/AaronLay10/BrewSim/internal/simulation"
)

// Broker is the subset of *Client the bridge needs.
type Broker interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler paho.MessageHandler) error
	IsConnected() bool
}

// Bridge drives level scenes hosted by remote scene stations: starting a
// level publishes a start command, destroying it publishes a stop command,
// and station results are routed back into the owning session.
type Bridge struct {
	broker Broker
	prefix string
	scenes *SceneRegistry
	subs   *ResultSubscriber
	now    func() time.Time
}

// NewBridge creates a bridge publishing under prefix.
func NewBridge(broker Broker, prefix string, router Router) *Bridge {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	scenes := NewSceneRegistry()
	return &Bridge{
		broker: broker,
		prefix: prefix,
		scenes: scenes,
		subs:   NewResultSubscriber(broker, prefix, scenes, router),
		now:    time.Now,
	}
}

// Resubscribe refreshes the result subscription. Use it as the client's
// OnConnect hook.
func (b *Bridge) Resubscribe() {
	b.subs.ClearSubscriptions()
	if err := b.subs.SubscribeResults(); err != nil {
		events.Emit("error", "system.error", "failed to subscribe to scene results", map[string]interface{}{
			"topic": ResultFilter(b.prefix),
			"error": err.Error(),
		})
		return
	}
	events.Emit("info", "scene.connected", "", map[string]interface{}{
		"topic": ResultFilter(b.prefix),
	})
}

// Connected reports the broker connection state.
func (b *Bridge) Connected() bool { return b.broker.IsConnected() }

// Scenes returns the live scene registry.
func (b *Bridge) Scenes() *SceneRegistry { return b.scenes }

// Template returns the scene template for a session's levels.
func (b *Bridge) Template(sessionID string) simulation.SceneTemplate {
	return &remoteTemplate{b: b, sessionID: sessionID}
}

type remoteTemplate struct {
	b         *Bridge
	sessionID string
}

func (t *remoteTemplate) Instantiate(level string, params simulation.Params) (simulation.SceneInstance, error) {
	b := t.b
	sc := &LiveScene{
		SessionID:  t.sessionID,
		Level:      level,
		StartTopic: StartTopic(b.prefix, t.sessionID, level),
		StopTopic:  StopTopic(b.prefix, t.sessionID, level),
		Started:    b.now().UTC(),
	}
	if err := b.scenes.Register(sc); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(StartCommand{Level: level, Params: params})
	if err != nil {
		b.scenes.Unregister(t.sessionID, level)
		return nil, fmt.Errorf("failed to marshal start command: %w", err)
	}
	if err := b.broker.Publish(sc.StartTopic, payload); err != nil {
		b.scenes.Unregister(t.sessionID, level)
		return nil, fmt.Errorf("start scene %s: %w", level, err)
	}
	return &remoteInstance{b: b, scene: sc}, nil
}

type remoteInstance struct {
	b     *Bridge
	scene *LiveScene
	once  sync.Once
}

func (i *remoteInstance) Destroy() {
	i.once.Do(func() {
		i.b.scenes.Unregister(i.scene.SessionID, i.scene.Level)
		payload, _ := json.Marshal(StartCommand{Level: i.scene.Level})
		if err := i.b.broker.Publish(i.scene.StopTopic, payload); err != nil {
			events.Emit("error", "scene.error", "failed to stop scene", map[string]interface{}{
				"topic":      i.scene.StopTopic,
				"session_id": i.scene.SessionID,
				"level":      i.scene.Level,
				"error":      err.Error(),
			})
		}
	})
}
