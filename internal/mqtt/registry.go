package mqtt

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// LiveScene is a level scene started over MQTT and not yet stopped.
type LiveScene struct {
	SessionID  string
	Level      string
	StartTopic string
	StopTopic  string
	Started    time.Time
}

// SceneRegistry tracks the live scene of each session.
type SceneRegistry struct {
	mu     sync.RWMutex
	scenes map[string]*LiveScene
}

// NewSceneRegistry creates a new empty scene registry.
func NewSceneRegistry() *SceneRegistry {
	return &SceneRegistry{
		scenes: make(map[string]*LiveScene),
	}
}

// Register records sc as the live scene of its session.
func (r *SceneRegistry) Register(sc *LiveScene) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.scenes[sc.SessionID]; ok {
		return fmt.Errorf("session %s already playing %s", sc.SessionID, cur.Level)
	}
	r.scenes[sc.SessionID] = sc
	return nil
}

// Unregister removes the session's live scene if it is level.
func (r *SceneRegistry) Unregister(sessionID, level string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.scenes[sessionID]; ok && cur.Level == level {
		delete(r.scenes, sessionID)
	}
}

// Get returns a copy of the session's live scene, or nil.
func (r *SceneRegistry) Get(sessionID string) *LiveScene {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if sc, ok := r.scenes[sessionID]; ok {
		cpy := *sc
		return &cpy
	}
	return nil
}

// IsLive returns true if level is the session's live scene.
func (r *SceneRegistry) IsLive(sessionID, level string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sc, ok := r.scenes[sessionID]
	return ok && sc.Level == level
}

// All returns copies of every live scene ordered by session ID.
func (r *SceneRegistry) All() []*LiveScene {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*LiveScene, 0, len(r.scenes))
	for _, sc := range r.scenes {
		cpy := *sc
		result = append(result, &cpy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SessionID < result[j].SessionID })
	return result
}

func (r *SceneRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scenes)
}

// Clear removes all scenes from the registry.
func (r *SceneRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenes = make(map[string]*LiveScene)
}
