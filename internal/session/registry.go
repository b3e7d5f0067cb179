package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AaronLay10/BrewSim/internal/events"
	"github.com/AaronLay10/BrewSim/internal/scene"
	"github.com/AaronLay10/BrewSim/internal/simulation"
	"github.com/AaronLay10/BrewSim/internal/submission"
	"github.com/AaronLay10/BrewSim/internal/ui"
)

// SceneFunc returns an extra scene template for a session's levels, such
// as the MQTT bridge. It may return nil.
type SceneFunc func(sessionID string) simulation.SceneTemplate

// Options configures sessions created by a Registry.
type Options struct {
	Context context.Context
	Gateway simulation.Gateway
	Grind   map[simulation.Kind]simulation.GrindSetting
	Spacing *float64
	Scenes  SceneFunc
}

// Registry holds the running sessions by ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Options
	now      func() time.Time
	seq      uint64
}

func NewRegistry(opts Options) *Registry {
	if opts.Gateway == nil {
		opts.Gateway = submission.Discard{}
	}
	return &Registry{
		sessions: make(map[string]*Session),
		opts:     opts,
		now:      time.Now,
	}
}

// Create builds and starts a new session for userID.
func (r *Registry) Create(userID string, kind simulation.Kind) (*Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", simulation.ErrConfiguration)
	}
	if _, err := simulation.ParseKind(string(kind)); err != nil {
		return nil, fmt.Errorf("%w: %v", simulation.ErrConfiguration, err)
	}

	s := &Session{
		ID:      uuid.NewString(),
		UserID:  userID,
		Kind:    kind,
		Created: r.now().UTC(),
		panel:   ui.NewPanel(simulation.LevelNames(kind)),
		tracker: scene.NewTracker(),
	}

	var tpl simulation.SceneTemplate = s.tracker
	if r.opts.Scenes != nil {
		if extra := r.opts.Scenes(s.ID); extra != nil {
			tpl = scene.Chain{s.tracker, extra}
		}
	}
	tpl = ownedScene{s: s, tpl: tpl}
	bind := func(level string, position int) simulation.LevelBinding {
		return levelBinding(tpl, s.panel, position)
	}

	runner, err := simulation.NewRunner(kind, r.opts.Grind[kind], bind, simulation.Options{
		Context:   r.opts.Context,
		SessionID: s.ID,
		UserID:    userID,
		Gateway:   r.opts.Gateway,
		Menu:      s.panel.Menu,
		Results:   s.panel.Board,
		Spacing:   r.opts.Spacing,
	})
	if err != nil {
		return nil, err
	}
	s.runner = runner

	r.mu.Lock()
	r.seq++
	s.seq = r.seq
	r.sessions[s.ID] = s
	r.mu.Unlock()

	events.Emit("info", "session.created", "", map[string]interface{}{
		"session_id": s.ID,
		"user_id":    userID,
		"kind":       string(kind),
	})

	s.mu.Lock()
	err = runner.Start()
	s.mu.Unlock()
	if err != nil {
		r.Remove(s.ID)
		return nil, err
	}
	return s, nil
}

// levelBinding leaves Selector as a nil interface when the panel has no
// selector at position, so the controller reports the missing widget.
func levelBinding(tpl simulation.SceneTemplate, panel *ui.Panel, position int) simulation.LevelBinding {
	b := simulation.LevelBinding{Scene: tpl}
	if sel := panel.Selector(position); sel != nil {
		b.Selector = sel
	}
	return b
}

// Get returns a session by ID.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Remove drops a session and stops its live scene. A pending submission
// still runs to completion.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.close()
	events.Emit("info", "session.removed", "", map[string]interface{}{
		"session_id": id,
		"user_id":    s.UserID,
		"kind":       string(s.Kind),
	})
	return nil
}

// Deliver routes a scene result to a session's live level.
func (r *Registry) Deliver(sessionID, level string, result simulation.SingleScore) error {
	s, err := r.Get(sessionID)
	if err != nil {
		return err
	}
	return s.Deliver(level, result)
}

// All returns every session ordered by creation time.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CountByState tallies sessions per controller state.
func (r *Registry) CountByState() map[simulation.State]int {
	counts := make(map[simulation.State]int)
	for _, s := range r.All() {
		counts[s.State()]++
	}
	return counts
}
