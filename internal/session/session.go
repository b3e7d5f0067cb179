// Package session owns running simulations. A Session pairs one controller
// with its widgets and serialises every call into it.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AaronLay10/BrewSim/internal/scene"
	"github.com/AaronLay10/BrewSim/internal/simulation"
	"github.com/AaronLay10/BrewSim/internal/ui"
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrNotComplete   = errors.New("simulation not complete")
	ErrLevelMismatch = errors.New("result does not match the live level")
)

// Session is one user's run through a variant.
type Session struct {
	ID      string
	UserID  string
	Kind    simulation.Kind
	Created time.Time

	seq     uint64
	mu      sync.Mutex
	runner  simulation.Runner
	panel   *ui.Panel
	tracker *scene.Tracker
	live    *ownedInstance
	closed  bool
}

// ownedScene records the instance it creates on the session so close can
// tear down a level that is still being played. Both methods run with the
// session lock held.
type ownedScene struct {
	s   *Session
	tpl simulation.SceneTemplate
}

func (o ownedScene) Instantiate(level string, params simulation.Params) (simulation.SceneInstance, error) {
	inst, err := o.tpl.Instantiate(level, params)
	if err != nil {
		return nil, err
	}
	owned := &ownedInstance{s: o.s, inst: inst}
	o.s.live = owned
	return owned, nil
}

type ownedInstance struct {
	s    *Session
	inst simulation.SceneInstance
}

func (o *ownedInstance) Destroy() {
	o.inst.Destroy()
	if o.s.live == o {
		o.s.live = nil
	}
}

// close destroys the live scene, if any, and refuses further play.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.live != nil {
		s.live.Destroy()
	}
}

// View is the JSON shape of a session.
type View struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
	simulation.Snapshot
	UI   ui.View     `json:"ui"`
	Live *scene.Live `json:"live,omitempty"`
}

func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: %s", ErrNotFound, s.ID)
	}
	return s.runner.Advance()
}

func (s *Session) CompleteLevel(result simulation.SingleScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: %s", ErrNotFound, s.ID)
	}
	return s.runner.CompleteLevel(result)
}

// Deliver completes the live level if it is named level. Scene stations
// report by level name, so a late result for an earlier level is refused.
func (s *Session) Deliver(level string, result simulation.SingleScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	live, ok := s.tracker.Current()
	if !ok {
		return fmt.Errorf("deliver %s: %w", level, simulation.ErrNotPlaying)
	}
	if live.Level != level {
		return fmt.Errorf("%w: got %s, playing %s", ErrLevelMismatch, level, live.Level)
	}
	return s.runner.CompleteLevel(result)
}

func (s *Session) State() simulation.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner.State()
}

// Results returns the results board once every level has been played.
func (s *Session) Results() ([]simulation.ResultLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runner.State() != simulation.StateComplete {
		return nil, ErrNotComplete
	}
	return s.runner.Snapshot().Results, nil
}

// Submitted yields the submission outcome; nil until complete.
func (s *Session) Submitted() <-chan simulation.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner.Submitted()
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:       s.ID,
		Created:  s.Created,
		Snapshot: s.runner.Snapshot(),
		UI:       s.panel.View(),
	}
	if live, ok := s.tracker.Current(); ok {
		v.Live = &live
	}
	return v
}
