// Package scene provides level scene templates for runs played outside a
// game engine: a tracked template for API-driven sessions, a printing
// template for the CLI, and Chain to combine them.
package scene

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AaronLay10/BrewSim/internal/simulation"
)

// Live describes the scene currently being played.
type Live struct {
	Level   string                 `json:"level"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Started time.Time              `json:"started"`
}

// Tracker is a SceneTemplate that records the live scene so callers can
// report it while the player is away from the menu.
type Tracker struct {
	mu   sync.RWMutex
	live *Live
	now  func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

func (t *Tracker) Instantiate(level string, params simulation.Params) (simulation.SceneInstance, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.live != nil {
		return nil, fmt.Errorf("scene %s still live", t.live.Level)
	}
	t.live = &Live{Level: level, Params: params, Started: t.now().UTC()}
	return &trackedInstance{t: t, level: level}, nil
}

// Current returns the live scene, if any.
func (t *Tracker) Current() (Live, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.live == nil {
		return Live{}, false
	}
	return *t.live, true
}

type trackedInstance struct {
	t     *Tracker
	level string
	once  sync.Once
}

func (i *trackedInstance) Destroy() {
	i.once.Do(func() {
		i.t.mu.Lock()
		if i.t.live != nil && i.t.live.Level == i.level {
			i.t.live = nil
		}
		i.t.mu.Unlock()
	})
}

// Printer announces each level on Out. The CLI uses it for scripted runs.
type Printer struct {
	Out io.Writer
}

func (p Printer) Instantiate(level string, params simulation.Params) (simulation.SceneInstance, error) {
	if p.Out != nil {
		fmt.Fprintf(p.Out, "> %s%s\n", level, formatParams(params))
	}
	return nopInstance{}, nil
}

type nopInstance struct{}

func (nopInstance) Destroy() {}

func formatParams(p simulation.Params) string {
	if len(p) == 0 {
		return ""
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, p[k])
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// Chain instantiates every template in order. If one fails, the scenes
// already created are destroyed and the error is returned.
type Chain []simulation.SceneTemplate

func (c Chain) Instantiate(level string, params simulation.Params) (simulation.SceneInstance, error) {
	out := make(chainInstance, 0, len(c))
	for _, tpl := range c {
		inst, err := tpl.Instantiate(level, params)
		if err != nil {
			out.Destroy()
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

type chainInstance []simulation.SceneInstance

// Destroy tears scenes down in reverse creation order.
func (c chainInstance) Destroy() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i].Destroy()
	}
}
