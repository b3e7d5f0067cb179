package simulation

import (
	"context"
	"errors"
	"sync"
)

// sceneHarness counts live instances across every template it hands out.
type sceneHarness struct {
	live      int
	maxLive   int
	created   []string
	params    map[string]Params
	destroyed []string
	failOn    string
}

func newSceneHarness() *sceneHarness {
	return &sceneHarness{params: make(map[string]Params)}
}

func (h *sceneHarness) template() SceneTemplate { return &fakeTemplate{h: h} }

type fakeTemplate struct{ h *sceneHarness }

func (t *fakeTemplate) Instantiate(level string, params Params) (SceneInstance, error) {
	if t.h.failOn == level {
		return nil, errors.New("prefab missing")
	}
	t.h.live++
	if t.h.live > t.h.maxLive {
		t.h.maxLive = t.h.live
	}
	t.h.created = append(t.h.created, level)
	t.h.params[level] = params
	return &fakeInstance{h: t.h, level: level}, nil
}

type fakeInstance struct {
	h     *sceneHarness
	level string
}

func (i *fakeInstance) Destroy() {
	i.h.live--
	i.h.destroyed = append(i.h.destroyed, i.level)
}

type fakeSelector struct {
	enabled bool
	style   SelectorStyle
}

func (s *fakeSelector) SetEnabled(enabled bool)      { s.enabled = enabled }
func (s *fakeSelector) SetStyle(style SelectorStyle) { s.style = style }

type fakeMenu struct {
	visible  bool
	feedback []Feedback
}

func (m *fakeMenu) SetVisible(v bool)       { m.visible = v }
func (m *fakeMenu) ShowFeedback(f Feedback) { m.feedback = append(m.feedback, f) }

type fakeResults struct {
	lines []ResultLine
	shown int
}

func (r *fakeResults) Show(lines []ResultLine) {
	r.lines = lines
	r.shown++
}

type fakeGateway struct {
	mu      sync.Mutex
	calls   int
	userID  string
	kind    Kind
	records []Record
	err     error
}

func (g *fakeGateway) Submit(ctx context.Context, userID string, kind Kind, rec Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.userID = userID
	g.kind = kind
	g.records = append(g.records, rec)
	return g.err
}

func (g *fakeGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type rig[L LevelName] struct {
	ctrl      *Controller[L]
	scenes    *sceneHarness
	selectors []*fakeSelector
	menu      *fakeMenu
	results   *fakeResults
	gateway   *fakeGateway
}

func newRig[L LevelName](v Variant[L]) (*rig[L], error) {
	r := &rig[L]{
		scenes:  newSceneHarness(),
		menu:    &fakeMenu{},
		results: &fakeResults{},
		gateway: &fakeGateway{},
	}
	bindings := make([]LevelBinding, len(v.Levels))
	for i := range v.Levels {
		sel := &fakeSelector{}
		r.selectors = append(r.selectors, sel)
		bindings[i] = LevelBinding{Scene: r.scenes.template(), Selector: sel}
	}
	ctrl, err := NewController(v, bindings, Options{
		SessionID: "test-session",
		UserID:    "42",
		Gateway:   r.gateway,
		Menu:      r.menu,
		Results:   r.results,
	})
	if err != nil {
		return nil, err
	}
	r.ctrl = ctrl
	return r, nil
}
