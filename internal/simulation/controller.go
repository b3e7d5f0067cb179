package simulation

import (
	"context"
	"fmt"

	"github.com/AaronLay10/BrewSim/internal/events"
)

// Gateway transmits a completed record to the score backend.
type Gateway interface {
	Submit(ctx context.Context, userID string, kind Kind, rec Record) error
}

// Outcome is the result of the detached submission.
type Outcome struct {
	Err error
}

// OK reports whether the submission succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Options wires a controller to its surroundings. Gateway is required;
// Menu and Results default to no-ops. A nil Spacing uses
// DefaultResultSpacing.
type Options struct {
	Context   context.Context
	SessionID string
	UserID    string
	Gateway   Gateway
	Menu      Menu
	Results   ResultsView
	Spacing   *float64
}

// Runner is the variant-independent surface of a Controller.
type Runner interface {
	Start() error
	Advance() error
	CompleteLevel(result SingleScore) error
	State() State
	Cursor() int
	Kind() Kind
	Record() Record
	Snapshot() Snapshot
	Submitted() <-chan Outcome
}

// Controller plays a fixed, ordered level sequence exactly once per level,
// folds each level's score into a ScoreRecord, and submits the record when
// the last level completes.
//
// A Controller is not safe for concurrent use; callers serialise access.
type Controller[L LevelName] struct {
	ctx       context.Context
	kind      Kind
	sessionID string
	userID    string
	levels    []*LevelDefinition[L]
	record    *ScoreRecord[L]
	state     State
	cursor    int
	feedback  *Feedback
	results   []ResultLine

	gateway   Gateway
	menu      Menu
	view      ResultsView
	presenter ResultsPresenter
	submitted chan Outcome
}

// NewController validates the variant and bindings and returns a controller
// at the menu with no level selected (cursor -1).
func NewController[L LevelName](v Variant[L], bindings []LevelBinding, opts Options) (*Controller[L], error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if len(bindings) != len(v.Levels) {
		return nil, fmt.Errorf("%w: %s has %d levels but %d bindings", ErrConfiguration, v.Kind, len(v.Levels), len(bindings))
	}
	if opts.Gateway == nil {
		return nil, fmt.Errorf("%w: no submission gateway", ErrConfiguration)
	}
	spacing := DefaultResultSpacing
	if opts.Spacing != nil {
		if *opts.Spacing < 0 {
			return nil, fmt.Errorf("%w: negative result spacing %v", ErrConfiguration, *opts.Spacing)
		}
		spacing = *opts.Spacing
	}

	levels := make([]*LevelDefinition[L], len(v.Levels))
	for i, spec := range v.Levels {
		b := bindings[i]
		if b.Scene == nil {
			return nil, fmt.Errorf("%w: level %s has no scene template", ErrConfiguration, spec.Name)
		}
		if b.Selector == nil {
			return nil, fmt.Errorf("%w: level %s has no selector", ErrConfiguration, spec.Name)
		}
		levels[i] = &LevelDefinition[L]{
			Name:     spec.Name,
			Field:    spec.Field,
			Params:   spec.Params.clone(),
			Scene:    b.Scene,
			Selector: b.Selector,
		}
	}

	c := &Controller[L]{
		ctx:       opts.Context,
		kind:      v.Kind,
		sessionID: opts.SessionID,
		userID:    opts.UserID,
		levels:    levels,
		record:    newScoreRecord(v.Kind, v.Levels),
		state:     StateAtMenu,
		cursor:    -1,
		gateway:   opts.Gateway,
		menu:      opts.Menu,
		view:      opts.Results,
		presenter: ResultsPresenter{Spacing: spacing},
	}
	if c.ctx == nil {
		c.ctx = context.Background()
	}
	if c.menu == nil {
		c.menu = nopMenu{}
	}
	if c.view == nil {
		c.view = nopResults{}
	}
	return c, nil
}

// Start dims every selector and enables the first one.
func (c *Controller[L]) Start() error {
	if c.cursor >= 0 || c.state != StateAtMenu {
		return c.reject("start", ErrAlreadyStarted)
	}

	for _, l := range c.levels {
		l.Selector.SetEnabled(false)
		l.Selector.SetStyle(StyleDimmed)
	}
	c.cursor = 0
	c.enableCurrent()
	c.menu.SetVisible(true)

	c.emit("simulation.started", map[string]interface{}{
		"levels": len(c.levels),
	})
	return nil
}

// Advance instantiates the scene of the level under the cursor and hides the menu.
func (c *Controller[L]) Advance() error {
	if c.cursor < 0 {
		return c.reject("advance", ErrNotStarted)
	}
	if c.state != StateAtMenu {
		return c.reject("advance", ErrNotAtMenu)
	}

	lvl := c.levels[c.cursor]
	inst, err := lvl.Scene.Instantiate(lvl.Name.String(), lvl.Params.clone())
	if err != nil {
		return fmt.Errorf("instantiate level %s: %w", lvl.Name, err)
	}
	lvl.instance = inst
	c.menu.SetVisible(false)
	c.state = StatePlaying

	c.emit("level.activated", map[string]interface{}{
		"level":    lvl.Name.String(),
		"position": c.cursor,
		"params":   map[string]interface{}(lvl.Params),
	})
	return nil
}

// CompleteLevel folds the active level's result, destroys its scene, and
// either returns to the menu at the next level or finishes the run.
func (c *Controller[L]) CompleteLevel(result SingleScore) error {
	if c.state != StatePlaying {
		return c.reject("complete", ErrNotPlaying)
	}
	if err := result.Validate(); err != nil {
		c.emitViolation("complete", err)
		return err
	}

	lvl := c.levels[c.cursor]
	if err := c.record.set(lvl.Name, ScoreEntry{Score: result.Score, MaxScore: result.MaxScore}); err != nil {
		return fmt.Errorf("fold level %s: %w", lvl.Name, err)
	}
	lvl.played = true
	lvl.score = result.Score
	lvl.maxScore = result.MaxScore
	lvl.comments = append([]string(nil), result.Comments...)

	c.emit("level.completed", map[string]interface{}{
		"level":     lvl.Name.String(),
		"position":  c.cursor,
		"score":     result.Score,
		"max_score": result.MaxScore,
		"record":    c.record.Record().Fields(),
	})

	lvl.instance.Destroy()
	lvl.instance = nil
	c.emit("level.destroyed", map[string]interface{}{
		"level": lvl.Name.String(),
	})

	last := c.cursor == len(c.levels)-1
	fb := FeedbackFor(lvl.Name.String(), result, last)
	c.feedback = &fb

	if last {
		c.cursor++
		c.finalize(fb)
		return nil
	}

	lvl.Selector.SetEnabled(false)
	lvl.Selector.SetStyle(StyleDimmed)
	c.cursor++
	c.enableCurrent()
	c.menu.ShowFeedback(fb)
	c.menu.SetVisible(true)
	c.state = StateAtMenu

	c.emit("menu.updated", map[string]interface{}{
		"cursor": c.cursor,
		"header": fb.Header,
		"label":  fb.Label,
	})
	return nil
}

func (c *Controller[L]) finalize(fb Feedback) {
	c.state = StateComplete
	for _, l := range c.levels {
		l.Selector.SetEnabled(false)
		l.Selector.SetStyle(StyleDimmed)
	}
	c.menu.ShowFeedback(fb)

	rec := c.record.Record()
	c.results = c.presenter.Present(rec)
	c.view.Show(c.results)
	c.emit("results.shown", map[string]interface{}{
		"lines": len(c.results),
	})

	score, maxScore := rec.Totals()
	c.emit("simulation.completed", map[string]interface{}{
		"score":     score,
		"max_score": maxScore,
	})

	c.submitted = c.dispatch(rec)
}

// dispatch submits rec on its own goroutine; the controller never waits on it.
func (c *Controller[L]) dispatch(rec Record) chan Outcome {
	done := make(chan Outcome, 1)
	c.emit("submission.dispatched", map[string]interface{}{
		"entries": len(rec.Entries),
	})

	gw, ctx, userID, kind := c.gateway, c.ctx, c.userID, c.kind
	fields := c.baseFields()
	go func() {
		defer close(done)
		err := gw.Submit(ctx, userID, kind, rec)
		if err != nil {
			fields["error"] = err.Error()
			events.Emit("error", "submission.failed", "score submission failed", fields)
		} else {
			events.Emit("info", "submission.succeeded", "", fields)
		}
		done <- Outcome{Err: err}
	}()
	return done
}

func (c *Controller[L]) enableCurrent() {
	cur := c.levels[c.cursor]
	cur.Selector.SetEnabled(true)
	cur.Selector.SetStyle(StyleActive)
}

// Submitted yields the submission outcome once the run is complete; nil before.
func (c *Controller[L]) Submitted() <-chan Outcome {
	return c.submitted
}

func (c *Controller[L]) State() State { return c.state }

// Cursor is the index of the level active or about to be played; -1 before
// Start and len(levels) once complete.
func (c *Controller[L]) Cursor() int { return c.cursor }

func (c *Controller[L]) Kind() Kind { return c.kind }

// Levels returns the level definitions in play order.
func (c *Controller[L]) Levels() []*LevelDefinition[L] {
	return append([]*LevelDefinition[L](nil), c.levels...)
}

// ScoreRecord returns the in-progress record.
func (c *Controller[L]) ScoreRecord() *ScoreRecord[L] { return c.record }

// Record returns a snapshot of the in-progress record.
func (c *Controller[L]) Record() Record { return c.record.Record() }

// LastFeedback returns the feedback of the most recently completed level.
func (c *Controller[L]) LastFeedback() (Feedback, bool) {
	if c.feedback == nil {
		return Feedback{}, false
	}
	return *c.feedback, true
}

// Results returns the results board lines; nil until the run completes.
func (c *Controller[L]) Results() []ResultLine {
	return append([]ResultLine(nil), c.results...)
}

func (c *Controller[L]) Snapshot() Snapshot {
	s := Snapshot{
		SessionID: c.sessionID,
		UserID:    c.userID,
		Kind:      c.kind,
		State:     c.state,
		Cursor:    c.cursor,
		Levels:    make([]LevelStatus, len(c.levels)),
		Results:   c.Results(),
	}
	for i, l := range c.levels {
		s.Levels[i] = LevelStatus{
			Position: i + 1,
			Name:     l.Name.String(),
			Current:  i == c.cursor && c.state != StateComplete,
			Active:   l.Active(),
			Played:   l.played,
			Score:    l.score,
			MaxScore: l.maxScore,
			Comments: l.Comments(),
		}
	}
	if c.feedback != nil {
		fb := *c.feedback
		s.Feedback = &fb
	}
	return s
}

func (c *Controller[L]) reject(op string, err error) error {
	c.emitViolation(op, err)
	return fmt.Errorf("%s: %w", op, err)
}

func (c *Controller[L]) emitViolation(op string, err error) {
	fields := c.baseFields()
	fields["op"] = op
	fields["state"] = string(c.state)
	fields["cursor"] = c.cursor
	fields["error"] = err.Error()
	events.Emit("warning", "simulation.violation", "", fields)
}

func (c *Controller[L]) baseFields() map[string]interface{} {
	fields := map[string]interface{}{
		"kind": string(c.kind),
	}
	if c.sessionID != "" {
		fields["session_id"] = c.sessionID
	}
	if c.userID != "" {
		fields["user_id"] = c.userID
	}
	return fields
}

func (c *Controller[L]) emit(name string, fields map[string]interface{}) {
	base := c.baseFields()
	for k, v := range fields {
		base[k] = v
	}
	events.Emit("info", name, "", base)
}
