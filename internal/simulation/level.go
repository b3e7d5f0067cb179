package simulation

import "fmt"

// LevelName is the constraint for a variant's level enum.
type LevelName interface {
	comparable
	String() string
}

// Params carries variant-specific values injected into a level scene at creation.
type Params map[string]interface{}

// ParamGrindSetting is the grind target handed to Grind level scenes.
const ParamGrindSetting = "wanted_grind_setting"

func (p Params) clone() Params {
	if p == nil {
		return Params{}
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// GrindSetting is the grinder target a Grind level scores against.
type GrindSetting string

const (
	GrindSmall  GrindSetting = "small"
	GrindMedium GrindSetting = "medium"
	GrindLarge  GrindSetting = "large"
)

// ParseGrindSetting validates a grind setting name.
func ParseGrindSetting(s string) (GrindSetting, error) {
	switch g := GrindSetting(s); g {
	case GrindSmall, GrindMedium, GrindLarge:
		return g, nil
	}
	return "", fmt.Errorf("%w: unknown grind setting %q", ErrConfiguration, s)
}

// SceneTemplate instantiates the playable experience of a level.
type SceneTemplate interface {
	Instantiate(level string, params Params) (SceneInstance, error)
}

// SceneInstance is a live level scene owned by the controller until Destroy.
type SceneInstance interface {
	Destroy()
}

// SelectorStyle is the tint applied to a level selector.
type SelectorStyle struct {
	R, G, B, A float64
}

var (
	StyleDimmed = SelectorStyle{R: 0.35, G: 0.35, B: 0.35, A: 0.8}
	StyleActive = SelectorStyle{R: 1, G: 1, B: 1, A: 1}
)

// Selector is the menu control that launches a level.
type Selector interface {
	SetEnabled(enabled bool)
	SetStyle(style SelectorStyle)
}

// LevelBinding attaches the runtime handles to one configured level.
type LevelBinding struct {
	Scene    SceneTemplate
	Selector Selector
}

// LevelDefinition is one position of the level sequence plus its played result.
type LevelDefinition[L LevelName] struct {
	Name     L
	Field    string
	Params   Params
	Scene    SceneTemplate
	Selector Selector

	instance SceneInstance
	played   bool
	score    int
	maxScore int
	comments []string
}

// Active reports whether the level's scene is currently instantiated.
func (d *LevelDefinition[L]) Active() bool { return d.instance != nil }

// Played reports whether a result has been folded into the level.
func (d *LevelDefinition[L]) Played() bool { return d.played }

func (d *LevelDefinition[L]) Score() int    { return d.score }
func (d *LevelDefinition[L]) MaxScore() int { return d.maxScore }

// Comments returns a copy of the feedback comments recorded for the level.
func (d *LevelDefinition[L]) Comments() []string {
	return append([]string(nil), d.comments...)
}
