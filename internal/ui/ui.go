// Package ui holds the level menu, selectors and results board as plain
// state so they can be served over the API or printed by the CLI.
package ui

import "github.com/AaronLay10/BrewSim/internal/simulation"

// Selector is a menu button for one level.
type Selector struct {
	Level   string                   `json:"level"`
	Enabled bool                     `json:"enabled"`
	Style   simulation.SelectorStyle `json:"style"`
}

func (s *Selector) SetEnabled(enabled bool)                 { s.Enabled = enabled }
func (s *Selector) SetStyle(style simulation.SelectorStyle) { s.Style = style }

// Menu is the level menu with its feedback panel.
type Menu struct {
	Visible  bool                 `json:"visible"`
	Feedback *simulation.Feedback `json:"feedback,omitempty"`
}

func (m *Menu) SetVisible(visible bool) { m.Visible = visible }

func (m *Menu) ShowFeedback(f simulation.Feedback) { m.Feedback = &f }

// Board is the final results board.
type Board struct {
	Visible bool                    `json:"visible"`
	Lines   []simulation.ResultLine `json:"lines,omitempty"`
}

func (b *Board) Show(lines []simulation.ResultLine) {
	b.Visible = true
	b.Lines = append([]simulation.ResultLine(nil), lines...)
}

// Panel groups the widgets of one run. Like the controller that drives it,
// a Panel is not safe for concurrent use.
type Panel struct {
	Selectors []*Selector
	Menu      *Menu
	Board     *Board
}

// NewPanel creates one selector per level name.
func NewPanel(levels []string) *Panel {
	p := &Panel{Menu: &Menu{}, Board: &Board{}}
	for _, l := range levels {
		p.Selectors = append(p.Selectors, &Selector{Level: l})
	}
	return p
}

// Selector returns the selector at position, or nil.
func (p *Panel) Selector(position int) *Selector {
	if position < 0 || position >= len(p.Selectors) {
		return nil
	}
	return p.Selectors[position]
}

// View is a copy of the panel state.
type View struct {
	Selectors []Selector `json:"selectors"`
	Menu      Menu       `json:"menu"`
	Board     Board      `json:"board"`
}

func (p *Panel) View() View {
	v := View{
		Selectors: make([]Selector, len(p.Selectors)),
		Menu:      *p.Menu,
		Board:     *p.Board,
	}
	for i, s := range p.Selectors {
		v.Selectors[i] = *s
	}
	if p.Menu.Feedback != nil {
		fb := *p.Menu.Feedback
		v.Menu.Feedback = &fb
	}
	v.Board.Lines = append([]simulation.ResultLine(nil), p.Board.Lines...)
	return v
}
