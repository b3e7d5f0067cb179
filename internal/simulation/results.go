package simulation

import "fmt"

// DefaultResultSpacing is the vertical gap between result lines.
const DefaultResultSpacing = 0.5

// ResultLine is one row of the final results board.
type ResultLine struct {
	Position int     `json:"position"`
	Level    string  `json:"level"`
	Score    int     `json:"score"`
	MaxScore int     `json:"max_score"`
	Offset   float64 `json:"offset"`
	Text     string  `json:"text"`
}

// ResultsPresenter lays out a completed record as a vertical list.
type ResultsPresenter struct {
	Spacing float64
}

// Present returns one line per entry in record order, positions 1-indexed,
// each shifted down by Spacing from the previous one.
func (p ResultsPresenter) Present(rec Record) []ResultLine {
	lines := make([]ResultLine, len(rec.Entries))
	for i, e := range rec.Entries {
		lines[i] = ResultLine{
			Position: i + 1,
			Level:    e.Level,
			Score:    e.Score,
			MaxScore: e.MaxScore,
			Offset:   -float64(i) * p.Spacing,
			Text:     fmt.Sprintf("%d. %s: %d/%d", i+1, e.Level, e.Score, e.MaxScore),
		}
	}
	return lines
}
