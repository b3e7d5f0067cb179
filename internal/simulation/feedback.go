package simulation

import (
	"fmt"
	"strings"
)

const (
	FeedbackPerfect = "Perfect!"
	LabelNextLevel  = "Next Level"
	LabelDone       = "Done!"
)

// Feedback is the text shown on the level menu after a level finishes.
type Feedback struct {
	Header string `json:"header"`
	Body   string `json:"body"`
	Label  string `json:"label"`
}

// FeedbackFor builds the menu text for a finished level. last marks the
// final configured level.
func FeedbackFor(level string, s SingleScore, last bool) Feedback {
	body := FeedbackPerfect
	if len(s.Comments) > 0 {
		body = strings.Join(s.Comments, "\n")
	}
	label := LabelNextLevel
	if last {
		label = LabelDone
	}
	return Feedback{
		Header: fmt.Sprintf("%s Result:%d/%d", level, s.Score, s.MaxScore),
		Body:   body,
		Label:  label,
	}
}
