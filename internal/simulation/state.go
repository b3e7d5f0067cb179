package simulation

// State is the controller's position in the level sequence.
type State string

const (
	StateAtMenu   State = "at_menu"
	StatePlaying  State = "playing_level"
	StateComplete State = "all_complete"
)

// Menu is the level menu the controller updates between levels.
type Menu interface {
	SetVisible(visible bool)
	ShowFeedback(f Feedback)
}

// ResultsView displays the final results board.
type ResultsView interface {
	Show(lines []ResultLine)
}

type nopMenu struct{}

func (nopMenu) SetVisible(bool)       {}
func (nopMenu) ShowFeedback(Feedback) {}

type nopResults struct{}

func (nopResults) Show([]ResultLine) {}

// LevelStatus is the read-only view of one level.
type LevelStatus struct {
	Position int      `json:"position"`
	Name     string   `json:"name"`
	Current  bool     `json:"current"`
	Active   bool     `json:"active"`
	Played   bool     `json:"played"`
	Score    int      `json:"score"`
	MaxScore int      `json:"max_score"`
	Comments []string `json:"comments,omitempty"`
}

// Snapshot is the read-only view of a controller.
type Snapshot struct {
	SessionID string        `json:"session_id,omitempty"`
	UserID    string        `json:"user_id,omitempty"`
	Kind      Kind          `json:"kind"`
	State     State         `json:"state"`
	Cursor    int           `json:"cursor"`
	Levels    []LevelStatus `json:"levels"`
	Feedback  *Feedback     `json:"feedback,omitempty"`
	Results   []ResultLine  `json:"results,omitempty"`
}
