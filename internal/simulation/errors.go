package simulation

import "errors"

var (
	// ErrConfiguration reports a level table or binding that cannot be played.
	ErrConfiguration = errors.New("invalid simulation configuration")

	// ErrNotStarted is returned when a transition fires before Start.
	ErrNotStarted = errors.New("simulation not started")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("simulation already started")

	// ErrNotAtMenu is returned by Advance outside the menu state.
	ErrNotAtMenu = errors.New("advance requires the level menu")

	// ErrNotPlaying is returned by CompleteLevel when no level is active.
	ErrNotPlaying = errors.New("no level is being played")

	// ErrInvalidScore is returned for a result whose score is negative or above its maximum.
	ErrInvalidScore = errors.New("invalid level score")
)

// IsSequencingViolation reports whether err is a wrong-state transition.
func IsSequencingViolation(err error) bool {
	return errors.Is(err, ErrNotStarted) ||
		errors.Is(err, ErrAlreadyStarted) ||
		errors.Is(err, ErrNotAtMenu) ||
		errors.Is(err, ErrNotPlaying)
}
