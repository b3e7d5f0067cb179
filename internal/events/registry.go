package events

import "fmt"

var allowedEvents = map[string]struct{}{
	// simulation
	"simulation.started":   {},
	"simulation.completed": {},
	"simulation.violation": {},

	// level
	"level.activated": {},
	"level.completed": {},
	"level.destroyed": {},

	// menu / results
	"menu.updated":  {},
	"results.shown": {},

	// submission
	"submission.dispatched": {},
	"submission.succeeded":  {},
	"submission.failed":     {},

	// session
	"session.created": {},
	"session.removed": {},

	// scene transport
	"scene.connected": {},
	"scene.result":    {},
	"scene.error":     {},

	// system
	"system.startup":  {},
	"system.shutdown": {},
	"system.error":    {},
}

func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}
