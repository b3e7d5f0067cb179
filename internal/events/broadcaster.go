package events

import (
	"sync"
	"sync/atomic"
)

// subscriberBuffer is the channel depth of each subscription. Emit never
// blocks; a full subscription drops the event and counts it.
const subscriberBuffer = 64

// Filter selects events. A nil Filter keeps every event.
type Filter func(Event) bool

// ForSession keeps the events tagged with session_id id. An empty id keeps
// every event.
func ForSession(id string) Filter {
	if id == "" {
		return nil
	}
	return func(e Event) bool {
		sid, _ := e.Fields["session_id"].(string)
		return sid == id
	}
}

func (f Filter) keep(e Event) bool { return f == nil || f(e) }

// Subscription is a live feed of emitted events. C is closed by
// Unsubscribe or CloseAllSubscribers.
type Subscription struct {
	C <-chan Event

	ch      chan Event
	filter  Filter
	dropped atomic.Uint64
}

// Dropped returns how many matching events this subscription missed
// because its buffer was full.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

type broadcasterState struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	dropped atomic.Uint64
}

var broadcaster = &broadcasterState{
	subs: make(map[*Subscription]struct{}),
}

// Subscribe starts a feed of the events matching filter.
func Subscribe(filter Filter) *Subscription {
	ch := make(chan Event, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, filter: filter}
	broadcaster.mu.Lock()
	broadcaster.subs[sub] = struct{}{}
	broadcaster.mu.Unlock()
	return sub
}

// Unsubscribe removes sub and closes its channel. Unsubscribing twice is a no-op.
func Unsubscribe(sub *Subscription) {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	if _, ok := broadcaster.subs[sub]; !ok {
		return
	}
	delete(broadcaster.subs, sub)
	close(sub.ch)
}

// CloseAllSubscribers closes and removes every subscription. Used on shutdown.
func CloseAllSubscribers() {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	for sub := range broadcaster.subs {
		close(sub.ch)
	}
	broadcaster.subs = make(map[*Subscription]struct{})
}

func broadcast(e Event) {
	broadcaster.mu.RLock()
	defer broadcaster.mu.RUnlock()

	for sub := range broadcaster.subs {
		if !sub.filter.keep(e) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			sub.dropped.Add(1)
			broadcaster.dropped.Add(1)
		}
	}
}

func SubscriberCount() int {
	broadcaster.mu.RLock()
	defer broadcaster.mu.RUnlock()
	return len(broadcaster.subs)
}

// DroppedCount returns the number of events dropped across all
// subscriptions since startup.
func DroppedCount() uint64 { return broadcaster.dropped.Load() }

// RecentEvents returns up to the last n buffered events matching filter,
// oldest first. n <= 0 returns every match.
func RecentEvents(n int, filter Filter) []Event {
	return buffer.Last(n, filter)
}
