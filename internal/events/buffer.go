package events

import "sync"

// RingBuffer keeps the most recent events in emission order.
type RingBuffer struct {
	mu    sync.RWMutex
	slots []Event
	next  int // slot the next event is written to
	count int // occupied slots, at most len(slots)
	total uint64
}

func NewRingBuffer(size int) *RingBuffer {
	if size < 1 {
		size = 1
	}
	return &RingBuffer{slots: make([]Event, size)}
}

func (rb *RingBuffer) Add(e Event) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.slots[rb.next] = e
	rb.next = (rb.next + 1) % len(rb.slots)
	if rb.count < len(rb.slots) {
		rb.count++
	}
	rb.total++
}

// at returns the i-th oldest buffered event. Callers hold mu.
func (rb *RingBuffer) at(i int) Event {
	start := rb.next - rb.count
	if start < 0 {
		start += len(rb.slots)
	}
	return rb.slots[(start+i)%len(rb.slots)]
}

// Snapshot returns every buffered event, oldest first.
func (rb *RingBuffer) Snapshot() []Event {
	return rb.Last(0, nil)
}

// Last returns up to n of the newest events matching filter, oldest first.
// n <= 0 means no limit.
func (rb *RingBuffer) Last(n int, filter Filter) []Event {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	var picked []Event
	for i := rb.count - 1; i >= 0; i-- {
		if n > 0 && len(picked) == n {
			break
		}
		if e := rb.at(i); filter.keep(e) {
			picked = append(picked, e)
		}
	}
	out := make([]Event, len(picked))
	for i, e := range picked {
		out[len(picked)-1-i] = e
	}
	return out
}

// Clear drops all buffered events. The running total is kept.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.slots = make([]Event, len(rb.slots))
	rb.next = 0
	rb.count = 0
}

// Total returns the number of events added since creation.
func (rb *RingBuffer) Total() uint64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.total
}
