package store

import (
	"sync"

	"github.com/preston-bernstein/goalfeed-live/internal/domain/events"
)

// DefaultEventCap bounds the event log when no capacity is given.
const DefaultEventCap = 50

// EventLog is a bounded, newest-first log of events. Once full, the oldest
// entry is evicted for each new one.
type EventLog struct {
	mu     sync.RWMutex
	cap    int
	events []events.Event
}

// NewEventLog constructs an empty log. A non-positive capacity uses DefaultEventCap.
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = DefaultEventCap
	}
	return &EventLog{cap: capacity, events: make([]events.Event, 0, capacity)}
}

// Prepend records a copy of e as the newest event.
func (l *EventLog) Prepend(e events.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	keep := len(l.events)
	if keep >= l.cap {
		keep = l.cap - 1
	}
	next := make([]events.Event, 0, l.cap)
	next = append(next, e.Clone())
	next = append(next, l.events[:keep]...)
	l.events = next
}

// List returns copies of the events, newest first.
func (l *EventLog) List() []events.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]events.Event, len(l.events))
	for i, e := range l.events {
		out[i] = e.Clone()
	}
	return out
}

// Len returns the number of events held.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Scoring counts the held events that changed a score.
func (l *EventLog) Scoring() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, e := range l.events {
		if e.IsScoring() {
			n++
		}
	}
	return n
}

// Cap returns the configured capacity.
func (l *EventLog) Cap() int {
	return l.cap
}
