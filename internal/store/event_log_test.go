package store

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/preston-bernstein/goalfeed-live/internal/domain/events"
)

func TestEventLogKeepsNewestFirstWithinCap(t *testing.T) {
	l := NewEventLog(50)
	for i := 1; i <= 60; i++ {
		l.Prepend(events.Event{ID: fmt.Sprintf("e%d", i)})
	}

	got := l.List()
	if len(got) != 50 {
		t.Fatalf("expected 50 events, got %d", len(got))
	}
	if got[0].ID != "e60" || got[49].ID != "e11" {
		t.Fatalf("expected e60..e11, got %s..%s", got[0].ID, got[49].ID)
	}
}

func TestEventLogDefaultsCap(t *testing.T) {
	if NewEventLog(0).Cap() != DefaultEventCap {
		t.Fatalf("expected default cap %d", DefaultEventCap)
	}
}

func TestEventLogCapOfOne(t *testing.T) {
	l := NewEventLog(1)
	l.Prepend(events.Event{ID: "a"})
	l.Prepend(events.Event{ID: "b"})
	if got := l.List(); len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("expected only newest event, got %+v", got)
	}
}

func TestEventLogListReturnsCopy(t *testing.T) {
	l := NewEventLog(5)
	l.Prepend(events.Event{ID: "a"})
	list := l.List()
	list[0].ID = "mutated"
	if l.List()[0].ID != "a" {
		t.Fatalf("expected log to remain unchanged")
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 event, got %d", l.Len())
	}
}

func TestEventLogDoesNotShareEventMemory(t *testing.T) {
	l := NewEventLog(5)
	in := events.Event{
		ID:      "a",
		Score:   &events.ScoreUpdate{HomeScore: 1},
		Details: json.RawMessage(`{"a":1}`),
	}
	l.Prepend(in)
	in.Score.HomeScore = 7
	in.Details[2] = 'Z'

	view := l.List()
	view[0].Score.HomeScore = 99
	view[0].Details[2] = 'X'

	got := l.List()[0]
	if got.Score.HomeScore != 1 {
		t.Fatalf("expected stored score 1, got %d", got.Score.HomeScore)
	}
	if string(got.Details) != `{"a":1}` {
		t.Fatalf("expected stored details unchanged, got %s", got.Details)
	}
}

func TestEventLogScoring(t *testing.T) {
	l := NewEventLog(5)
	for _, typ := range []events.Type{events.TypeGoal, events.TypePenalty, events.TypeTouchdown} {
		l.Prepend(events.Event{Type: typ})
	}
	if got := l.Scoring(); got != 2 {
		t.Fatalf("expected 2 scoring events, got %d", got)
	}
}
