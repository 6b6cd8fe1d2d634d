package server

import (
	"context"
	"sync"

	"github.com/preston-bernstein/goalfeed-live/internal/stream"
)

// stubStream records lifecycle calls and lets tests push messages and states.
type stubStream struct {
	mu         sync.Mutex
	startCalls int
	stopCalls  int
	startErr   error
	status     stream.Status
	messages   []func(stream.Message)
	states     []func(stream.State)
}

func (s *stubStream) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startCalls++
	return s.startErr
}

func (s *stubStream) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCalls++
	return nil
}

func (s *stubStream) Status() stream.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *stubStream) Subscribe(fn func(stream.Message)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, fn)
	idx := len(s.messages) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.messages[idx] = nil
	}
}

func (s *stubStream) OnState(fn func(stream.State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, fn)
	idx := len(s.states) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.states[idx] = nil
	}
}

func (s *stubStream) emit(msg stream.Message) {
	s.mu.Lock()
	subs := append([]func(stream.Message){}, s.messages...)
	s.mu.Unlock()
	for _, fn := range subs {
		if fn != nil {
			fn(msg)
		}
	}
}

func (s *stubStream) emitState(st stream.State) {
	s.mu.Lock()
	subs := append([]func(stream.State){}, s.states...)
	s.mu.Unlock()
	for _, fn := range subs {
		if fn != nil {
			fn(st)
		}
	}
}

func (s *stubStream) counts() (start, stop int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startCalls, s.stopCalls
}
