package stream

import "sync"

type messageSub struct {
	id int
	fn func(Message)
}

type stateSub struct {
	id int
	fn func(State)
}

// bus fans decoded messages and state changes out to subscribers.
// Handlers run synchronously on the publishing goroutine, in subscription order.
type bus struct {
	mu       sync.RWMutex
	nextID   int
	messages []messageSub
	states   []stateSub
}

func (b *bus) subscribe(fn func(Message)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.messages = append(b.messages, messageSub{id: id, fn: fn})
	return func() { b.unsubscribeMessage(id) }
}

func (b *bus) onState(fn func(State)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.states = append(b.states, stateSub{id: id, fn: fn})
	return func() { b.unsubscribeState(id) }
}

func (b *bus) unsubscribeMessage(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.messages {
		if s.id == id {
			b.messages = append(b.messages[:i:i], b.messages[i+1:]...)
			return
		}
	}
}

func (b *bus) unsubscribeState(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.states {
		if s.id == id {
			b.states = append(b.states[:i:i], b.states[i+1:]...)
			return
		}
	}
}

func (b *bus) publish(msg Message) {
	b.mu.RLock()
	subs := append([]messageSub(nil), b.messages...)
	b.mu.RUnlock()
	for _, s := range subs {
		s.fn(msg)
	}
}

func (b *bus) publishState(state State) {
	b.mu.RLock()
	subs := append([]stateSub(nil), b.states...)
	b.mu.RUnlock()
	for _, s := range subs {
		s.fn(state)
	}
}
