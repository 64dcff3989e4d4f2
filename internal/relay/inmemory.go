package relay

import (
	"context"
	"sync"
)

// InMemory is a process-local relay used by tests and single-node demos.
// Like the real transports, it delivers the publisher's own messages back to
// its subscriptions.
type InMemory struct {
	mu     sync.Mutex
	subs   map[string][]chan []byte
	closed bool
}

func NewInMemory() *InMemory {
	return &InMemory{subs: make(map[string][]chan []byte)}
}

func (m *InMemory) Publish(ctx context.Context, topic string, payload []byte) error {
	m.mu.Lock()
	targets := make([]chan []byte, len(m.subs[topic]))
	copy(targets, m.subs[topic])
	m.mu.Unlock()

	msg := make([]byte, len(payload))
	copy(msg, payload)

	for _, ch := range targets {
		select {
		case ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *InMemory) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	ch := make(chan []byte, 64)

	m.mu.Lock()
	m.subs[topic] = append(m.subs[topic], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, c := range m.subs[topic] {
			if c == ch {
				m.subs[topic] = append(m.subs[topic][:i], m.subs[topic][i+1:]...)
				close(ch)
				break
			}
		}
	}()

	return ch, nil
}

func (m *InMemory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for _, chans := range m.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	m.subs = make(map[string][]chan []byte)
	return nil
}
