package listen

import (
	"context"
	"sync"
	"time"
)

// Event scripts one Listen/Recognize cycle for the mock source. Exactly one
// of Text, ListenErr, or RecognizeErr should be set.
type Event struct {
	Text         string
	ListenErr    error
	RecognizeErr error
}

type mockSource struct {
	mu     sync.Mutex
	events []Event
	idx    int
}

// NewMockSource returns a source that replays the scripted events and then
// reports no speech forever. With no events it is a silent microphone.
func NewMockSource(events ...Event) Source {
	return &mockSource{events: events}
}

func (m *mockSource) Listen(ctx context.Context, timeout time.Duration) (Audio, error) {
	if err := ctx.Err(); err != nil {
		return Audio{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idx >= len(m.events) {
		return Audio{}, ErrNoSpeech
	}
	e := m.events[m.idx]
	if e.ListenErr != nil {
		m.idx++
		return Audio{}, e.ListenErr
	}
	return Audio{PCM: []byte{0, 0}, SampleRate: 16000, Channels: 1}, nil
}

func (m *mockSource) Recognize(ctx context.Context, _ Audio, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idx >= len(m.events) {
		return "", ErrUnintelligible
	}
	e := m.events[m.idx]
	m.idx++
	if e.RecognizeErr != nil {
		return "", e.RecognizeErr
	}
	return e.Text, nil
}
