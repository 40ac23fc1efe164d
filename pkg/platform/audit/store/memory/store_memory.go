package memory

import (
	"context"
	"sync"

	audit "proptoken/pkg/platform/audit"
)

// InMemoryStore keeps audit events per subject. With a retention set, only
// the most recent events of each subject are kept.
type InMemoryStore struct {
	mu        sync.RWMutex
	events    map[string][]audit.Event
	retention int
}

type Option func(*InMemoryStore)

// WithRetention keeps at most n events per subject, dropping the oldest.
// n <= 0 keeps everything.
func WithRetention(n int) Option {
	return func(s *InMemoryStore) {
		s.retention = n
	}
}

func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{events: make(map[string][]audit.Event)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := append(s.events[event.Subject], event)
	if s.retention > 0 && len(events) > s.retention {
		events = append([]audit.Event(nil), events[len(events)-s.retention:]...)
	}
	s.events[event.Subject] = events
	return nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subject string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[subject]...), nil
}

// ListAll returns every stored event, grouped by subject.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []audit.Event
	for _, events := range s.events {
		all = append(all, events...)
	}
	return all, nil
}
