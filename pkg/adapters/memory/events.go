package memory

import (
	"slices"
	"sync"

	"github.com/aretw0/transit/pkg/domain"
)

// EventStore is a domain.EventHandler that keeps every event it receives.
// Safe for concurrent use.
type EventStore struct {
	mu     sync.Mutex
	events []domain.Event
}

// NewEventStore creates an empty event store.
func NewEventStore() *EventStore {
	return &EventStore{}
}

// Handle records e.
func (s *EventStore) Handle(e domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// Events returns a copy of the recorded events, oldest first.
func (s *EventStore) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

// HasWarnings reports whether any warning or error was recorded.
func (s *EventStore) HasWarnings() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.ContainsFunc(s.events, func(e domain.Event) bool {
		return e.Kind == domain.EventWarning || e.Kind == domain.EventError
	})
}

// Replay forwards the recorded events to h.
func (s *EventStore) Replay(h domain.EventHandler) {
	for _, e := range s.Events() {
		h.Handle(e)
	}
}

// Clear drops every recorded event.
func (s *EventStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
