package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/transit/pkg/domain"
)

// Store implements ports.ConfigurationStore in memory.
// Safe for concurrent use.
//
// Configurations are immutable, so Store keeps the pointer it was given and
// Load hands the same pointer back. Results memoized through it are
// therefore interned: equal inputs map to one shared *Configuration.
type Store struct {
	data map[string]*domain.Configuration
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Configuration),
	}
}

// Save stores the configuration in memory.
func (s *Store) Save(ctx context.Context, key string, cfg *domain.Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = cfg
	return nil
}

// Load retrieves the configuration from memory.
func (s *Store) Load(ctx context.Context, key string) (*domain.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.data[key]
	if !ok {
		return nil, domain.ErrConfigurationNotFound
	}
	return cfg, nil
}

// Delete removes the configuration.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored keys, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Len returns the number of stored configurations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
