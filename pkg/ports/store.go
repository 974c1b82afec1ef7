package ports

import (
	"context"

	"github.com/aretw0/transit/pkg/domain"
)

// ConfigurationStore persists configurations under a key. It backs the
// transition result cache and the lookup of stored configurations.
type ConfigurationStore interface {
	// Save stores cfg under key, replacing any previous value.
	Save(ctx context.Context, key string, cfg *domain.Configuration) error

	// Load retrieves the configuration stored under key.
	// Returns domain.ErrConfigurationNotFound if the key does not exist.
	Load(ctx context.Context, key string) (*domain.Configuration, error)

	// Delete removes the configuration stored under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the stored keys.
	List(ctx context.Context) ([]string, error)
}
