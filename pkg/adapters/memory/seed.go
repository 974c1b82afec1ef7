package memory

import (
	"fmt"
	"strings"

	"github.com/aretw0/transit/pkg/domain"
	"github.com/aretw0/transit/pkg/options"
)

// NewFromConfigurations creates a store pre-populated with named configurations.
func NewFromConfigurations(configs map[string]*domain.Configuration) *Store {
	s := NewStore()
	for key, cfg := range configs {
		s.data[key] = cfg
	}
	return s
}

// NewFromDocuments creates a store from raw YAML or JSON documents keyed by
// name. This handles decoding automatically, which keeps tests short.
func NewFromDocuments(docs map[string]string) (*Store, error) {
	s := NewStore()
	for key, doc := range docs {
		if key == "" {
			return nil, fmt.Errorf("document missing key")
		}
		cfg, err := options.Decode(strings.NewReader(doc))
		if err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", key, err)
		}
		s.data[key] = cfg
	}
	return s, nil
}
