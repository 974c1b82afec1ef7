package ports

import (
	"context"

	"github.com/aretw0/transit/pkg/domain"
)

// Executor applies the execution transition. It is the interface adapters
// such as the HTTP server depend on.
type Executor interface {
	// Exec derives the execution configuration of cfg for platform. A nil
	// platform returns cfg itself.
	Exec(ctx context.Context, cfg *domain.Configuration, platform *domain.Label, sink domain.EventHandler) (*domain.Configuration, error)
}
