package middleware

import (
	"context"
	"errors"

	"github.com/aretw0/transit/pkg/domain"
	"github.com/aretw0/transit/pkg/ports"
)

// ErrReadOnly is returned by writes to a read-only store.
var ErrReadOnly = errors.New("configuration store is read-only")

type readOnlyMiddleware struct {
	ports.ConfigurationStore
}

// NewReadOnlyMiddleware rejects Save and Delete, serving a store populated
// elsewhere.
func NewReadOnlyMiddleware() Middleware {
	return func(next ports.ConfigurationStore) ports.ConfigurationStore {
		return readOnlyMiddleware{next}
	}
}

func (readOnlyMiddleware) Save(context.Context, string, *domain.Configuration) error {
	return ErrReadOnly
}

func (readOnlyMiddleware) Delete(context.Context, string) error {
	return ErrReadOnly
}
