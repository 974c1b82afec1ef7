package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/transit/pkg/domain"
	"github.com/aretw0/transit/pkg/ports"
)

type loggingMiddleware struct {
	next   ports.ConfigurationStore
	logger *slog.Logger
}

// NewLoggingMiddleware logs every store operation at debug level and every
// failure at warn level. A missing configuration is not a failure.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next ports.ConfigurationStore) ports.ConfigurationStore {
		return &loggingMiddleware{next: next, logger: logger}
	}
}

func (m *loggingMiddleware) log(ctx context.Context, op, key string, start time.Time, err error) {
	attrs := []any{"op", op, "duration", time.Since(start)}
	if key != "" {
		attrs = append(attrs, "key", key)
	}
	if err != nil && !errors.Is(err, domain.ErrConfigurationNotFound) {
		m.logger.WarnContext(ctx, "store operation failed", append(attrs, "error", err)...)
		return
	}
	m.logger.DebugContext(ctx, "store operation", attrs...)
}

func (m *loggingMiddleware) Save(ctx context.Context, key string, cfg *domain.Configuration) error {
	start := time.Now()
	err := m.next.Save(ctx, key, cfg)
	m.log(ctx, "save", key, start, err)
	return err
}

func (m *loggingMiddleware) Load(ctx context.Context, key string) (*domain.Configuration, error) {
	start := time.Now()
	cfg, err := m.next.Load(ctx, key)
	m.log(ctx, "load", key, start, err)
	return cfg, err
}

func (m *loggingMiddleware) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := m.next.Delete(ctx, key)
	m.log(ctx, "delete", key, start, err)
	return err
}

func (m *loggingMiddleware) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	keys, err := m.next.List(ctx)
	m.log(ctx, "list", "", start, err)
	return keys, err
}
