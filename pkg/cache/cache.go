// Package cache memoizes transition results in a ports.ConfigurationStore.
//
// Results are keyed by the transition's String form and the checksum of its
// input, so structurally equal inputs share one entry. Concurrent misses for
// the same key are collapsed into a single computation; with a
// DistributedLocker the same holds across replicas sharing a store.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/transit/internal/logging"
	"github.com/aretw0/transit/pkg/domain"
	"github.com/aretw0/transit/pkg/ports"
	"github.com/aretw0/transit/pkg/transition"
	"golang.org/x/sync/singleflight"
)

// Outcome reports how Apply produced its result.
type Outcome int

const (
	// OutcomeApplied means the transition ran and its result was stored.
	OutcomeApplied Outcome = iota
	// OutcomeSkipped means the transition was a no-op and returned its input.
	OutcomeSkipped
	// OutcomeCached means the result came from the store.
	OutcomeCached
	// OutcomeShared means the result was computed by a concurrent caller.
	OutcomeShared
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeCached:
		return "cached"
	case OutcomeShared:
		return "shared"
	}
	return "unknown"
}

// Stats are cumulative counters of a Manager.
type Stats struct {
	Hits        int64
	Misses      int64
	Computed    int64
	Skipped     int64
	StoreErrors int64
}

// Manager applies transitions through a result store.
type Manager struct {
	store   ports.ConfigurationStore
	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	flight  singleflight.Group

	hits, misses, computed, skipped, storeErrors atomic.Int64
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used to report store failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithLocker coordinates misses across processes. ttl bounds how long a
// crashed holder can block others.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(m *Manager) {
		m.locker = locker
		m.lockTTL = ttl
	}
}

// New creates a manager storing results in store.
func New(store ports.ConfigurationStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		lockTTL: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.NewNop()
	}
	return m
}

// Key returns the store key of applying t to cfg.
func Key(t transition.PatchTransition, cfg *domain.Configuration) string {
	return t.String() + "/" + cfg.Checksum()
}

// Apply returns the result of applying t to cfg, from the store when
// possible. No-op transitions bypass the store and return cfg itself.
//
// Store failures are logged and fall back to computing the result. Errors,
// cancellation included, are never stored. A shared computation outlives the
// cancellation of any one caller; each caller stops waiting when its own ctx
// is done. Callers that share a computation share its events: only the sink
// of the caller that started it receives them.
func (m *Manager) Apply(ctx context.Context, t transition.PatchTransition, cfg *domain.Configuration, sink domain.EventHandler) (*domain.Configuration, Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, OutcomeApplied, err
	}

	if transition.IsNoop(t) {
		m.skipped.Add(1)
		out, err := transition.Apply(ctx, t, cfg, sink)
		return out, OutcomeSkipped, err
	}

	key := Key(t, cfg)
	if out, ok := m.lookup(ctx, key); ok {
		m.hits.Add(1)
		return out, OutcomeCached, nil
	}
	m.misses.Add(1)

	detached := context.WithoutCancel(ctx)
	ch := m.flight.DoChan(key, func() (any, error) {
		return m.compute(detached, key, t, cfg, sink)
	})
	select {
	case <-ctx.Done():
		return nil, OutcomeApplied, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, OutcomeApplied, res.Err
		}
		out := res.Val.(*domain.Configuration)
		if res.Shared {
			return out, OutcomeShared, nil
		}
		return out, OutcomeApplied, nil
	}
}

func (m *Manager) compute(ctx context.Context, key string, t transition.PatchTransition, cfg *domain.Configuration, sink domain.EventHandler) (*domain.Configuration, error) {
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		switch {
		case err == nil:
			defer func() {
				if err := unlock(ctx); err != nil {
					m.logger.Warn("cache: failed to release lock", "key", key, "error", err)
				}
			}()
			// Another replica may have finished while we waited.
			if out, ok := m.lookup(ctx, key); ok {
				return out, nil
			}
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			m.logger.Warn("cache: computing without lock", "key", key, "error", err)
		}
	}

	out, err := transition.Apply(ctx, t, cfg, sink)
	if err != nil {
		return nil, err
	}
	m.computed.Add(1)

	if err := m.store.Save(ctx, key, out); err != nil {
		m.storeErrors.Add(1)
		m.logger.Warn("cache: failed to store result", "key", key, "error", err)
	}
	return out, nil
}

func (m *Manager) lookup(ctx context.Context, key string) (*domain.Configuration, bool) {
	out, err := m.store.Load(ctx, key)
	if err == nil {
		return out, true
	}
	if !errors.Is(err, domain.ErrConfigurationNotFound) && ctx.Err() == nil {
		m.storeErrors.Add(1)
		m.logger.Warn("cache: lookup failed", "key", key, "error", err)
	}
	return nil, false
}

// Invalidate drops the stored result of applying t to cfg.
func (m *Manager) Invalidate(ctx context.Context, t transition.PatchTransition, cfg *domain.Configuration) error {
	return m.store.Delete(ctx, Key(t, cfg))
}

// Stats returns a snapshot of the counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Hits:        m.hits.Load(),
		Misses:      m.misses.Load(),
		Computed:    m.computed.Load(),
		Skipped:     m.skipped.Load(),
		StoreErrors: m.storeErrors.Load(),
	}
}

// Store returns the backing store.
func (m *Manager) Store() ports.ConfigurationStore {
	return m.store
}
