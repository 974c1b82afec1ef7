package transit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/transit/internal/logging"
	"github.com/aretw0/transit/pkg/cache"
	"github.com/aretw0/transit/pkg/domain"
	"github.com/aretw0/transit/pkg/options"
	"github.com/aretw0/transit/pkg/ports"
	"github.com/aretw0/transit/pkg/transition"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of spans opened by the Engine.
const TracerName = "github.com/aretw0/transit"

// ErrNilConfiguration is returned when Exec is handed no configuration.
var ErrNilConfiguration = errors.New("nil configuration")

// Engine is the high-level entry point for deriving execution configurations.
// It is safe for concurrent use.
type Engine struct {
	factory transition.Factory
	store   ports.ConfigurationStore
	locker  ports.DistributedLocker
	lockTTL time.Duration
	cache   *cache.Manager
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStore memoizes results in store.
func WithStore(store ports.ConfigurationStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serializes misses for the same key across processes sharing the
// store. It requires WithStore.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// WithLifecycleHooks registers observability hooks. Repeated use merges them.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithFactory replaces the execution transition factory.
func WithFactory(f transition.Factory) Option {
	return func(e *Engine) {
		e.factory = f
	}
}

// WithTracer sets the tracer used for Exec spans. The default comes from the
// global otel provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// New initializes an Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.locker != nil && eng.store == nil {
		return nil, fmt.Errorf("a locker requires a store")
	}
	if eng.factory == nil {
		eng.factory = transition.NewExecutionFactory()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.tracer == nil {
		eng.tracer = otel.Tracer(TracerName)
	}
	if eng.store != nil {
		cacheOpts := []cache.Option{cache.WithLogger(eng.logger)}
		if eng.locker != nil {
			cacheOpts = append(cacheOpts, cache.WithLocker(eng.locker, eng.lockTTL))
		}
		eng.cache = cache.New(eng.store, cacheOpts...)
	}
	return eng, nil
}

// Result describes one Exec call.
type Result struct {
	Input      *domain.Configuration
	Output     *domain.Configuration
	Transition string
	Outcome    cache.Outcome
	Duration   time.Duration
}

// Noop reports whether the transition returned its input unchanged.
func (r Result) Noop() bool {
	return r.Output == r.Input
}

// Affected returns the affected option set of the output, if it has a core
// fragment.
func (r Result) Affected() []string {
	if r.Output == nil {
		return nil
	}
	core, _ := r.Output.Core()
	return core.AffectedByDynamicTransition
}

// Exec derives the execution configuration of cfg for platform. A nil
// platform returns cfg itself. Diagnostics go to sink; a nil sink discards
// them.
func (e *Engine) Exec(ctx context.Context, cfg *domain.Configuration, platform *domain.Label, sink domain.EventHandler) (*domain.Configuration, error) {
	res, err := e.Run(ctx, cfg, platform, sink)
	if err != nil {
		return nil, err
	}
	return res.Output, nil
}

var _ ports.Executor = (*Engine)(nil)

// Run is Exec reporting how the result was obtained.
func (e *Engine) Run(ctx context.Context, cfg *domain.Configuration, platform *domain.Label, sink domain.EventHandler) (Result, error) {
	if cfg == nil {
		return Result{}, ErrNilConfiguration
	}

	t := e.transition(platform)
	res := Result{Input: cfg, Transition: t.String()}
	event := &domain.TransitionEvent{
		Timestamp:     time.Now(),
		Transition:    res.Transition,
		InputChecksum: cfg.Checksum(),
	}
	if core, ok := cfg.Core(); ok {
		event.Mode = core.Distinguisher
	}

	ctx, span := e.tracer.Start(ctx, "transit.Exec", trace.WithAttributes(
		attribute.String("transit.transition", event.Transition),
		attribute.String("transit.mode", event.Mode.String()),
		attribute.String("transit.input_checksum", event.InputChecksum),
	))
	defer span.End()

	var err error
	start := time.Now()
	if e.cache != nil {
		res.Output, res.Outcome, err = e.cache.Apply(ctx, t, cfg, sink)
	} else {
		res.Output, err = transition.Apply(ctx, t, cfg, sink)
		res.Outcome = cache.OutcomeApplied
		if err == nil && res.Noop() {
			res.Outcome = cache.OutcomeSkipped
		}
	}
	res.Duration = time.Since(start)
	event.Duration = res.Duration

	if err != nil {
		event.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Error("execution transition failed", "transition", event.Transition, "error", err)
		if e.hooks.OnTransitionFailed != nil {
			e.hooks.OnTransitionFailed(ctx, event)
		}
		return Result{}, err
	}

	event.OutputChecksum = res.Output.Checksum()
	event.Affected = res.Affected()
	span.SetAttributes(
		attribute.String("transit.outcome", res.Outcome.String()),
		attribute.String("transit.output_checksum", event.OutputChecksum),
	)
	e.logger.Debug("execution transition",
		"transition", event.Transition,
		"mode", event.Mode.String(),
		"outcome", res.Outcome.String(),
		"input", event.InputChecksum,
		"output", event.OutputChecksum,
	)

	var hook func(context.Context, *domain.TransitionEvent)
	switch res.Outcome {
	case cache.OutcomeSkipped:
		hook = e.hooks.OnTransitionSkipped
	case cache.OutcomeCached, cache.OutcomeShared:
		hook = e.hooks.OnCacheHit
	default:
		hook = e.hooks.OnTransitionApplied
	}
	if hook != nil {
		hook(ctx, event)
	}
	return res, nil
}

// Key returns the store key under which the result of Exec(cfg, platform) is
// memoized.
func (e *Engine) Key(cfg *domain.Configuration, platform *domain.Label) string {
	return cache.Key(e.transition(platform), cfg)
}

// ParseOptions builds a configuration holding every known fragment from
// command-line style options.
func (e *Engine) ParseOptions(args ...string) (*domain.Configuration, error) {
	return options.Parse(domain.FragmentKinds(), args...)
}

// Store returns the memoization store, or nil when results are not memoized.
func (e *Engine) Store() ports.ConfigurationStore {
	return e.store
}

// Stats returns the memoization counters. They are zero without a store.
func (e *Engine) Stats() cache.Stats {
	if e.cache == nil {
		return cache.Stats{}
	}
	return e.cache.Stats()
}

func (e *Engine) transition(platform *domain.Label) transition.PatchTransition {
	return e.factory.Create(transition.Params{
		Attributes:        transition.EmptyAttributes(),
		ExecutionPlatform: platform,
	})
}
