package transit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/transit"
	"github.com/aretw0/transit/pkg/adapters/memory"
	"github.com/aretw0/transit/pkg/adapters/redis"
	"github.com/aretw0/transit/pkg/cache"
	"github.com/aretw0/transit/pkg/domain"
	"github.com/aretw0/transit/pkg/transition"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"
)

const execPlatform domain.Label = "//platform:exec"

type recordedHooks struct {
	mu      sync.Mutex
	applied []*domain.TransitionEvent
	skipped []*domain.TransitionEvent
	failed  []*domain.TransitionEvent
	cached  []*domain.TransitionEvent
}

func (r *recordedHooks) hooks() domain.LifecycleHooks {
	record := func(dst *[]*domain.TransitionEvent) func(context.Context, *domain.TransitionEvent) {
		return func(_ context.Context, e *domain.TransitionEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			*dst = append(*dst, e)
		}
	}
	return domain.LifecycleHooks{
		OnTransitionApplied: record(&r.applied),
		OnTransitionSkipped: record(&r.skipped),
		OnTransitionFailed:  record(&r.failed),
		OnCacheHit:          record(&r.cached),
	}
}

// spanRecorder records the names of started spans.
type spanRecorder struct {
	embedded.Tracer
	mu    sync.Mutex
	names []string
}

func (s *spanRecorder) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	s.mu.Lock()
	s.names = append(s.names, name)
	s.mu.Unlock()
	return noop.NewTracerProvider().Tracer("").Start(ctx, name, opts...)
}

func TestEngine_Exec(t *testing.T) {
	eng, err := transit.New()
	require.NoError(t, err)

	cfg, err := eng.ParseOptions("--platforms=//platform:target")
	require.NoError(t, err)

	platform := execPlatform
	out, err := eng.Exec(context.Background(), cfg, &platform, nil)
	require.NoError(t, err)

	core, ok := out.Core()
	require.True(t, ok)
	assert.True(t, core.IsExec)
	assert.Equal(t, domain.FormatHash(domain.HashString(string(execPlatform))), core.PlatformSuffix)
	p, _ := out.Platform()
	assert.Equal(t, []domain.Label{execPlatform}, p.Platforms)
}

func TestEngine_ExecWithoutPlatform(t *testing.T) {
	eng, err := transit.New()
	require.NoError(t, err)
	cfg, err := eng.ParseOptions()
	require.NoError(t, err)

	out, err := eng.Exec(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	assert.Same(t, cfg, out)
}

func TestEngine_NilConfiguration(t *testing.T) {
	eng, err := transit.New()
	require.NoError(t, err)

	_, err = eng.Exec(context.Background(), nil, nil, nil)
	assert.ErrorIs(t, err, transit.ErrNilConfiguration)
}

func TestEngine_LockerRequiresStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	_, err := transit.New(transit.WithLocker(redis.NewLocker(client, ""), time.Second))
	assert.Error(t, err)
}

func TestEngine_Hooks(t *testing.T) {
	rec := &recordedHooks{}
	eng, err := transit.New(
		transit.WithStore(memory.NewStore()),
		transit.WithLifecycleHooks(rec.hooks()),
	)
	require.NoError(t, err)

	cfg, err := eng.ParseOptions(
		"--platforms=//platform:target",
		"--experimental_exec_configuration_distinguisher=diff_to_affected",
	)
	require.NoError(t, err)
	platform := execPlatform
	ctx := context.Background()

	first, err := eng.Run(ctx, cfg, &platform, nil)
	require.NoError(t, err)
	assert.Equal(t, cache.OutcomeApplied, first.Outcome)
	assert.False(t, first.Noop())
	assert.NotEmpty(t, first.Affected())

	second, err := eng.Run(ctx, cfg, &platform, nil)
	require.NoError(t, err)
	assert.Equal(t, cache.OutcomeCached, second.Outcome)
	assert.Same(t, first.Output, second.Output)

	skipped, err := eng.Run(ctx, cfg, nil, nil)
	require.NoError(t, err)
	assert.True(t, skipped.Noop())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = eng.Run(cancelled, cfg, &platform, nil)
	require.ErrorIs(t, err, context.Canceled)

	require.Len(t, rec.applied, 1)
	require.Len(t, rec.cached, 1)
	require.Len(t, rec.skipped, 1)
	require.Len(t, rec.failed, 1)

	applied := rec.applied[0]
	assert.Equal(t, "exec(//platform:exec)", applied.Transition)
	assert.Equal(t, domain.DistinguisherDiffToAffected, applied.Mode)
	assert.Equal(t, cfg.Checksum(), applied.InputChecksum)
	assert.Equal(t, first.Output.Checksum(), applied.OutputChecksum)
	assert.Equal(t, first.Affected(), applied.Affected)

	assert.Equal(t, "exec", rec.skipped[0].Transition)
	assert.ErrorIs(t, rec.failed[0].Err, context.Canceled)

	assert.Equal(t, cache.Stats{Hits: 1, Misses: 1, Computed: 1, Skipped: 1}, eng.Stats())
}

func TestEngine_HooksMerge(t *testing.T) {
	a, b := &recordedHooks{}, &recordedHooks{}
	eng, err := transit.New(
		transit.WithLifecycleHooks(a.hooks()),
		transit.WithLifecycleHooks(b.hooks()),
	)
	require.NoError(t, err)
	cfg, err := eng.ParseOptions()
	require.NoError(t, err)
	platform := execPlatform

	_, err = eng.Exec(context.Background(), cfg, &platform, nil)
	require.NoError(t, err)
	assert.Len(t, a.applied, 1)
	assert.Len(t, b.applied, 1)
}

func TestEngine_Tracer(t *testing.T) {
	rec := &spanRecorder{}
	eng, err := transit.New(transit.WithTracer(rec))
	require.NoError(t, err)
	cfg, err := eng.ParseOptions()
	require.NoError(t, err)
	platform := execPlatform

	_, err = eng.Exec(context.Background(), cfg, &platform, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"transit.Exec"}, rec.names)
}

func TestEngine_WithFactory(t *testing.T) {
	var seen []*domain.Label
	inner := transition.NewExecutionFactory()
	factory := transition.FactoryFunc(func(p transition.Params) transition.PatchTransition {
		seen = append(seen, p.ExecutionPlatform)
		return inner.Create(p)
	})
	eng, err := transit.New(transit.WithFactory(factory))
	require.NoError(t, err)
	cfg, err := eng.ParseOptions()
	require.NoError(t, err)
	platform := execPlatform

	_, err = eng.Exec(context.Background(), cfg, &platform, nil)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, execPlatform, *seen[0])
}

func TestEngine_Key(t *testing.T) {
	store := memory.NewStore()
	eng, err := transit.New(transit.WithStore(store))
	require.NoError(t, err)
	cfg, err := eng.ParseOptions("--experimental_exec_configuration_distinguisher=full_hash")
	require.NoError(t, err)
	platform := execPlatform

	out, err := eng.Exec(context.Background(), cfg, &platform, nil)
	require.NoError(t, err)

	stored, err := eng.Store().Load(context.Background(), eng.Key(cfg, &platform))
	require.NoError(t, err)
	assert.Same(t, out, stored)
}

func TestEngine_SharedRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	newEngine := func() *transit.Engine {
		client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		eng, err := transit.New(
			transit.WithStore(redis.NewFromClient(client)),
			transit.WithLocker(redis.NewLocker(client, redis.DefaultPrefix), time.Second),
		)
		require.NoError(t, err)
		return eng
	}
	a, b := newEngine(), newEngine()
	cfg, err := a.ParseOptions("--platforms=//platform:target")
	require.NoError(t, err)
	platform := execPlatform
	ctx := context.Background()

	fromA, err := a.Run(ctx, cfg, &platform, nil)
	require.NoError(t, err)
	fromB, err := b.Run(ctx, cfg, &platform, nil)
	require.NoError(t, err)

	assert.Equal(t, cache.OutcomeApplied, fromA.Outcome)
	assert.Equal(t, cache.OutcomeCached, fromB.Outcome)
	assert.True(t, fromA.Output.Equal(fromB.Output))
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, transit.Version)
	assert.NotContains(t, transit.Version, "\n")
}
