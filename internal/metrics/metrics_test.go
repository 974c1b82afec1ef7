package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/transit/internal/metrics"
	"github.com/aretw0/transit/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.New(reg)
	require.NoError(t, err)

	hooks := c.Hooks()
	ctx := context.Background()
	legacy := &domain.TransitionEvent{Mode: domain.DistinguisherLegacy, Duration: time.Millisecond}
	diff := &domain.TransitionEvent{Mode: domain.DistinguisherDiffToAffected, Duration: time.Millisecond}

	hooks.OnTransitionApplied(ctx, legacy)
	hooks.OnTransitionApplied(ctx, legacy)
	hooks.OnTransitionSkipped(ctx, legacy)
	hooks.OnCacheHit(ctx, diff)
	hooks.OnTransitionFailed(ctx, diff)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Transitions.WithLabelValues("legacy", metrics.OutcomeApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Transitions.WithLabelValues("legacy", metrics.OutcomeSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Transitions.WithLabelValues("diff_to_affected", metrics.OutcomeCached)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Transitions.WithLabelValues("diff_to_affected", metrics.OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheHits))

	assert.Equal(t, 2, testutil.CollectAndCount(c.Duration))
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.New(reg)
	require.NoError(t, err)

	_, err = metrics.New(reg)
	assert.Error(t, err)
}
