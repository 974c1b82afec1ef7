// Package metrics exposes prometheus collectors fed by engine lifecycle hooks.
package metrics

import (
	"context"

	"github.com/aretw0/transit/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values of transit_transitions_total.
const (
	OutcomeApplied = "applied"
	OutcomeSkipped = "skipped"
	OutcomeCached  = "cached"
	OutcomeFailed  = "failed"
)

// Collectors holds the transit metrics.
type Collectors struct {
	Transitions *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	CacheHits   prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transit_transitions_total",
				Help: "Execution transitions by distinguisher mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transit_transition_duration_seconds",
				Help:    "Duration of execution transitions",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"mode"},
		),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transit_cache_hits_total",
			Help: "Execution configurations served from the result store",
		}),
	}
	for _, col := range []prometheus.Collector{c.Transitions, c.Duration, c.CacheHits} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Hooks records every transition event.
func (c *Collectors) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransitionApplied: func(_ context.Context, e *domain.TransitionEvent) {
			c.observe(e, OutcomeApplied)
		},
		OnTransitionSkipped: func(_ context.Context, e *domain.TransitionEvent) {
			c.observe(e, OutcomeSkipped)
		},
		OnTransitionFailed: func(_ context.Context, e *domain.TransitionEvent) {
			c.observe(e, OutcomeFailed)
		},
		OnCacheHit: func(_ context.Context, e *domain.TransitionEvent) {
			c.CacheHits.Inc()
			c.observe(e, OutcomeCached)
		},
	}
}

func (c *Collectors) observe(e *domain.TransitionEvent, outcome string) {
	mode := e.Mode.String()
	c.Transitions.WithLabelValues(mode, outcome).Inc()
	c.Duration.WithLabelValues(mode).Observe(e.Duration.Seconds())
}
