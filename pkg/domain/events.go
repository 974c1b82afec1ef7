package domain

import (
	"context"
	"time"
)

// EventKind classifies a diagnostic event.
type EventKind string

const (
	EventInfo    EventKind = "info"
	EventWarning EventKind = "warning"
	EventError   EventKind = "error"
)

// Event is a diagnostic emitted while applying a transition.
type Event struct {
	Kind      EventKind `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// EventHandler is a write-only diagnostic sink. Implementations may be shared
// between goroutines and must synchronise themselves.
type EventHandler interface {
	Handle(Event)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(Event)

// Handle calls f(e).
func (f EventHandlerFunc) Handle(e Event) {
	f(e)
}

// DiscardEvents drops every event.
var DiscardEvents EventHandler = EventHandlerFunc(func(Event) {})

// Warn emits a warning through h, stamping it with the current time.
func Warn(h EventHandler, message string) {
	h.Handle(Event{Kind: EventWarning, Message: message, Timestamp: time.Now()})
}

// TransitionEvent describes one application of a transition.
type TransitionEvent struct {
	Timestamp      time.Time         `json:"timestamp"`
	Transition     string            `json:"transition"`
	Mode           DistinguisherMode `json:"mode"`
	InputChecksum  string            `json:"input_checksum"`
	OutputChecksum string            `json:"output_checksum,omitempty"`
	Affected       []string          `json:"affected,omitempty"`
	Duration       time.Duration     `json:"duration"`
	Err            error             `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	// OnTransitionApplied fires when a transition produced a new configuration.
	OnTransitionApplied func(context.Context, *TransitionEvent)
	// OnTransitionSkipped fires when a transition returned its input unchanged.
	OnTransitionSkipped func(context.Context, *TransitionEvent)
	// OnTransitionFailed fires on cancellation or contract failures.
	OnTransitionFailed func(context.Context, *TransitionEvent)
	// OnCacheHit fires when a memoized result was reused.
	OnCacheHit func(context.Context, *TransitionEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransitionApplied: chain(h.OnTransitionApplied, other.OnTransitionApplied),
		OnTransitionSkipped: chain(h.OnTransitionSkipped, other.OnTransitionSkipped),
		OnTransitionFailed:  chain(h.OnTransitionFailed, other.OnTransitionFailed),
		OnCacheHit:          chain(h.OnCacheHit, other.OnCacheHit),
	}
}

func chain(a, b func(context.Context, *TransitionEvent)) func(context.Context, *TransitionEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *TransitionEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
