/*
Package transition defines configuration transitions and the execution
transition that derives the configuration build actions run in.

A transition is created per invocation by a Factory and applied to a
configuration through a View limited to the fragments it declared:

	t := transition.NewExecutionFactory().Create(transition.Params{
		Attributes:        transition.EmptyAttributes(),
		ExecutionPlatform: &platform,
	})
	out, err := transition.Apply(ctx, t, cfg, sink)

Transitions hold no mutable state and may be applied from many goroutines at
once.
*/
package transition

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/transit/pkg/domain"
)

// PatchTransition maps one configuration to another.
type PatchTransition interface {
	// RequiresFragments lists the fragment kinds Patch reads.
	RequiresFragments() []domain.FragmentKind

	// Patch returns the transformed configuration. When nothing has to change
	// it returns view.Underlying() itself. It never returns a partially built
	// configuration: on cancellation the result is nil and the error is ctx.Err().
	Patch(ctx context.Context, view *domain.View, sink domain.EventHandler) (*domain.Configuration, error)

	fmt.Stringer
}

// AttributeMapper exposes the attributes of the rule a transition is attached
// to. The execution transition does not read them.
type AttributeMapper interface {
	Get(name string) (any, bool)
	Names() []string
}

type attributes map[string]any

func (a attributes) Get(name string) (any, bool) {
	v, ok := a[name]
	return v, ok
}

func (a attributes) Names() []string {
	return slices.Sorted(maps.Keys(a))
}

// EmptyAttributes returns a mapper with no attributes.
func EmptyAttributes() AttributeMapper {
	return attributes(nil)
}

// MapAttributes returns a mapper over a copy of m.
func MapAttributes(m map[string]any) AttributeMapper {
	return attributes(maps.Clone(m))
}

// Params are the per-invocation inputs of a Factory.
type Params struct {
	Attributes AttributeMapper
	// ExecutionPlatform is nil when no execution platform is known.
	ExecutionPlatform *domain.Label
}

// Factory creates transitions. Create must not fail and must not have side effects.
type Factory interface {
	Create(Params) PatchTransition
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(Params) PatchTransition

// Create calls f(p).
func (f FactoryFunc) Create(p Params) PatchTransition {
	return f(p)
}

// Apply patches cfg through a view limited to the fragments t requires.
// A nil sink discards events.
func Apply(ctx context.Context, t PatchTransition, cfg *domain.Configuration, sink domain.EventHandler) (*domain.Configuration, error) {
	if sink == nil {
		sink = domain.DiscardEvents
	}
	return t.Patch(ctx, domain.NewView(cfg, t.RequiresFragments()...), sink)
}

// IsNoop reports whether t declares up front that it returns its input
// unchanged. Transitions opt in by implementing Noop() bool.
func IsNoop(t PatchTransition) bool {
	n, ok := t.(interface{ Noop() bool })
	return ok && n.Noop()
}
