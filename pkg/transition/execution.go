package transition

import (
	"context"
	"fmt"

	"github.com/aretw0/transit/pkg/domain"
)

// Name is the String form of an execution transition without a platform.
const Name = "exec"

// NewExecutionFactory returns the factory for execution transitions.
func NewExecutionFactory() Factory {
	return FactoryFunc(newExecution)
}

type execution struct {
	platform *domain.Label
}

func newExecution(p Params) PatchTransition {
	t := &execution{}
	if p.ExecutionPlatform != nil {
		platform := *p.ExecutionPlatform
		t.platform = &platform
	}
	return t
}

func (t *execution) RequiresFragments() []domain.FragmentKind {
	return []domain.FragmentKind{domain.KindCore, domain.KindPlatform}
}

// Noop reports whether no execution platform is known.
func (t *execution) Noop() bool {
	return t.platform == nil
}

func (t *execution) String() string {
	if t.platform == nil {
		return Name
	}
	return fmt.Sprintf("%s(%s)", Name, t.platform.Canonical())
}

// Patch marks the configuration as an execution configuration targeting the
// execution platform and names it with the distinguisher the input selects.
// Without an execution platform the input is returned as is.
func (t *execution) Patch(ctx context.Context, view *domain.View, sink domain.EventHandler) (*domain.Configuration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	input := view.Underlying()
	if t.platform == nil {
		return input, nil
	}

	core, ok := view.Core()
	if !ok {
		return nil, &domain.FragmentError{Kind: domain.KindCore, Err: domain.ErrMissingFragment}
	}
	if _, ok := view.Platform(); !ok {
		return nil, &domain.FragmentError{Kind: domain.KindPlatform, Err: domain.ErrMissingFragment}
	}

	working := input.ToBuilder()
	core.IsExec = true
	working.Put(core)
	working.Put(domain.PlatformFragment{Platforms: []domain.Label{*t.platform}})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d := distinguisherFor(core.Distinguisher)
	suffix, affected := d.distinguish(&patchState{
		platform: *t.platform,
		input:    input,
		working:  working,
		core:     core,
	})

	core.PlatformSuffix = suffix
	core.AffectedByDynamicTransition = affected
	working.Put(core)
	return working.Build(), nil
}
