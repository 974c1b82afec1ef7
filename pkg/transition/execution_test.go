package transition_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/transit/pkg/adapters/memory"
	"github.com/aretw0/transit/pkg/domain"
	"github.com/aretw0/transit/pkg/options"
	"github.com/aretw0/transit/pkg/transition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const executionPlatform domain.Label = "//platform:exec"

func execTransition(platform *domain.Label) transition.PatchTransition {
	return transition.NewExecutionFactory().Create(transition.Params{
		Attributes:        transition.EmptyAttributes(),
		ExecutionPlatform: platform,
	})
}

func targetOptions(t *testing.T, extra ...string) *domain.Configuration {
	t.Helper()
	args := append([]string{"--platforms=//platform:target"}, extra...)
	cfg, err := options.Parse([]domain.FragmentKind{domain.KindCore, domain.KindPlatform}, args...)
	require.NoError(t, err)
	return cfg
}

func patch(t *testing.T, tr transition.PatchTransition, cfg *domain.Configuration) (*domain.Configuration, *memory.EventStore) {
	t.Helper()
	events := memory.NewEventStore()
	result, err := tr.Patch(context.Background(), domain.NewView(cfg, tr.RequiresFragments()...), events)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result, events
}

func TestExecutionTransition(t *testing.T) {
	platform := executionPlatform
	tr := execTransition(&platform)
	require.NotNil(t, tr)

	input := targetOptions(t)
	result, _ := patch(t, tr, input)

	assert.NotSame(t, input, result)
	require.True(t, result.Has(domain.KindCore))
	require.True(t, result.Has(domain.KindPlatform))

	core, _ := result.Core()
	assert.True(t, core.IsExec)
	p, _ := result.Platform()
	assert.Equal(t, []domain.Label{executionPlatform}, p.Platforms)

	inputCore, _ := input.Core()
	assert.False(t, inputCore.IsExec, "input must not be modified")
	inputPlatform, _ := input.Platform()
	assert.Equal(t, domain.Labels("//platform:target"), inputPlatform.Platforms)
}

func TestExecutionTransition_NoExecPlatform(t *testing.T) {
	tr := execTransition(nil)
	require.NotNil(t, tr)

	for _, mode := range domain.DistinguisherModes() {
		t.Run(mode.String(), func(t *testing.T) {
			input := targetOptions(t, "--experimental_exec_configuration_distinguisher="+mode.String())
			result, events := patch(t, tr, input)
			assert.Same(t, input, result)
			assert.Empty(t, events.Events())
		})
	}
}

func TestExecutionTransition_Distinguishers(t *testing.T) {
	platform := executionPlatform
	tr := execTransition(&platform)

	t.Run("legacy", func(t *testing.T) {
		result, _ := patch(t, tr, targetOptions(t, "--experimental_exec_configuration_distinguisher=legacy"))
		core, _ := result.Core()
		assert.Empty(t, core.AffectedByDynamicTransition)
		assert.Contains(t, core.PlatformSuffix, domain.FormatHash(domain.HashString("//platform:exec")))
		assert.Equal(t, domain.FormatHash(domain.HashString(executionPlatform.Canonical())), core.PlatformSuffix)
	})

	t.Run("full_hash", func(t *testing.T) {
		result, _ := patch(t, tr, targetOptions(t, "--experimental_exec_configuration_distinguisher=full_hash"))
		core, _ := result.Core()
		assert.Empty(t, core.AffectedByDynamicTransition)

		cleared := core
		cleared.PlatformSuffix = ""
		fullHash := result.With(cleared).Hash()
		assert.Equal(t, domain.FormatHash(fullHash), core.PlatformSuffix)
	})

	t.Run("diff_to_affected", func(t *testing.T) {
		result, _ := patch(t, tr, targetOptions(t, "--experimental_exec_configuration_distinguisher=diff_to_affected"))
		core, _ := result.Core()
		assert.NotEmpty(t, core.AffectedByDynamicTransition)
		assert.Equal(t, "exec", core.PlatformSuffix)
		assert.Equal(t, []string{
			domain.OptionIsExec,
			domain.OptionPlatformSuffix,
			domain.OptionPlatforms,
		}, core.AffectedByDynamicTransition)
	})

	t.Run("off", func(t *testing.T) {
		input := targetOptions(t, "--experimental_exec_configuration_distinguisher=off", "--platform_suffix=myconfig")
		result, _ := patch(t, tr, input)
		core, _ := result.Core()
		assert.Empty(t, core.AffectedByDynamicTransition)
		inputCore, _ := input.Core()
		assert.Equal(t, inputCore.PlatformSuffix, core.PlatformSuffix)
		assert.Equal(t, "myconfig", core.PlatformSuffix)
	})
}

func TestExecutionTransition_DiffIgnoresUnchangedSuffix(t *testing.T) {
	platform := executionPlatform
	tr := execTransition(&platform)

	input := targetOptions(t,
		"--experimental_exec_configuration_distinguisher=diff_to_affected",
		"--platform_suffix=exec",
	)
	result, _ := patch(t, tr, input)
	core, _ := result.Core()
	assert.Equal(t, []string{domain.OptionIsExec, domain.OptionPlatforms}, core.AffectedByDynamicTransition)
}

func TestExecutionTransition_DiffReplacesPriorAffectedSet(t *testing.T) {
	platform := executionPlatform
	tr := execTransition(&platform)

	input := targetOptions(t,
		"--experimental_exec_configuration_distinguisher=diff_to_affected",
		"--affected_by_dynamic_transition=copt",
	)
	result, _ := patch(t, tr, input)
	core, _ := result.Core()
	assert.NotContains(t, core.AffectedByDynamicTransition, "copt")
	assert.NotContains(t, core.AffectedByDynamicTransition, domain.OptionAffectedByDynamicTransition)
}

func TestExecutionTransition_ClearsAffectedSet(t *testing.T) {
	platform := executionPlatform
	tr := execTransition(&platform)

	for _, mode := range []domain.DistinguisherMode{domain.DistinguisherLegacy, domain.DistinguisherFullHash, domain.DistinguisherOff} {
		t.Run(mode.String(), func(t *testing.T) {
			input := targetOptions(t,
				"--experimental_exec_configuration_distinguisher="+mode.String(),
				"--affected_by_dynamic_transition=copt",
			)
			result, _ := patch(t, tr, input)
			core, _ := result.Core()
			assert.Empty(t, core.AffectedByDynamicTransition)
		})
	}
}

func TestExecutionTransition_Idempotent(t *testing.T) {
	platform := executionPlatform
	for _, mode := range domain.DistinguisherModes() {
		t.Run(mode.String(), func(t *testing.T) {
			flag := "--experimental_exec_configuration_distinguisher=" + mode.String()
			first, _ := patch(t, execTransition(&platform), targetOptions(t, flag))
			second, _ := patch(t, execTransition(&platform), targetOptions(t, flag))

			assert.NotSame(t, first, second)
			assert.True(t, first.Equal(second))
			assert.Equal(t, first.Checksum(), second.Checksum())
		})
	}
}

func TestExecutionTransition_KeepsDistinguisherAndOtherFragments(t *testing.T) {
	platform := executionPlatform
	tr := execTransition(&platform)

	result, _ := patch(t, tr, targetOptions(t, "--experimental_exec_configuration_distinguisher=full_hash"))
	core, _ := result.Core()
	assert.Equal(t, domain.DistinguisherFullHash, core.Distinguisher)
}

func TestExecutionTransition_FullHashIgnoresRewrittenFields(t *testing.T) {
	platform := executionPlatform
	tr := execTransition(&platform)
	flag := "--experimental_exec_configuration_distinguisher=full_hash"

	a, _ := patch(t, tr, targetOptions(t, flag, "--platform_suffix=a"))
	b, _ := patch(t, tr, targetOptions(t, flag, "--platform_suffix=b", "--affected_by_dynamic_transition=copt"))
	coreA, _ := a.Core()
	coreB, _ := b.Core()
	// Suffix and affected set are rewritten, so both inputs collapse to the same output.
	assert.Equal(t, coreA.PlatformSuffix, coreB.PlatformSuffix)

	legacy, _ := patch(t, tr, targetOptions(t))
	coreLegacy, _ := legacy.Core()
	assert.NotEqual(t, coreLegacy.PlatformSuffix, coreA.PlatformSuffix)
}

func TestExecutionTransition_PlatformCapturedByValue(t *testing.T) {
	platform := executionPlatform
	tr := execTransition(&platform)
	platform = "//platform:other"

	result, _ := patch(t, tr, targetOptions(t))
	p, _ := result.Platform()
	assert.Equal(t, []domain.Label{executionPlatform}, p.Platforms)
	assert.Equal(t, "exec(//platform:exec)", tr.String())
	assert.Equal(t, "exec", execTransition(nil).String())
}

func TestExecutionTransition_RequiresFragments(t *testing.T) {
	assert.ElementsMatch(t,
		[]domain.FragmentKind{domain.KindCore, domain.KindPlatform},
		execTransition(nil).RequiresFragments(),
	)
}

func TestExecutionTransition_Cancellation(t *testing.T) {
	platform := executionPlatform
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, tr := range []transition.PatchTransition{execTransition(&platform), execTransition(nil)} {
		t.Run(tr.String(), func(t *testing.T) {
			input := targetOptions(t)
			result, err := tr.Patch(ctx, domain.NewView(input, tr.RequiresFragments()...), domain.DiscardEvents)
			assert.ErrorIs(t, err, context.Canceled)
			assert.Nil(t, result)
		})
	}
}

func TestExecutionTransition_MissingFragment(t *testing.T) {
	platform := executionPlatform
	tr := execTransition(&platform)

	t.Run("Core", func(t *testing.T) {
		input := domain.New(domain.PlatformFragment{Platforms: domain.Labels("//platform:target")})
		_, err := transition.Apply(context.Background(), tr, input, nil)
		assert.ErrorIs(t, err, domain.ErrMissingFragment)
		var fragErr *domain.FragmentError
		require.ErrorAs(t, err, &fragErr)
		assert.Equal(t, domain.KindCore, fragErr.Kind)
	})

	t.Run("Platform", func(t *testing.T) {
		input := domain.New(domain.CoreFragment{})
		_, err := transition.Apply(context.Background(), tr, input, nil)
		var fragErr *domain.FragmentError
		require.ErrorAs(t, err, &fragErr)
		assert.Equal(t, domain.KindPlatform, fragErr.Kind)
	})

	t.Run("Not Needed Without Platform", func(t *testing.T) {
		input := domain.New()
		out, err := transition.Apply(context.Background(), execTransition(nil), input, nil)
		require.NoError(t, err)
		assert.Same(t, input, out)
	})
}

func TestExecutionTransition_Concurrent(t *testing.T) {
	platform := executionPlatform
	tr := execTransition(&platform)
	input := targetOptions(t, "--experimental_exec_configuration_distinguisher=full_hash")
	want, _ := patch(t, tr, input)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := transition.Apply(context.Background(), tr, input, nil)
			if assert.NoError(t, err) {
				assert.Equal(t, want.Checksum(), got.Checksum())
			}
		}()
	}
	wg.Wait()
}

func TestFactoryFunc(t *testing.T) {
	var seen transition.Params
	f := transition.FactoryFunc(func(p transition.Params) transition.PatchTransition {
		seen = p
		return execTransition(nil)
	})
	attrs := transition.MapAttributes(map[string]any{"cfg": "exec", "name": "tool"})
	f.Create(transition.Params{Attributes: attrs})

	v, ok := seen.Attributes.Get("cfg")
	assert.True(t, ok)
	assert.Equal(t, "exec", v)
	assert.Equal(t, []string{"cfg", "name"}, seen.Attributes.Names())
	assert.Empty(t, transition.EmptyAttributes().Names())
}

func TestIsNoop(t *testing.T) {
	platform := executionPlatform
	assert.True(t, transition.IsNoop(execTransition(nil)))
	assert.False(t, transition.IsNoop(execTransition(&platform)))
}
