package transition

import (
	"fmt"
	"slices"

	"github.com/aretw0/transit/pkg/domain"
)

// ExecSuffix is the fixed suffix of the diff_to_affected mode.
const ExecSuffix = "exec"

// patchState is what a distinguisher sees: the input and the working copy
// after is_exec and platforms were set.
type patchState struct {
	platform domain.Label
	input    *domain.Configuration
	working  *domain.Builder
	core     domain.CoreFragment
}

// distinguisher computes the suffix and affected set of an execution
// configuration. Implementations only read patchState.
type distinguisher interface {
	mode() domain.DistinguisherMode
	distinguish(s *patchState) (suffix string, affected []string)
}

type (
	legacyDistinguisher   struct{}
	fullHashDistinguisher struct{}
	diffDistinguisher     struct{}
	offDistinguisher      struct{}
)

func distinguisherFor(mode domain.DistinguisherMode) distinguisher {
	switch mode {
	case domain.DistinguisherLegacy:
		return legacyDistinguisher{}
	case domain.DistinguisherFullHash:
		return fullHashDistinguisher{}
	case domain.DistinguisherDiffToAffected:
		return diffDistinguisher{}
	case domain.DistinguisherOff:
		return offDistinguisher{}
	}
	panic(fmt.Sprintf("transition: no distinguisher for mode %v", mode))
}

func (legacyDistinguisher) mode() domain.DistinguisherMode { return domain.DistinguisherLegacy }

// Hash of the platform label alone.
func (legacyDistinguisher) distinguish(s *patchState) (string, []string) {
	return domain.FormatHash(domain.HashString(s.platform.Canonical())), nil
}

func (fullHashDistinguisher) mode() domain.DistinguisherMode { return domain.DistinguisherFullHash }

// Hash of the whole output with the suffix cleared, so the suffix never
// feeds into itself.
func (fullHashDistinguisher) distinguish(s *patchState) (string, []string) {
	cleared := s.core
	cleared.PlatformSuffix = ""
	cleared.AffectedByDynamicTransition = nil
	return domain.FormatHash(s.working.Build().With(cleared).Hash()), nil
}

func (diffDistinguisher) mode() domain.DistinguisherMode { return domain.DistinguisherDiffToAffected }

// Fixed suffix; the options that differ from the input are recorded instead.
func (diffDistinguisher) distinguish(s *patchState) (string, []string) {
	named := s.core
	named.PlatformSuffix = ExecSuffix
	after := s.working.Build().With(named)

	affected := domain.Diff(s.input, after)
	affected = slices.DeleteFunc(affected, func(name string) bool {
		return name == domain.OptionAffectedByDynamicTransition
	})
	return ExecSuffix, affected
}

func (offDistinguisher) mode() domain.DistinguisherMode { return domain.DistinguisherOff }

// The input suffix is kept verbatim.
func (offDistinguisher) distinguish(s *patchState) (string, []string) {
	core, _ := s.input.Core()
	return core.PlatformSuffix, nil
}
