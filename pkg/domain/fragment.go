package domain

import (
	"fmt"
	"slices"

	"github.com/tiendc/go-deepcopy"
)

// FragmentKind names a group of options inside a Configuration.
type FragmentKind string

const (
	KindCore     FragmentKind = "core"     // Execution mode, naming and dynamic-transition bookkeeping
	KindPlatform FragmentKind = "platform" // Target platforms
)

// Option names. They double as field names in diffs, documents and flags.
const (
	OptionIsExec                      = "is_exec"
	OptionPlatformSuffix              = "platform_suffix"
	OptionAffectedByDynamicTransition = "affected_by_dynamic_transition"
	OptionExecDistinguisher           = "experimental_exec_configuration_distinguisher"
	OptionPlatforms                   = "platforms"
)

// Field is a single named option exposed by a fragment.
type Field struct {
	Name  string
	Value any
	// Unordered marks list values whose element order carries no meaning.
	Unordered bool
}

// Fragment is an immutable group of options. Only this package implements it.
type Fragment interface {
	Kind() FragmentKind
	// Fields lists the options in declaration order.
	Fields() []Field
	clone() Fragment
}

// CoreFragment carries the options every configuration has.
type CoreFragment struct {
	// IsExec marks configurations used to run build actions.
	IsExec bool `json:"is_exec" yaml:"is_exec" mapstructure:"is_exec"`

	// PlatformSuffix is a short, human readable tag that keeps output paths apart.
	PlatformSuffix string `json:"platform_suffix" yaml:"platform_suffix" mapstructure:"platform_suffix"`

	// AffectedByDynamicTransition names options changed by in-graph transitions.
	// It is a set: order is irrelevant and it is kept sorted once published.
	AffectedByDynamicTransition []string `json:"affected_by_dynamic_transition" yaml:"affected_by_dynamic_transition" mapstructure:"affected_by_dynamic_transition"`

	// Distinguisher selects how the execution transition names its output.
	Distinguisher DistinguisherMode `json:"experimental_exec_configuration_distinguisher" yaml:"experimental_exec_configuration_distinguisher" mapstructure:"experimental_exec_configuration_distinguisher"`
}

func (CoreFragment) Kind() FragmentKind { return KindCore }

func (f CoreFragment) Fields() []Field {
	return []Field{
		{Name: OptionIsExec, Value: f.IsExec},
		{Name: OptionPlatformSuffix, Value: f.PlatformSuffix},
		{Name: OptionAffectedByDynamicTransition, Value: f.AffectedByDynamicTransition, Unordered: true},
		{Name: OptionExecDistinguisher, Value: f.Distinguisher},
	}
}

func (f CoreFragment) clone() Fragment {
	var out CoreFragment
	mustCopy(&out, &f)
	out.AffectedByDynamicTransition = canonicalSet(out.AffectedByDynamicTransition)
	return out
}

// PlatformFragment carries the target platforms. Order matters.
type PlatformFragment struct {
	Platforms []Label `json:"platforms" yaml:"platforms" mapstructure:"platforms"`
}

func (PlatformFragment) Kind() FragmentKind { return KindPlatform }

func (f PlatformFragment) Fields() []Field {
	return []Field{
		{Name: OptionPlatforms, Value: f.Platforms},
	}
}

func (f PlatformFragment) clone() Fragment {
	var out PlatformFragment
	mustCopy(&out, &f)
	return out
}

// FragmentKinds lists the kinds this package can model.
func FragmentKinds() []FragmentKind {
	return []FragmentKind{KindCore, KindPlatform}
}

func mustCopy(dst, src any) {
	if err := deepcopy.Copy(dst, src); err != nil {
		panic(fmt.Sprintf("domain: clone fragment: %v", err))
	}
}

// canonicalSet sorts and de-duplicates names. Empty sets become nil so that
// "no entries" has exactly one representation.
func canonicalSet(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := slices.Clone(names)
	slices.Sort(out)
	return slices.Compact(out)
}
