// Package options turns command-line style flags and configuration documents
// into domain configurations.
//
// Both entry points validate before anything else sees the result: an
// unknown flag, a stray argument or an unrecognised distinguisher mode is
// rejected here, so transitions never observe a half-valid configuration.
package options

import (
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/transit/pkg/domain"
	"github.com/spf13/pflag"
)

// ErrUnexpectedArgument is returned when Parse meets a positional argument.
var ErrUnexpectedArgument = errors.New("unexpected positional argument")

// Defaults returns a configuration holding the zero-valued fragments of the
// given kinds. With no kinds, every known fragment is included.
func Defaults(kinds ...domain.FragmentKind) (*domain.Configuration, error) {
	if len(kinds) == 0 {
		kinds = domain.FragmentKinds()
	}
	b := domain.NewBuilder()
	for _, kind := range kinds {
		switch kind {
		case domain.KindCore:
			b.Put(domain.CoreFragment{})
		case domain.KindPlatform:
			b.Put(domain.PlatformFragment{})
		default:
			return nil, &domain.FragmentError{Kind: kind, Err: domain.ErrUnknownFragment}
		}
	}
	return b.Build(), nil
}

// Parse builds a configuration holding exactly the requested fragments from
// flags such as "--platforms=//platform:target". Options not mentioned keep
// their defaults.
func Parse(kinds []domain.FragmentKind, args ...string) (*domain.Configuration, error) {
	base, err := Defaults(kinds...)
	if err != nil {
		return nil, err
	}
	return Overlay(base, args...)
}

// Overlay applies flags on top of base. Only options of fragments present in
// base are recognised. base is not modified; when no flag is given the
// result is structurally equal to base.
func Overlay(base *domain.Configuration, args ...string) (*domain.Configuration, error) {
	fs := pflag.NewFlagSet("options", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	b := base.ToBuilder()
	core, hasCore := b.Core()
	platform, hasPlatform := b.Platform()

	var mode string
	var platforms []string
	if hasCore {
		registerCore(fs, &core, &mode)
	}
	if hasPlatform {
		platforms = make([]string, len(platform.Platforms))
		for i, l := range platform.Platforms {
			platforms[i] = l.Canonical()
		}
		fs.StringSliceVar(&platforms, domain.OptionPlatforms, platforms, "target platforms, in order")
	}

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse options: %w", err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("parse options: %w %q", ErrUnexpectedArgument, fs.Arg(0))
	}

	if hasCore {
		// pflag flattens Set errors into strings, so the mode is parsed here
		// to keep ErrUnknownDistinguisher visible to errors.Is.
		parsed, err := domain.ParseDistinguisherMode(mode)
		if err != nil {
			return nil, fmt.Errorf("parse options: --%s: %w", domain.OptionExecDistinguisher, err)
		}
		core.Distinguisher = parsed
		b.Put(core)
	}
	if hasPlatform {
		b.Put(domain.PlatformFragment{Platforms: domain.Labels(platforms...)})
	}
	return b.Build(), nil
}

func registerCore(fs *pflag.FlagSet, core *domain.CoreFragment, mode *string) {
	fs.BoolVar(&core.IsExec, domain.OptionIsExec, core.IsExec, "mark the configuration as an execution configuration")
	fs.StringVar(&core.PlatformSuffix, domain.OptionPlatformSuffix, core.PlatformSuffix, "tag that keeps output directories apart")
	fs.StringSliceVar(&core.AffectedByDynamicTransition, domain.OptionAffectedByDynamicTransition, core.AffectedByDynamicTransition,
		"options changed by dynamic transitions")
	*mode = core.Distinguisher.String()
	fs.StringVar(mode, domain.OptionExecDistinguisher, *mode,
		"how execution configurations are named: legacy, full_hash, diff_to_affected or off")
}

// FlagNames lists the flags recognised for the given fragment kinds.
func FlagNames(kinds ...domain.FragmentKind) []string {
	var names []string
	for _, kind := range kinds {
		switch kind {
		case domain.KindCore:
			names = append(names,
				domain.OptionIsExec,
				domain.OptionPlatformSuffix,
				domain.OptionAffectedByDynamicTransition,
				domain.OptionExecDistinguisher,
			)
		case domain.KindPlatform:
			names = append(names, domain.OptionPlatforms)
		}
	}
	return names
}
