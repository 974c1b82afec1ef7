package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/transit/pkg/domain"
)

var modeNotes = map[domain.DistinguisherMode]string{
	domain.DistinguisherLegacy:         "The suffix is a hash of the execution platform label alone.",
	domain.DistinguisherFullHash:       "The suffix is a hash of every option of the result, computed with the suffix cleared.",
	domain.DistinguisherDiffToAffected: "The suffix is the fixed tag `exec`; the options that changed are recorded in `affected_by_dynamic_transition`.",
	domain.DistinguisherOff:            "The suffix of the input is kept as is.",
}

// Explain describes in markdown how transition turned input into output.
func Explain(transition string, input, output *domain.Configuration) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", transition)

	if input == output {
		sb.WriteString("No execution platform is known, so the configuration is returned unchanged.\n")
		return sb.String()
	}

	mode := domain.DistinguisherLegacy
	if core, ok := input.Core(); ok {
		mode = core.Distinguisher
	}
	fmt.Fprintf(&sb, "Distinguisher: **%s**. %s\n\n", mode, modeNotes[mode])
	fmt.Fprintf(&sb, "| | checksum |\n|---|---|\n| input | `%s` |\n| output | `%s` |\n\n", input.Checksum(), output.Checksum())

	sb.WriteString("## Changed options\n\n")
	changes := Changes(input, output)
	if len(changes) == 0 {
		sb.WriteString("None.\n")
		return sb.String()
	}
	sb.WriteString("| option | before | after |\n|---|---|---|\n")
	for _, c := range changes {
		fmt.Fprintf(&sb, "| %s.%s | `%s` | `%s` |\n", c.Fragment, c.Option, c.Before, c.After)
	}
	return sb.String()
}
