package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/transit/pkg/domain"
)

// Step is one application of a transition.
type Step struct {
	Transition string
	Input      *domain.Configuration
	Output     *domain.Configuration
}

// GraphOverlay marks configurations to highlight, by checksum.
type GraphOverlay struct {
	Highlight []string
}

// GenerateMermaid produces a Mermaid flowchart of configurations linked by
// the transitions between them. Each configuration appears once, keyed by
// checksum. Shapes:
// - Execution configuration: [[Subroutine]]
// - Input of the first step: ((Circle))
// - Default: [Rectangle]
// Edges carry the distinguisher mode of their input; no-op steps are dotted.
func GenerateMermaid(steps []Step, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	seen := make(map[string]bool)
	node := func(cfg *domain.Configuration, root bool) string {
		id := nodeID(cfg)
		if seen[id] {
			return id
		}
		seen[id] = true

		core, _ := cfg.Core()
		opener, closer := "[", "]"
		switch {
		case core.IsExec:
			opener, closer = "[[", "]]"
		case root:
			opener, closer = "((", "))"
		}

		label := cfg.Checksum()
		if core.PlatformSuffix != "" {
			label = fmt.Sprintf("%s <br/> %s", label, escape(core.PlatformSuffix))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)
		return id
	}

	for i, step := range steps {
		from := node(step.Input, i == 0)
		to := node(step.Output, false)

		if step.Input == step.Output {
			fmt.Fprintf(&sb, "    %s -. \"%s (noop)\" .-> %s\n", from, escape(step.Transition), to)
			continue
		}
		mode := domain.DistinguisherLegacy
		if core, ok := step.Input.Core(); ok {
			mode = core.Distinguisher
		}
		fmt.Fprintf(&sb, "    %s -- \"%s <br/> %s\" --> %s\n", from, escape(step.Transition), mode, to)
	}

	if overlay != nil && len(overlay.Highlight) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		styled := make(map[string]bool)
		for _, sum := range overlay.Highlight {
			id := "c" + sum
			if seen[id] && !styled[id] {
				styled[id] = true
				fmt.Fprintf(&sb, "    class %s current;\n", id)
			}
		}
	}

	return sb.String()
}

func nodeID(cfg *domain.Configuration) string {
	return "c" + cfg.Checksum()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
