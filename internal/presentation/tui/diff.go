package tui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/transit/pkg/domain"
	"github.com/muesli/termenv"
)

// Change is one option whose value differs between two configurations.
type Change struct {
	Fragment string
	Option   string
	Before   string
	After    string
}

// Changes lists the options that differ between before and after, ordered
// by option name. Values of an absent fragment render as "<unset>".
func Changes(before, after *domain.Configuration) []Change {
	names := domain.Diff(before, after)
	if len(names) == 0 {
		return nil
	}
	old, cur := values(before), values(after)

	changes := make([]Change, 0, len(names))
	for _, name := range names {
		c := Change{Option: name, Before: "<unset>", After: "<unset>"}
		if v, ok := old[name]; ok {
			c.Fragment, c.Before = v.fragment, v.text
		}
		if v, ok := cur[name]; ok {
			c.Fragment, c.After = v.fragment, v.text
		}
		changes = append(changes, c)
	}
	return changes
}

type value struct {
	fragment string
	text     string
}

func values(cfg *domain.Configuration) map[string]value {
	out := make(map[string]value)
	if cfg == nil {
		return out
	}
	doc := cfg.ToDocument()
	for _, kind := range slices.Sorted(maps.Keys(doc)) {
		for name, v := range doc[kind] {
			out[name] = value{fragment: kind, text: formatValue(v)}
		}
	}
	return out
}

func formatValue(v any) string {
	switch v := v.(type) {
	case []string:
		return "[" + strings.Join(v, ", ") + "]"
	case string:
		if v == "" {
			return `""`
		}
		return v
	}
	return fmt.Sprint(v)
}

// DiffReport renders the changes between before and after, one option per
// line, coloured for profile. termenv.Ascii yields plain text.
func DiffReport(before, after *domain.Configuration, profile termenv.Profile) string {
	changes := Changes(before, after)
	if len(changes) == 0 {
		return "no changes\n"
	}

	var sb strings.Builder
	for _, c := range changes {
		name := profile.String(c.Fragment + "." + c.Option).Bold()
		was := profile.String(c.Before).Foreground(profile.Color("#fb7185"))
		now := profile.String(c.After).Foreground(profile.Color("#4ade80"))
		fmt.Fprintf(&sb, "%s: %s -> %s\n", name, was, now)
	}
	return sb.String()
}
