package domain

import (
	"fmt"
	"strings"
)

// DistinguisherMode selects how the execution transition names the
// configuration it produces.
type DistinguisherMode int

const (
	// DistinguisherLegacy tags the configuration with a hash of the execution platform only.
	DistinguisherLegacy DistinguisherMode = iota
	// DistinguisherFullHash tags the configuration with a hash of every option it holds.
	DistinguisherFullHash
	// DistinguisherDiffToAffected uses the fixed "exec" tag and records the changed options explicitly.
	DistinguisherDiffToAffected
	// DistinguisherOff keeps the incoming tag untouched.
	DistinguisherOff

	distinguisherModeCount
)

// Exactly four modes exist. Adding one breaks this line on purpose; update
// every exhaustive switch over DistinguisherMode before adjusting it.
var _ = [1]struct{}{}[distinguisherModeCount-4]

var distinguisherNames = [distinguisherModeCount]string{
	DistinguisherLegacy:         "legacy",
	DistinguisherFullHash:       "full_hash",
	DistinguisherDiffToAffected: "diff_to_affected",
	DistinguisherOff:            "off",
}

// DistinguisherModes lists every recognised mode in declaration order.
func DistinguisherModes() []DistinguisherMode {
	modes := make([]DistinguisherMode, 0, distinguisherModeCount)
	for m := DistinguisherMode(0); m < distinguisherModeCount; m++ {
		modes = append(modes, m)
	}
	return modes
}

// ParseDistinguisherMode converts the textual form of a mode. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseDistinguisherMode(s string) (DistinguisherMode, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for m, name := range distinguisherNames {
		if name == want {
			return DistinguisherMode(m), nil
		}
	}
	return DistinguisherLegacy, &ModeError{Value: s}
}

// Valid reports whether m is one of the recognised modes.
func (m DistinguisherMode) Valid() bool {
	return m >= 0 && m < distinguisherModeCount
}

func (m DistinguisherMode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("DistinguisherMode(%d)", int(m))
	}
	return distinguisherNames[m]
}

// Set implements pflag.Value.
func (m *DistinguisherMode) Set(s string) error {
	parsed, err := ParseDistinguisherMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Type implements pflag.Value.
func (m DistinguisherMode) Type() string {
	return "distinguisher"
}

// MarshalText implements encoding.TextMarshaler.
func (m DistinguisherMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, &ModeError{Value: m.String()}
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *DistinguisherMode) UnmarshalText(text []byte) error {
	return m.Set(string(text))
}

func modeList() string {
	return strings.Join(distinguisherNames[:], ", ")
}
