package domain

// Label identifies a platform, e.g. "//platform:exec".
// Parsing and canonicalization belong to the label package of the host build
// tool; here a label is already in canonical form.
type Label string

// Canonical returns the canonical textual form of the label.
func (l Label) Canonical() string {
	return string(l)
}

func (l Label) String() string {
	return string(l)
}

// Labels converts plain strings into labels.
func Labels(values ...string) []Label {
	if len(values) == 0 {
		return nil
	}
	out := make([]Label, len(values))
	for i, v := range values {
		out[i] = Label(v)
	}
	return out
}
