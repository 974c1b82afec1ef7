package domain

import (
	"bytes"
	"slices"
)

// Diff returns the sorted names of options whose value differs between
// before and after. If before is nil, every option of after is reported
// (initial load). A fragment present on only one side contributes all of its
// options.
//
// Values are compared by canonical encoding: reassigning an equal value is
// not a change, and fragment identity plays no part.
func Diff(before, after *Configuration) []string {
	if after == nil {
		return nil
	}

	changed := make(map[string]struct{})

	for kind, newFrag := range after.fragments {
		var oldFrag Fragment
		if before != nil {
			oldFrag = before.fragments[kind]
		}
		diffFragment(changed, oldFrag, newFrag)
	}

	// Fragments dropped by after
	if before != nil {
		for kind, oldFrag := range before.fragments {
			if _, ok := after.fragments[kind]; !ok {
				for _, f := range oldFrag.Fields() {
					changed[f.Name] = struct{}{}
				}
			}
		}
	}

	if len(changed) == 0 {
		return nil
	}
	names := make([]string, 0, len(changed))
	for name := range changed {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func diffFragment(changed map[string]struct{}, oldFrag, newFrag Fragment) {
	if oldFrag == nil {
		for _, f := range newFrag.Fields() {
			changed[f.Name] = struct{}{}
		}
		return
	}

	oldFields := make(map[string][]byte)
	for _, f := range oldFrag.Fields() {
		oldFields[f.Name] = encodeField(f)
	}

	// Added or modified
	for _, f := range newFrag.Fields() {
		oldVal, exists := oldFields[f.Name]
		if !exists || !bytes.Equal(oldVal, encodeField(f)) {
			changed[f.Name] = struct{}{}
		}
		delete(oldFields, f.Name)
	}

	// Deleted
	for name := range oldFields {
		changed[name] = struct{}{}
	}
}
