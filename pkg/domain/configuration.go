package domain

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Configuration is an immutable snapshot of build options, keyed by fragment
// kind. Equality and hashing follow the option values, never identity.
//
// Values are safe for concurrent use: nothing mutates a Configuration after
// it has been built. Accessors hand out copies.
type Configuration struct {
	fragments map[FragmentKind]Fragment
	hash      uint64
}

// New builds a configuration from fragments. A later fragment replaces an
// earlier one of the same kind.
func New(fragments ...Fragment) *Configuration {
	b := NewBuilder()
	for _, f := range fragments {
		b.Put(f)
	}
	return b.Build()
}

func newConfiguration(fragments map[FragmentKind]Fragment) *Configuration {
	return &Configuration{
		fragments: fragments,
		hash:      hashFragments(fragments),
	}
}

// Fragment returns a copy of the fragment of the given kind.
func (c *Configuration) Fragment(kind FragmentKind) (Fragment, bool) {
	f, ok := c.fragments[kind]
	if !ok {
		return nil, false
	}
	return f.clone(), true
}

// Core returns a copy of the core fragment.
func (c *Configuration) Core() (CoreFragment, bool) {
	return fragmentAs[CoreFragment](c.fragments, KindCore)
}

// Platform returns a copy of the platform fragment.
func (c *Configuration) Platform() (PlatformFragment, bool) {
	return fragmentAs[PlatformFragment](c.fragments, KindPlatform)
}

// Has reports whether the configuration holds a fragment of the given kind.
func (c *Configuration) Has(kind FragmentKind) bool {
	_, ok := c.fragments[kind]
	return ok
}

// Kinds lists the fragment kinds held, sorted.
func (c *Configuration) Kinds() []FragmentKind {
	return sortedKinds(c.fragments)
}

// Equal reports structural equality. Two nil configurations are equal.
func (c *Configuration) Equal(other *Configuration) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c == other {
		return true
	}
	if c.hash != other.hash || len(c.fragments) != len(other.fragments) {
		return false
	}
	for kind, f := range c.fragments {
		g, ok := other.fragments[kind]
		if !ok {
			return false
		}
		if !fieldsEqual(f.Fields(), g.Fields()) {
			return false
		}
	}
	return true
}

// Hash returns the deterministic 64-bit fingerprint of the option values.
func (c *Configuration) Hash() uint64 {
	return c.hash
}

// Checksum returns Hash rendered as uppercase hexadecimal.
func (c *Configuration) Checksum() string {
	return FormatHash(c.hash)
}

// ToBuilder returns a working copy seeded with this configuration's fragments.
func (c *Configuration) ToBuilder() *Builder {
	b := NewBuilder()
	for _, f := range c.fragments {
		b.Put(f)
	}
	return b
}

// With returns a new configuration with the given fragments replacing their kinds.
func (c *Configuration) With(fragments ...Fragment) *Configuration {
	b := c.ToBuilder()
	for _, f := range fragments {
		b.Put(f)
	}
	return b.Build()
}

func (c *Configuration) String() string {
	if c == nil {
		return "<nil>"
	}
	var sb strings.Builder
	for i, kind := range c.Kinds() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(string(kind))
		sb.WriteByte('{')
		for j, f := range c.fragments[kind].Fields() {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", f.Name, f.Value)
		}
		sb.WriteByte('}')
	}
	return sb.String()
}

// Builder is a clone-on-write working copy of a configuration. It is not safe
// for concurrent use; the configurations it builds are.
type Builder struct {
	fragments map[FragmentKind]Fragment
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{fragments: make(map[FragmentKind]Fragment)}
}

// Put stores a copy of f, replacing any fragment of the same kind.
func (b *Builder) Put(f Fragment) *Builder {
	b.fragments[f.Kind()] = f.clone()
	return b
}

// Remove drops the fragment of the given kind.
func (b *Builder) Remove(kind FragmentKind) *Builder {
	delete(b.fragments, kind)
	return b
}

// Core returns a copy of the core fragment being built.
func (b *Builder) Core() (CoreFragment, bool) {
	return fragmentAs[CoreFragment](b.fragments, KindCore)
}

// Platform returns a copy of the platform fragment being built.
func (b *Builder) Platform() (PlatformFragment, bool) {
	return fragmentAs[PlatformFragment](b.fragments, KindPlatform)
}

// Build publishes the current state as a new Configuration. The builder can
// keep being used; later edits never reach configurations already built.
func (b *Builder) Build() *Configuration {
	fragments := make(map[FragmentKind]Fragment, len(b.fragments))
	for kind, f := range b.fragments {
		fragments[kind] = f.clone()
	}
	return newConfiguration(fragments)
}

// View restricts a configuration to the fragment kinds a transition declared.
type View struct {
	cfg     *Configuration
	allowed map[FragmentKind]struct{}
}

// NewView wraps cfg, allowing access to the given kinds only.
func NewView(cfg *Configuration, kinds ...FragmentKind) *View {
	allowed := make(map[FragmentKind]struct{}, len(kinds))
	for _, k := range kinds {
		allowed[k] = struct{}{}
	}
	return &View{cfg: cfg, allowed: allowed}
}

// Underlying returns the wrapped configuration itself, not a copy.
func (v *View) Underlying() *Configuration {
	return v.cfg
}

// Allowed lists the declared kinds, sorted.
func (v *View) Allowed() []FragmentKind {
	return slices.Sorted(maps.Keys(v.allowed))
}

// Fragment returns a copy of the fragment of the given kind. Asking for a
// kind the view does not allow is a programming error and panics.
func (v *View) Fragment(kind FragmentKind) (Fragment, bool) {
	v.check(kind)
	return v.cfg.Fragment(kind)
}

// Core returns a copy of the core fragment. Panics if core is not allowed.
func (v *View) Core() (CoreFragment, bool) {
	v.check(KindCore)
	return v.cfg.Core()
}

// Platform returns a copy of the platform fragment. Panics if platform is not allowed.
func (v *View) Platform() (PlatformFragment, bool) {
	v.check(KindPlatform)
	return v.cfg.Platform()
}

func (v *View) check(kind FragmentKind) {
	if _, ok := v.allowed[kind]; !ok {
		panic(fmt.Sprintf("domain: fragment %q accessed through a view that allows only %v", kind, v.Allowed()))
	}
}

func fragmentAs[F Fragment](fragments map[FragmentKind]Fragment, kind FragmentKind) (F, bool) {
	var zero F
	f, ok := fragments[kind]
	if !ok {
		return zero, false
	}
	typed, ok := f.clone().(F)
	if !ok {
		return zero, false
	}
	return typed, true
}

func fieldsEqual(a, b []Field) bool {
	if len(a) != len(b) {
		return false
	}
	byName := make(map[string]Field, len(b))
	for _, f := range b {
		byName[f.Name] = f
	}
	for _, f := range a {
		g, ok := byName[f.Name]
		if !ok || !bytes.Equal(encodeField(f), encodeField(g)) {
			return false
		}
	}
	return true
}
