/*
Package domain contains the core configuration model of the transit engine.

It defines immutable configuration values built from fragments, the canonical
hashing used to fingerprint them, and the structural diff used to explain how
two configurations differ. This package is kept pure: it performs no I/O and
holds no global mutable state, so every value in it can be shared freely
between goroutines.

# Key Entities

  - Configuration: an immutable snapshot of build settings, keyed by fragment kind.
  - Fragment: a typed group of options (CoreFragment, PlatformFragment).
  - Builder: a clone-on-write working copy used to derive new configurations.
  - View: a configuration restricted to the fragments a transition declared.
  - DistinguisherMode: the strategy that names execution configurations.

# Identity

A *Configuration is never modified after it is built. Code that derives a new
configuration goes through a Builder, and code that decides nothing needs to
change returns the very same pointer it received. Callers rely on pointer
equality to detect "nothing changed" without hashing.
*/
package domain
