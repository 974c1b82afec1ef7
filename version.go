package transit

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the release of this module, without surrounding whitespace.
var Version = strings.TrimSpace(version)
