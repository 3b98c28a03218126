// Package pkg holds the identity of the aexpr module: its name, summary,
// and release version.
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of the module, read from the VERSION file
// at build time.
var Version = strings.TrimSpace(version)

const (
	// Name is the command name. It appears in help text and names the
	// per-user config and cache directories.
	Name = "aexpr"
	// Description is the one-line summary shown in help output.
	Description = "Evaluate C# expressions against typed variables"
)
