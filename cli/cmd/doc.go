// Package cmd implements the aexpr subcommands: eval, check, init, and
// repl. Every command that parses expressions shares [Options], which map
// one to one onto the interpreter options of package lang and carry the
// variables bound with --var and --vars.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file.
	ConfigIdentifier = "config"

	// ConfigVersionKey is the configuration file key recording the version
	// that wrote it.
	ConfigVersionKey = "config-version"
)
