// Package cli contains the command line interface for aexpr.
//
// # Usage
//
// Without a command name, the arguments are evaluated as an expression:
//
//	aexpr '2 * (x + 1)' --var x=20
//	aexpr eval --source expr.cs --vars params.yaml --output json
//	aexpr check 'names.Where(n => n.Length > 3)' --vars params.yaml
//	aexpr repl
//	aexpr init
//
// # Configuration
//
// Flags may also be set in a YAML file at $XDG_CONFIG_HOME/aexpr/config.yaml,
// keyed by flag name. Nested keys join with a hyphen, and underscores stand
// for hyphens, so the following are equivalent:
//
//	log-level: debug
//	log_level: debug
//	log:
//	  level: debug
//
// Map flags take a mapping and slice flags a sequence. Command-line flags
// override the file. The init command writes the flags in effect to this
// path, stamped with the writing version under config-version; a file from
// another major version or a newer release is still read, with a warning.
//
// A flat JSON file of the same name (config.json) is read after the YAML
// file, for flags the YAML file leaves unset.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, none, ...)
//   - --log-caller: Include caller information in log output
//   - --[no-]log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default
//     $XDG_CACHE_HOME/aexpr/pprof)
package cli
