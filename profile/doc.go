// Package profile wraps [github.com/pkg/profile] so the aexpr command can
// record runtime profiles of expression parsing and evaluation.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	aexpr --pprof-mode=cpu 'Enumerable.Range(0, 100000).Sum()'
//
// Without the tag [Modes] is empty and [Profiler.Start] returns a no-op.
// Profiles are written beneath [Profiler.Path], named after the mode
// (cpu.pprof, mem.pprof, and so on), for analysis with go tool pprof.
package profile

// Tag is the build tag required to enable profiling.
const Tag = `pprof`
