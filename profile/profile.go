package profile

// Profiler selects a profiling mode and the directory its output is
// written to.
type Profiler struct {
	Mode  string
	Path  string
	Quiet bool
}

// Option modifies a [Profiler].
type Option func(Profiler) Profiler

// New returns a profiler configured by opts.
func New(opts ...Option) Profiler {
	var p Profiler

	for _, opt := range opts {
		if opt != nil {
			p = opt(p)
		}
	}

	return p
}

// WithMode sets the profiling mode. See [Modes].
func WithMode(mode string) Option {
	return func(p Profiler) Profiler {
		p.Mode = mode

		return p
	}
}

// WithPath sets the output directory.
func WithPath(path string) Option {
	return func(p Profiler) Profiler {
		p.Path = path

		return p
	}
}

// WithQuiet suppresses the messages printed when profiling starts and
// stops.
func WithQuiet(quiet bool) Option {
	return func(p Profiler) Profiler {
		p.Quiet = quiet

		return p
	}
}

// Start begins profiling and returns the handle that stops it. An empty or
// unknown mode, or a build without [Tag], yields a handle whose Stop does
// nothing.
func (p Profiler) Start() interface{ Stop() } {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
