package log

// Option configures a [Logger] when it is made or wrapped.
type Option func(*config)

func apply(c config, opts ...Option) config {
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}

	return c
}
