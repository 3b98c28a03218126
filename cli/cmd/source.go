package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/ardnew/aexpr/log"
)

// stdinSource names standard input in --source.
const stdinSource = "-"

// Sources is the expression text of the --source files, read as one stream
// in command line order with stdin last.
type Sources struct {
	files []*os.File
	stdin io.Reader
	r     io.Reader
}

type sourcesKey struct{}

// WithSourceFiles returns ctx carrying the [Sources] opened from names.
// A file named more than once, by any path or link, is read once; every
// "-" collapses into a single read of stdin after the files. Files that
// cannot be opened are skipped with a warning.
func WithSourceFiles(ctx context.Context, names []string) context.Context {
	return context.WithValue(ctx, sourcesKey{}, openSources(ctx, names))
}

func sourceFilesFrom(ctx context.Context) *Sources {
	s, _ := ctx.Value(sourcesKey{}).(*Sources)

	return s
}

func openSources(ctx context.Context, names []string) *Sources {
	var (
		s    Sources
		seen []os.FileInfo
	)

	stdinInfo, _ := os.Stdin.Stat()

	for _, name := range names {
		if name == stdinSource {
			s.stdin = os.Stdin

			continue
		}

		info, err := os.Stat(name)
		if err != nil {
			log.WarnContext(ctx, "skipping source", slog.String("file", name), slog.Any("error", err))

			continue
		}

		if stdinInfo != nil && os.SameFile(info, stdinInfo) {
			s.stdin = os.Stdin

			continue
		}

		if slices.ContainsFunc(seen, func(fi os.FileInfo) bool { return os.SameFile(fi, info) }) {
			continue
		}

		f, err := os.Open(name)
		if err != nil {
			log.WarnContext(ctx, "skipping source", slog.String("file", name), slog.Any("error", err))

			continue
		}

		seen = append(seen, info)
		s.files = append(s.files, f)
	}

	if s.IsZero() {
		return nil
	}

	return &s
}

// IsZero reports whether there is nothing to read.
func (s *Sources) IsZero() bool { return s == nil || (len(s.files) == 0 && s.stdin == nil) }

// ReadsStdin reports whether stdin is one of the sources.
func (s *Sources) ReadsStdin() bool { return s != nil && s.stdin != nil }

// Read implements [io.Reader] over the concatenated sources.
func (s *Sources) Read(p []byte) (int, error) {
	if s.r == nil {
		readers := make([]io.Reader, 0, len(s.files)+1)
		for _, f := range s.files {
			readers = append(readers, f)
		}

		if s.stdin != nil {
			readers = append(readers, s.stdin)
		}

		s.r = io.MultiReader(readers...)
	}

	return s.r.Read(p)
}

// Close closes the opened files. Stdin is left open.
func (s *Sources) Close() error {
	errs := make([]error, len(s.files))
	for i, f := range s.files {
		errs[i] = f.Close()
	}

	s.files = nil

	return errors.Join(errs...)
}
