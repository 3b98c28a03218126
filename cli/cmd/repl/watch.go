package repl

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/fsnotify/fsnotify"

	tea "github.com/charmbracelet/bubbletea"
)

// varsReloadMsg carries the variables of a watched file that changed.
type varsReloadMsg struct {
	file string
	vars map[string]any
	err  error
}

// varsWatcher reloads variable files when they are written. It watches the
// parent directories, since editors often replace a file instead of writing
// it in place.
type varsWatcher struct {
	w       *fsnotify.Watcher
	files   []string
	decode  DecodeFunc
	ctxFunc func() context.Context
}

func newVarsWatcher(ctxFunc func() context.Context, decode DecodeFunc, files []string) (*varsWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	v := &varsWatcher{w: w, decode: decode, ctxFunc: ctxFunc}

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			w.Close()

			return nil, err
		}

		if !slices.Contains(v.files, abs) {
			v.files = append(v.files, abs)
		}

		if err := w.Add(filepath.Dir(abs)); err != nil {
			w.Close()

			return nil, err
		}
	}

	return v, nil
}

// next returns the command that waits for the next change.
func (v *varsWatcher) next() tea.Cmd {
	return func() tea.Msg {
		ctx := v.ctxFunc()

		for {
			select {
			case <-ctx.Done():
				return nil

			case ev, ok := <-v.w.Events:
				if !ok {
					return nil
				}

				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 ||
					!slices.Contains(v.files, filepath.Clean(ev.Name)) {
					continue
				}

				vars, err := v.load(ctx, ev.Name)

				return varsReloadMsg{file: ev.Name, vars: vars, err: err}

			case err, ok := <-v.w.Errors:
				if !ok {
					return nil
				}

				return varsReloadMsg{err: err}
			}
		}
	}
}

func (v *varsWatcher) load(ctx context.Context, file string) (map[string]any, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return v.decode(ctx, f)
}

func (v *varsWatcher) Close() error { return v.w.Close() }
