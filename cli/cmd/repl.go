package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ardnew/aexpr/cli/cmd/repl"
	"github.com/ardnew/aexpr/lang"
	"github.com/ardnew/aexpr/log"
)

// Repl starts an interactive session over the bound variables.
type Repl struct {
	Options `embed:""`

	NoHistory bool `help:"Do not read or write the history file."`
	Watch     bool `help:"Reload the --vars files when they change."`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	it := r.interpreter(lang.WithCache(true))

	params, err := r.parameters(ctx, it)
	if err != nil {
		return err
	}

	var watch []string
	if r.Watch {
		watch = r.Vars
	}

	return repl.Run(ctx, repl.Config{
		Interpreter: it,
		Params:      params,
		HistoryPath: r.historyPath(ctx),
		Logger:      log.Default(),
		Decode:      decodeVars,
		Format:      func(v any) string { return native(materialize(v)) },
		Watch:       watch,
	})
}

// historyPath returns the history file in the cache directory, creating the
// directory if needed, or "" to keep the history in memory.
func (r *Repl) historyPath(ctx context.Context) string {
	if r.NoHistory {
		return ""
	}

	dir := kongVar(ctx, CacheIdentifier, "")
	if dir == "" {
		return ""
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		log.WarnContext(ctx, "history disabled",
			slog.String("dir", dir),
			slog.Any("error", err),
		)

		return ""
	}

	return filepath.Join(dir, repl.HistoryFile)
}
