package repl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/aexpr/log"
)

const defaultEditor = "vi"

// DecodeFunc decodes a YAML document of variables.
type DecodeFunc func(ctx context.Context, r io.Reader) (map[string]any, error)

func decodeYAML(ctx context.Context, r io.Reader) (map[string]any, error) {
	var m map[string]any
	if err := yaml.NewDecoder(r).DecodeContext(ctx, &m); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return m, nil
}

// editVarsCommand implements [tea.ExecCommand] for the edit-decode-retry
// loop over the session variables. It writes them as YAML to a temp file,
// opens the user's editor, and decodes the result. On a decode error the
// user is prompted to re-edit; declining abandons the edit.
type editVarsCommand struct {
	vars    yaml.MapSlice
	decode  DecodeFunc
	ctxFunc func() context.Context
	logger  log.Logger
	result  map[string]any
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editVarsCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editVarsCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editVarsCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. An emptied file cancels the edit and leaves
// result nil. If the user declines to re-edit, it returns [ErrEditDeclined].
func (c *editVarsCommand) Run() error {
	ctx := c.ctxFunc()

	content, err := yaml.MarshalContext(ctx, c.vars)
	if err != nil {
		return fmt.Errorf("encode variables: %w", err)
	}

	f, err := os.CreateTemp(os.TempDir(), "aexpr-repl-*.yaml")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Close(); err != nil {
		return err
	}

	for {
		if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
			return err
		}

		data, err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath)
		if err != nil {
			return err
		}

		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}

		vars, decodeErr := c.decode(ctx, bytes.NewReader(data))
		c.logger.TraceContext(
			ctx,
			"editor decode attempt",
			slog.Int("content_length", len(data)),
			slog.Bool("success", decodeErr == nil),
		)

		if decodeErr == nil {
			if vars == nil {
				vars = map[string]any{}
			}

			c.result = vars

			return nil
		}

		fmt.Fprintf(c.stderr, "\nDecode error: %s\n", decodeErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if response == "n" || response == "no" {
			return ErrEditDeclined
		}

		content = data
	}
}

// runEditor opens path in $EDITOR, which may carry arguments, and returns
// the edited content.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) ([]byte, error) {
	editor := strings.Fields(os.Getenv("EDITOR"))
	if len(editor) == 0 {
		editor = []string{defaultEditor}
	}

	cmd := exec.CommandContext(ctx, editor[0], append(editor[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return nil, err
	}

	return os.ReadFile(path)
}
