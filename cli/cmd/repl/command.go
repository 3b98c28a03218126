package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/aexpr/lang"
)

// command is a control-mode command.
type command struct {
	name    string
	aliases []string
	summary string
}

var commands = []command{
	{"help", []string{"h", "?"}, "Print this help"},
	{"vars", []string{"v"}, "List the session variables"},
	{"types", []string{"t"}, "List the known types"},
	{"edit", []string{"e"}, "Edit the session variables as YAML in $EDITOR"},
	{"clear", []string{"c"}, "Clear the screen"},
	{"quit", []string{"q", "exit"}, "Exit"},
}

// lookupCommand returns the canonical name of the command named or aliased
// by s.
func lookupCommand(s string) (string, bool) {
	for _, c := range commands {
		if s == c.name {
			return c.name, true
		}

		for _, a := range c.aliases {
			if s == a {
				return c.name, true
			}
		}
	}

	return "", false
}

// editDoneMsg reports the outcome of the edit command. No vars and no error
// means the user emptied the file.
type editDoneMsg struct {
	vars map[string]any
	err  error
}

// submit runs the current line in the current mode and records it.
func (m model) submit() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.saved = [2]savedLine{}
	m.input.SetValue("")
	m.addHistory(input, m.mode)

	if m.mode == modeCtrl {
		return m.runCommand(input)
	}

	return m, tea.Sequence(tea.Println(echo(modeEval, input)), m.evaluate(input))
}

// evaluate returns the command printing the result of input.
func (m model) evaluate(input string) tea.Cmd {
	ctx := m.ctxFunc()

	result, err := m.session.eval(ctx, input)
	if err != nil {
		m.logger.TraceContext(ctx, "repl eval failed",
			slog.String("expression", input),
			slog.Any("error", err),
		)

		return tea.Println(errorStyle.Render("error: " + err.Error()))
	}

	m.logger.TraceContext(ctx, "repl eval",
		slog.String("expression", input),
		slog.String("result_type", resultTypeName(result)),
	)

	return tea.Println(resultStyle.Render(m.format(result)))
}

func (m model) runCommand(input string) (model, tea.Cmd) {
	fields := strings.Fields(input)
	echoed := tea.Println(echo(modeCtrl, input))

	name, ok := lookupCommand(fields[0])
	if !ok {
		return m, tea.Sequence(echoed, tea.Println(
			errorStyle.Render("unknown command: "+fields[0]+" (try 'help')"),
		))
	}

	m.logger.TraceContext(m.ctxFunc(), "repl command",
		slog.String("command", name),
		slog.Any("args", fields[1:]),
	)

	switch name {
	case "quit":
		m.quitting = true

		return m, tea.Sequence(echoed, tea.Quit)
	case "clear":
		return m, tea.ClearScreen
	case "edit":
		return m, tea.Sequence(echoed, m.edit(m.ctxFunc()))
	}

	var out string

	switch name {
	case "help":
		out = m.helpView()
	case "vars":
		out = m.listVariables()
	case "types":
		out = m.listTypes()
	}

	return m, tea.Sequence(echoed, tea.Println(out))
}

// edit suspends the program to edit the session variables in $EDITOR.
func (m model) edit(ctx context.Context) tea.Cmd {
	vars := m.session.mapSlice()
	if len(vars) == 0 {
		return tea.Println(errorStyle.Render("error: " + ErrNoVariables.Error()))
	}

	m.logger.TraceContext(ctx, "repl edit start", slog.Int("variables", len(vars)))

	cmd := &editVarsCommand{
		vars:    vars,
		decode:  m.decode,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		return editDoneMsg{vars: cmd.result, err: err}
	})
}

func (m model) editDone(msg editDoneMsg) (model, tea.Cmd) {
	switch {
	case errors.Is(msg.err, ErrEditDeclined):
		return m, tea.Println(hintStyle.Render("edit abandoned, variables unchanged"))
	case msg.err != nil:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	case msg.vars == nil:
		return m, tea.Println(hintStyle.Render("edit cancelled"))
	}

	m.session.replace(msg.vars)
	m.logger.TraceContext(m.ctxFunc(), "repl edit complete",
		slog.Int("variables", len(msg.vars)),
	)

	return m, tea.Println(resultStyle.Render("variables updated"))
}

// reloaded merges the variables of a changed file into the session and
// resumes watching.
func (m model) reloaded(msg varsReloadMsg) (model, tea.Cmd) {
	var next tea.Cmd
	if m.watcher != nil {
		next = m.watcher.next()
	}

	if msg.err != nil {
		return m, tea.Batch(next, tea.Println(errorStyle.Render("error: reload: "+msg.err.Error())))
	}

	for _, name := range slices.Sorted(maps.Keys(msg.vars)) {
		m.session.set(name, msg.vars[name])
	}

	m.logger.TraceContext(m.ctxFunc(), "repl vars reloaded",
		slog.String("file", msg.file),
		slog.Int("variables", len(msg.vars)),
	)

	return m, tea.Batch(next, tea.Println(hintStyle.Render("reloaded "+filepath.Base(msg.file))))
}

func (m model) helpView() string {
	var b strings.Builder

	b.WriteString("Commands (esc toggles command mode):\n\n")

	for _, c := range commands {
		fmt.Fprintf(&b, "  %-6s %-8s %s\n", c.name, strings.Join(c.aliases, ","), c.summary)
	}

	b.WriteString("\nEvaluate an expression over the session variables, or define one\n")
	b.WriteString("with: name = expression\n\n")
	b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))

	return b.String()
}

func (m model) listVariables() string {
	params := m.session.params()
	if len(params) == 0 {
		return hintStyle.Render("  (no variables)")
	}

	lines := make([]string, len(params))
	for i, p := range params {
		lines[i] = fmt.Sprintf("  %s %s = %s",
			hintStyle.Render(lang.TypeName(p.Type)), p.Name, m.format(p.Value))
	}

	return strings.Join(lines, "\n")
}

func (m model) listTypes() string {
	return "  " + strings.Join(m.session.it.KnownTypes(), "\n  ")
}

func resultTypeName(value any) string {
	if value == nil {
		return "null"
	}

	return fmt.Sprintf("%T", value)
}
