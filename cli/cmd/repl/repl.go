package repl

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/aexpr/lang"
	"github.com/ardnew/aexpr/log"
)

// Config configures a REPL session.
type Config struct {
	// Interpreter parses every line. Required.
	Interpreter *lang.Interpreter

	// Params are the initial session variables.
	Params []*lang.Parameter

	// HistoryPath is the file submitted lines persist to. Empty keeps the
	// history in memory.
	HistoryPath string

	Logger log.Logger

	// Decode reads the variables written by the edit command. Defaults to a
	// plain YAML mapping decoder.
	Decode DecodeFunc

	// Format renders evaluation results. Defaults to [lang.Stringify].
	Format func(any) string

	// Watch lists variable files whose variables are reloaded with Decode
	// whenever they change.
	Watch []string
}

// inputMode selects what a submitted line is: an expression or a command.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// savedLine is the input text and cursor of a line set aside.
type savedLine struct {
	text   string
	cursor int
}

type model struct {
	ctxFunc func() context.Context
	session *session
	decode  DecodeFunc
	format  func(any) string
	logger  log.Logger
	history *History
	watcher *varsWatcher

	input textinput.Model
	keys  keyMap
	help  help.Model
	width int

	mode  inputMode
	saved [2]savedLine // per-mode input while the other mode is active

	// historyIdx is the recalled entry, or history.Len() when editing a new
	// line. recallOrigin holds the line to restore when command recall runs
	// out of entries.
	historyIdx   int
	recallOrigin *recalled

	comp     completion
	selected int // index into comp.matches while cycling
	cycling  bool
	preCycle savedLine
	quitting bool
}

type recalled struct {
	mode inputMode
	savedLine
}

// Run starts an interactive session and blocks until the user quits or ctx
// is done.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if cfg.Interpreter == nil {
		return ErrNoInterpreter
	}

	if err := cfg.Interpreter.Err(); err != nil {
		return err
	}

	history := NewHistory(cfg.HistoryPath)
	if err := history.Load(); err != nil {
		cfg.Logger.WarnContext(ctx, "could not load history",
			slog.String("history", cfg.HistoryPath),
			slog.Any("error", err),
		)
	}

	cfg.Logger.TraceContext(ctx, "repl start",
		slog.String("history", cfg.HistoryPath),
		slog.Int("history_entries", history.Len()),
		slog.Int("variables", len(cfg.Params)),
	)

	m := newModel(ctx, cfg, history)

	if len(cfg.Watch) > 0 {
		if m.watcher, err = newVarsWatcher(m.ctxFunc, m.decode, cfg.Watch); err != nil {
			return err
		}
		defer m.watcher.Close()
	}

	_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()

	return err
}

const defaultWidth = 80

func newModel(ctx context.Context, cfg Config, history *History) model {
	m := model{
		ctxFunc:    func() context.Context { return ctx },
		session:    newSession(cfg.Interpreter, cfg.Params),
		decode:     cfg.Decode,
		format:     cfg.Format,
		logger:     cfg.Logger,
		history:    history,
		input:      textinput.New(),
		keys:       defaultKeyMap(),
		help:       help.New(),
		width:      defaultWidth,
		historyIdx: history.Len(),
		selected:   -1,
	}

	if m.decode == nil {
		m.decode = decodeYAML
	}

	if m.format == nil {
		m.format = lang.Stringify
	}

	m.input.Prompt = prompt(modeEval)
	m.input.CharLimit = 1024
	m.input.Width = defaultWidth
	m.input.Focus()

	return m
}

func (m model) Init() tea.Cmd {
	if m.watcher != nil {
		return tea.Batch(textinput.Blink, m.watcher.next())
	}

	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil
	case editDoneMsg:
		return m.editDone(msg)
	case varsReloadMsg:
		return m.reloaded(msg)
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl key", slog.String("key", msg.String()))

	empty := m.input.Value() == ""

	switch {
	case key.Matches(msg, m.keys.Interrupt):
		if empty {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.cycling = false
		m.recallOrigin = nil
		m.historyIdx = m.history.Len()
		m.refresh(false)

		return m, nil

	case key.Matches(msg, m.keys.EOF):
		if empty {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case key.Matches(msg, m.keys.Submit):
		m.recallOrigin = nil

		if m.cycling && len(m.comp.matches) > 0 {
			m.cycling = false
			m.refresh(true)

			return m, nil
		}

		return m.submit()

	case key.Matches(msg, m.keys.Complete):
		return m.cycle(1), nil
	case key.Matches(msg, m.keys.CompleteBack):
		return m.cycle(-1), nil

	case key.Matches(msg, m.keys.Prev):
		return m.recall(-1, recallAny), nil
	case key.Matches(msg, m.keys.Next):
		return m.recall(1, recallAny), nil
	case key.Matches(msg, m.keys.PrevInMode):
		return m.recall(-1, recallMode), nil
	case key.Matches(msg, m.keys.NextInMode):
		return m.recall(1, recallMode), nil
	case key.Matches(msg, m.keys.PrevCommand):
		return m.recall(-1, recallCommand), nil
	case key.Matches(msg, m.keys.NextCommand):
		return m.recall(1, recallCommand), nil

	case key.Matches(msg, m.keys.Mode):
		if m.cycling {
			m.cycling = false
			m.input.SetValue(m.preCycle.text)
			m.input.SetCursor(m.preCycle.cursor)
			m.refresh(false)

			return m, nil
		}

		m.recallOrigin = nil

		return m.toggleMode(), nil
	}

	// Typing a character may complete a word; editing and cursor motion
	// never do.
	typed := msg.Type == tea.KeyRunes || key.Matches(msg, m.keys.Accept)
	if !typed || key.Matches(msg, m.keys.Accept) {
		m.cycling = false
	}

	m.recallOrigin = nil
	m.historyIdx = m.history.Len()

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	m.refresh(typed)

	return m, cmd
}

// cycle moves the completion selection by step, replacing the word at the
// cursor. A sole candidate is accepted outright.
func (m model) cycle(step int) model {
	n := len(m.comp.matches)

	switch {
	case n == 0:
		return m
	case n == 1:
		m.replaceWord(m.comp.matches[0].Str)
		m.cycling = false
		m.selected = -1
		m.comp.matches = nil

		return m
	case m.cycling:
		m.selected = (m.selected + step + n) % n
	default:
		m.cycling = true
		m.preCycle = savedLine{m.input.Value(), m.input.Position()}

		m.selected = 0
		if step < 0 {
			m.selected = n - 1
		}
	}

	m.replaceWord(m.comp.matches[m.selected].Str)

	return m
}

func (m *model) replaceWord(with string) {
	input := m.input.Value()
	cursor := m.comp.start + len(with)

	m.input.SetValue(input[:m.comp.start] + with + input[m.comp.end:])
	m.input.SetCursor(cursor)

	m.comp.end = cursor
}

// refresh recomputes the completion. With autoConfirm, a word that already
// equals its sole candidate is accepted.
func (m *model) refresh(autoConfirm bool) {
	m.comp = m.complete()

	if !m.cycling {
		m.selected = -1
	}

	if !autoConfirm || len(m.comp.matches) != 1 {
		return
	}

	if only := m.comp.matches[0].Str; m.input.Value()[m.comp.start:m.comp.end] == only {
		m.replaceWord(only)
		m.cycling = false
		m.selected = -1
		m.comp.matches = nil
	}
}

func (m *model) addHistory(input string, mode inputMode) {
	if err := m.history.Add(input, mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not write history", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()
}

// recallScope selects the history entries a recall visits.
type recallScope int

const (
	recallAny     recallScope = iota // every entry, switching mode to match
	recallMode                       // entries of the current mode
	recallCommand                    // commands, restoring the line when exhausted
)

// recall moves step entries through the history within scope.
func (m model) recall(step int, scope recallScope) model {
	if scope == recallCommand && m.recallOrigin == nil {
		m.recallOrigin = &recalled{m.mode, savedLine{m.input.Value(), m.input.Position()}}
		m = m.switchMode(modeCtrl)
	}

	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		e, err := m.history.Entry(i)
		if err != nil {
			break
		}

		if (scope == recallMode && e.Mode != m.mode) || (scope == recallCommand && e.Mode != modeCtrl) {
			continue
		}

		if e.Mode != m.mode {
			m = m.switchMode(e.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(e.Line)
		m.input.SetCursor(len(e.Line))
		m.refresh(false)

		return m
	}

	switch {
	case m.recallOrigin != nil:
		o := *m.recallOrigin
		m.recallOrigin = nil
		m = m.switchMode(o.mode)
		m.input.SetValue(o.text)
		m.input.SetCursor(o.cursor)
	case step > 0 && m.historyIdx < m.history.Len():
		m.input.SetValue("")
	default:
		return m
	}

	m.historyIdx = m.history.Len()
	m.refresh(false)

	return m
}

func (m model) toggleMode() model {
	return m.switchMode(1 - m.mode)
}

// switchMode sets aside the line of the current mode and restores the line
// of mode.
func (m model) switchMode(mode inputMode) model {
	m.saved[m.mode] = savedLine{m.input.Value(), m.input.Position()}
	m.mode = mode

	m.input.Prompt = prompt(mode)
	m.input.SetValue(m.saved[mode].text)
	m.input.SetCursor(m.saved[mode].cursor)
	m.refresh(false)

	return m
}
