package repl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

func prompt(mode inputMode) string {
	if mode == modeCtrl {
		return ctrlPromptStyle.Render(ctrlPrompt)
	}

	return promptStyle.Render(evalPrompt)
}

// echo renders a submitted line behind the prompt of its mode.
func echo(mode inputMode, input string) string {
	return prompt(mode) + inputStyle.Render(input)
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	return m.input.View() + "\n" + m.status() + "\n"
}

// status renders the line below the input: the history position while
// recalling, a hint on an empty line, the signature of the enclosing call,
// or the completion candidates.
func (m model) status() string {
	input := m.input.Value()

	if m.historyIdx < m.history.Len() {
		return hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len()))
	}

	if strings.TrimSpace(input) == "" {
		if m.mode == modeCtrl {
			return hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (esc to return)")
		}

		return hintStyle.Render("Type an expression, or esc for commands. " +
			m.help.ShortHelpView(m.keys.ShortHelp()))
	}

	if m.mode == modeEval && len(m.comp.matches) == 0 {
		if call := detectFunctionCall(input, m.input.Position()); call.inCall {
			if sig, ok := m.session.signature(m.ctxFunc(), call); ok {
				return renderSignatureHint(sig, call.argIndex)
			}
		}
	}

	if len(m.comp.matches) > 0 {
		return renderCandidateBar(m.comp.matches, m.comp.callable, m.selected, m.cycling, m.width)
	}

	return ""
}
