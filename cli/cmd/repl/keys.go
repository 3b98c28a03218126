package repl

import "github.com/charmbracelet/bubbles/key"

// keyMap binds the REPL actions. It implements [help.KeyMap].
type keyMap struct {
	Interrupt    key.Binding
	EOF          key.Binding
	Submit       key.Binding
	Complete     key.Binding
	CompleteBack key.Binding
	Accept       key.Binding
	Mode         key.Binding
	Prev         key.Binding
	Next         key.Binding
	PrevInMode   key.Binding
	NextInMode   key.Binding
	PrevCommand  key.Binding
	NextCommand  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Interrupt: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "clear line, or exit on an empty line"),
		),
		EOF: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "exit on an empty line"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "evaluate, or keep the selected candidate"),
		),
		Complete: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next candidate"),
		),
		CompleteBack: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous candidate"),
		),
		Accept: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "accept candidate"),
		),
		Mode: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "toggle expression/command mode"),
		),
		Prev: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous line"),
		),
		Next: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next line"),
		),
		PrevInMode: key.NewBinding(
			key.WithKeys("shift+up"),
			key.WithHelp("shift+↑", "previous line in this mode"),
		),
		NextInMode: key.NewBinding(
			key.WithKeys("shift+down"),
			key.WithHelp("shift+↓", "next line in this mode"),
		),
		PrevCommand: key.NewBinding(
			key.WithKeys("alt+up"),
			key.WithHelp("alt+↑", "previous command"),
		),
		NextCommand: key.NewBinding(
			key.WithKeys("alt+down"),
			key.WithHelp("alt+↓", "next command"),
		),
	}
}

// ShortHelp implements [help.KeyMap].
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Complete, k.Mode, k.Interrupt}
}

// FullHelp implements [help.KeyMap].
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Complete, k.CompleteBack, k.Accept, k.Mode},
		{k.Prev, k.Next, k.PrevInMode, k.NextInMode, k.PrevCommand, k.NextCommand},
		{k.Interrupt, k.EOF},
	}
}
