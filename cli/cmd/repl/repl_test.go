package repl

import (
	"strings"
	"testing"

	"github.com/ardnew/aexpr/lang"
)

func newTestModel(t *testing.T) model {
	t.Helper()

	cfg := Config{
		Interpreter: lang.New(),
		Params:      []*lang.Parameter{lang.Arg("greeting", "hello")},
	}

	return newModel(t.Context(), cfg, NewHistory(""))
}

func TestModel_SubmitDefines(t *testing.T) {
	m := newTestModel(t)

	m.input.SetValue("n = greeting.Length")

	m, _ = m.submit()

	if v, ok := m.session.values["n"]; !ok || v != int32(5) {
		t.Errorf("n = %#v, %v", v, ok)
	}

	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}

	if e, err := m.history.Entry(0); err != nil || e.Line != "n = greeting.Length" || e.Mode != modeEval {
		t.Errorf("history = %v, %v", e, err)
	}
}

func TestModel_ListVariables(t *testing.T) {
	m := newTestModel(t)

	got := m.listVariables()
	for _, want := range []string{"greeting", "hello", "string"} {
		if !strings.Contains(got, want) {
			t.Errorf("listVariables() = %q, missing %q", got, want)
		}
	}

	if got := m.listTypes(); !strings.Contains(got, "Math") {
		t.Errorf("listTypes() = %q", got)
	}
}

func TestModel_ToggleMode(t *testing.T) {
	m := newTestModel(t)

	m.input.SetValue("1 +")
	m = m.toggleMode()

	if m.mode != modeCtrl || m.input.Value() != "" {
		t.Fatalf("mode = %v, input = %q", m.mode, m.input.Value())
	}

	m = m.toggleMode()

	if m.mode != modeEval || m.input.Value() != "1 +" {
		t.Errorf("mode = %v, input = %q", m.mode, m.input.Value())
	}
}

func TestModel_HistoryNavigation(t *testing.T) {
	m := newTestModel(t)

	for _, e := range []HistoryEntry{{"1", modeEval}, {"help", modeCtrl}, {"2", modeEval}} {
		if err := m.history.Add(e.Line, e.Mode); err != nil {
			t.Fatal(err)
		}
	}

	m.historyIdx = m.history.Len()

	m = m.recall(-1, recallAny)
	if m.input.Value() != "2" || m.mode != modeEval {
		t.Fatalf("prev = %q in %v", m.input.Value(), m.mode)
	}

	m = m.recall(-1, recallAny)
	if m.input.Value() != "help" || m.mode != modeCtrl {
		t.Fatalf("prev = %q in %v", m.input.Value(), m.mode)
	}

	m = m.recall(-1, recallMode)
	if m.input.Value() != "help" {
		t.Errorf("no earlier command expected, got %q", m.input.Value())
	}
}

func TestModel_RecallCommandRestores(t *testing.T) {
	m := newTestModel(t)

	for _, e := range []HistoryEntry{{"vars", modeCtrl}, {"1 + 1", modeEval}} {
		if err := m.history.Add(e.Line, e.Mode); err != nil {
			t.Fatal(err)
		}
	}

	m.historyIdx = m.history.Len()
	m.input.SetValue("greeting")

	m = m.recall(-1, recallCommand)
	if m.input.Value() != "vars" || m.mode != modeCtrl {
		t.Fatalf("recall = %q in %v", m.input.Value(), m.mode)
	}

	m = m.recall(-1, recallCommand)
	if m.input.Value() != "greeting" || m.mode != modeEval || m.recallOrigin != nil {
		t.Errorf("restore = %q in %v", m.input.Value(), m.mode)
	}
}

func TestModel_Cycle(t *testing.T) {
	m := newTestModel(t)

	m.input.SetValue("Ma")
	m.input.SetCursor(2)
	m.refresh(false)

	if len(m.comp.matches) == 0 {
		t.Fatal("no candidates for \"Ma\"")
	}

	first := m.comp.matches[0].Str

	m = m.cycle(1)
	if !m.cycling && len(m.comp.matches) > 1 {
		t.Fatal("cycle did not start")
	}

	if m.input.Value() != first {
		t.Errorf("input = %q, want %q", m.input.Value(), first)
	}
}

func TestRunCommand(t *testing.T) {
	tests := []struct {
		input string
		quit  bool
	}{
		{"help", false},
		{"?", false},
		{"v", false},
		{"bogus", false},
		{"exit", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := newTestModel(t)
			m = m.toggleMode()

			m, cmd := m.runCommand(tt.input)
			if cmd == nil {
				t.Error("runCommand returned no command")
			}

			if m.quitting != tt.quit {
				t.Errorf("quitting = %v, want %v", m.quitting, tt.quit)
			}
		})
	}
}

func TestLookupCommand(t *testing.T) {
	for _, c := range commands {
		for _, s := range append([]string{c.name}, c.aliases...) {
			if got, ok := lookupCommand(s); !ok || got != c.name {
				t.Errorf("lookupCommand(%q) = %q, %v", s, got, ok)
			}
		}
	}

	if _, ok := lookupCommand("nope"); ok {
		t.Error("lookupCommand(\"nope\") found a command")
	}
}

func TestModel_HelpView(t *testing.T) {
	got := newTestModel(t).helpView()

	for _, want := range ctrlCommands {
		if !strings.Contains(got, want) {
			t.Errorf("helpView() missing %q", want)
		}
	}
}

func TestModel_EditDone(t *testing.T) {
	tests := []struct {
		name    string
		msg     editDoneMsg
		want    map[string]any
		wantCmd bool
	}{
		{"declined", editDoneMsg{err: ErrEditDeclined}, map[string]any{"greeting": "hello", "x": int32(1)}, true},
		{"cancelled", editDoneMsg{}, map[string]any{"greeting": "hello", "x": int32(1)}, true},
		{"replaced", editDoneMsg{vars: map[string]any{"y": "two"}}, map[string]any{"y": "two"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t)
			m.session.set("x", int32(1))

			m, cmd := m.editDone(tt.msg)
			if m.quitting {
				t.Error("edit outcome quit the session")
			}

			if (cmd != nil) != tt.wantCmd {
				t.Errorf("cmd = %v, want command %v", cmd, tt.wantCmd)
			}

			if len(m.session.values) != len(tt.want) {
				t.Fatalf("values = %v, want %v", m.session.values, tt.want)
			}

			for k, v := range tt.want {
				if m.session.values[k] != v {
					t.Errorf("%s = %#v, want %#v", k, m.session.values[k], v)
				}
			}
		})
	}
}
