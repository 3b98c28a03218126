package lang

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/goccy/go-yaml"
)

func TestWalk(t *testing.T) {
	l := New().MustParse(t.Context(), "x + 1 > 2 ? -x : 0", NewParameter("x", typeInt32))

	var kinds []string

	Walk(l.Expression(), func(n Node) bool {
		kinds = append(kinds, nodeKind(n))
		return true
	})

	if len(kinds) != 9 || kinds[0] != "Conditional" {
		t.Errorf("visited %v", kinds)
	}

	var n int

	Walk(l.Expression(), func(Node) bool {
		n++
		return false
	})

	if n != 1 {
		t.Errorf("pruned walk visited %d nodes, want 1", n)
	}
}

func TestLambda_Format(t *testing.T) {
	l := New().MustParse(t.Context(), "x + 1", NewParameter("x", typeInt32))

	var flat bytes.Buffer
	if err := l.Format(t.Context(), &flat, 0); err != nil {
		t.Fatalf("Format: %v", err)
	}

	if got := flat.String(); got != "(x + 1)\n" {
		t.Errorf("got %q", got)
	}

	var tree bytes.Buffer
	if err := l.Format(t.Context(), &tree, 2); err != nil {
		t.Fatalf("Format: %v", err)
	}

	want := "(x + 1)\n" +
		"Binary + : int\n" +
		"  ParamRef x : int\n" +
		"  Constant 1 : int\n"

	if got := tree.String(); got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestLambda_FormatJSON(t *testing.T) {
	l := New().MustParse(t.Context(), "s.Length", NewParameter("s", typeString), NewParameter("n", typeInt32))

	var buf bytes.Buffer
	if err := l.FormatJSON(t.Context(), &buf, 2); err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}

	var doc struct {
		Expression string   `json:"expression"`
		Type       string   `json:"type"`
		Used       []string `json:"used"`
		Parameters []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"parameters"`
		Tree struct {
			Node     string           `json:"node"`
			Member   string           `json:"member"`
			Operands []map[string]any `json:"operands"`
		} `json:"tree"`
	}

	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Unmarshal: %v\n%s", err, buf.String())
	}

	if doc.Expression != "s.Length" || doc.Type != "int" {
		t.Errorf("header = %q %q", doc.Expression, doc.Type)
	}

	if len(doc.Parameters) != 2 || doc.Parameters[1].Type != "int" {
		t.Errorf("parameters = %+v", doc.Parameters)
	}

	if len(doc.Used) != 1 || doc.Used[0] != "s" {
		t.Errorf("used = %v", doc.Used)
	}

	if doc.Tree.Node != "MemberAccess" || doc.Tree.Member != "Length" || len(doc.Tree.Operands) != 1 {
		t.Errorf("tree = %+v", doc.Tree)
	}
}

func TestLambda_FormatYAML(t *testing.T) {
	l := New().MustParse(t.Context(), "Math.Max(a, 2)", NewParameter("a", typeInt32))

	for _, indent := range []int{0, 4} {
		var buf bytes.Buffer
		if err := l.FormatYAML(t.Context(), &buf, indent); err != nil {
			t.Fatalf("FormatYAML(%d): %v", indent, err)
		}

		var doc map[string]any
		if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
			t.Fatalf("Unmarshal(%d): %v\n%s", indent, err, buf.String())
		}

		if doc["expression"] != "Math.Max(a, 2)" {
			t.Errorf("indent %d: expression = %v", indent, doc["expression"])
		}

		tree, _ := doc["tree"].(map[string]any)
		if tree["node"] != "Call" || tree["method"] != "Max" {
			t.Errorf("indent %d: tree = %v", indent, tree)
		}
	}
}
