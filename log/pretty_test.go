package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// stripANSI removes color escape sequences from s.
func stripANSI(s string) string {
	var b strings.Builder

	for i := 0; i < len(s); i++ {
		if s[i] == '\033' {
			for i < len(s) && s[i] != 'm' {
				i++
			}

			continue
		}

		b.WriteByte(s[i])
	}

	return b.String()
}

func TestPrettyText(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatText), WithTimeLayout("none")).
		With(slog.String("command", "eval")).
		WithGroup("lambda")

	l.Warn("invoke failed",
		slog.Int("args", 2),
		slog.Group("param", slog.String("name", "x"), slog.Bool("used", true)),
		slog.Any("error", errors.New("division by zero")),
	)

	got := stripANSI(buf.String())
	want := "level=WARN msg=invoke failed command=eval lambda.args=2 " +
		"lambda.param.name=x lambda.param.used=true lambda.error=division by zero\n"

	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestPrettyText_EmphasizedKeys(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithFormat(FormatText), WithTimeLayout("none")).
		Info("parsed", slog.String("expression", "a * b"))

	if !strings.Contains(buf.String(), colorBold+"a * b"+colorReset) {
		t.Errorf("expression not bold: %q", buf.String())
	}
}

func TestPrettyJSON(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithTimeLayout("none")).With(slog.Group("cache", slog.Int("size", 3)))
	l.Info("hit", slog.Any("value", nil), slog.Float64("ratio", 0.5))

	got := stripANSI(buf.String())
	want := "{\n" +
		`  "level": "INFO",` + "\n" +
		`  "msg": "hit",` + "\n" +
		`  "cache.size": 3,` + "\n" +
		`  "value": null,` + "\n" +
		`  "ratio": 0.5` + "\n" +
		"}\n"

	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPretty_Enabled(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithLevel(LevelWarn))
	l.Info("dropped")
	l.Debug("dropped")

	if buf.Len() != 0 {
		t.Errorf("pretty handler ignored level: %q", buf.String())
	}

	if !l.Enabled(t.Context(), LevelError) {
		t.Error("error level not enabled")
	}
}

func TestPretty_Source(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithFormat(FormatText), WithCaller(true), WithTimeLayout("none")).Info("src")

	if !strings.Contains(stripANSI(buf.String()), "pretty_test.go:") {
		t.Errorf("source missing: %q", buf.String())
	}
}

func TestQualify(t *testing.T) {
	got := qualify("p", []slog.Attr{
		slog.String("a", "1"),
		{},
		slog.Group("", slog.Int("b", 2)),
		slog.Group("g", slog.Group("h", slog.Bool("c", false))),
	})

	var keys []string
	for _, a := range got {
		keys = append(keys, a.Key)
	}

	if strings.Join(keys, ",") != "p.a,p.b,p.g.h.c" {
		t.Errorf("keys = %v", keys)
	}
}

func TestLevelColor(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelTrace, colorMagenta},
		{LevelDebug, colorBlue},
		{LevelInfo, colorGreen},
		{LevelWarn, colorYellow},
		{LevelError, colorRed},
		{LevelError + 4, colorRed},
	}

	for _, tt := range tests {
		if got := levelColor(tt.level); got != tt.want {
			t.Errorf("levelColor(%v) = %q, want %q", tt.level, got, tt.want)
		}
	}
}
