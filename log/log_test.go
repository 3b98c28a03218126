package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// decode returns the JSON records written to buf.
func decode(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any

	dec := json.NewDecoder(buf)
	for dec.More() {
		var rec map[string]any
		if err := dec.Decode(&rec); err != nil {
			t.Fatalf("decode: %v", err)
		}

		out = append(out, rec)
	}

	return out
}

func TestLogger_Make_Defaults(t *testing.T) {
	l := Make(&bytes.Buffer{})

	if l.Level() != DefaultLevel {
		t.Errorf("Level() = %v, want %v", l.Level(), DefaultLevel)
	}

	if l.Format() != DefaultFormat {
		t.Errorf("Format() = %v, want %v", l.Format(), DefaultFormat)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level Level
		want  []string
	}{
		{LevelTrace, []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}},
		{LevelInfo, []string{"INFO", "WARN", "ERROR"}},
		{LevelError, []string{"ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer

			l := Make(&buf, WithLevel(tt.level), WithPretty(false))
			l.Trace("parse start")
			l.Debug("cache miss")
			l.Info("evaluated")
			l.Warn("slow expression")
			l.Error("evaluation failed")

			recs := decode(t, &buf)
			if len(recs) != len(tt.want) {
				t.Fatalf("got %d records, want %d", len(recs), len(tt.want))
			}

			for i, rec := range recs {
				if rec["level"] != tt.want[i] {
					t.Errorf("record %d level = %v, want %s", i, rec["level"], tt.want[i])
				}
			}
		})
	}
}

func TestLogger_JSONAttributes(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithPretty(false), WithTimeLayout("none"))
	l.Info("parse complete",
		slog.String("expression", "x + 1"),
		slog.Int("used_parameters", 1),
	)

	recs := decode(t, &buf)
	if len(recs) != 1 {
		t.Fatalf("got %d records", len(recs))
	}

	rec := recs[0]

	if _, ok := rec["time"]; ok {
		t.Error("time present with layout none")
	}

	if rec["msg"] != "parse complete" || rec["expression"] != "x + 1" || rec["used_parameters"] != 1.0 {
		t.Errorf("record = %v", rec)
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithFormat(FormatText), WithPretty(false))
	l.Warn("slow expression", slog.String("expression", "xs.Sum()"))

	out := buf.String()
	for _, want := range []string{"level=WARN", `msg="slow expression"`, `expression=xs.Sum()`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestLogger_Caller(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithCaller(true), WithPretty(false)).Info("here")

	recs := decode(t, &buf)
	src, ok := recs[0]["source"].(map[string]any)
	if !ok {
		t.Fatalf("source = %v", recs[0]["source"])
	}

	if file, _ := src["file"].(string); !strings.HasSuffix(file, "log_test.go") {
		t.Errorf("source file = %v, want log_test.go", src["file"])
	}

	buf.Reset()
	Make(&buf, WithPretty(false)).Info("here")

	if rec := decode(t, &buf)[0]; rec["source"] != nil {
		t.Errorf("source present without caller: %v", rec["source"])
	}
}

func TestLogger_WithAndWrap(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithPretty(false))
	scoped := base.With(slog.String("command", "eval"))

	scoped.Info("start")
	base.Info("plain")

	recs := decode(t, &buf)
	if recs[0]["command"] != "eval" {
		t.Errorf("With attribute missing: %v", recs[0])
	}

	if _, ok := recs[1]["command"]; ok {
		t.Errorf("With leaked into base: %v", recs[1])
	}

	wrapped := scoped.Wrap(WithLevel(LevelError))
	wrapped.Info("dropped")

	if buf.Len() != 0 {
		t.Errorf("Wrap did not raise the level: %s", buf.String())
	}

	if wrapped.Level() != LevelError || scoped.Level() != LevelInfo {
		t.Errorf("levels = %v, %v", wrapped.Level(), scoped.Level())
	}
}

func TestLogger_WithGroup(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithPretty(false)).WithGroup("lambda").Info("invoke", slog.Int("args", 2))

	rec := decode(t, &buf)[0]
	if g, ok := rec["lambda"].(map[string]any); !ok || g["args"] != 2.0 {
		t.Errorf("record = %v", rec)
	}
}

func TestLogger_ZeroValue(t *testing.T) {
	var l Logger

	l.Trace("dropped")
	l.InfoContext(t.Context(), "dropped")
	l.With(slog.String("k", "v")).Error("dropped")

	if l.Enabled(t.Context(), LevelError) {
		t.Error("zero logger reports enabled")
	}

	if l.Level() != DefaultLevel || l.Format() != DefaultFormat {
		t.Errorf("zero logger level/format = %v/%v", l.Level(), l.Format())
	}

	var buf bytes.Buffer

	l.Wrap(WithOutput(&buf), WithPretty(false)).Info("kept")

	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("Wrap of zero logger did not log: %q", buf.String())
	}
}

func TestLogger_ContextMethods(t *testing.T) {
	var buf bytes.Buffer

	l := Make(&buf, WithLevel(LevelTrace), WithPretty(false))
	ctx := t.Context()

	l.TraceContext(ctx, "a")
	l.DebugContext(ctx, "b")
	l.InfoContext(ctx, "c")
	l.WarnContext(ctx, "d")
	l.ErrorContext(ctx, "e")

	var msgs []string
	for _, rec := range decode(t, &buf) {
		msgs = append(msgs, rec["msg"].(string))
	}

	if strings.Join(msgs, "") != "abcde" {
		t.Errorf("messages = %v", msgs)
	}
}

func TestLogger_Concurrent(t *testing.T) {
	var (
		buf syncBuffer
		wg  sync.WaitGroup
	)

	l := Make(&buf, WithPretty(false))

	for i := range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			l.With(slog.Int("worker", i)).Info("evaluated")
		}()
	}

	wg.Wait()

	if n := strings.Count(buf.String(), "\n"); n != 16 {
		t.Errorf("got %d lines, want 16", n)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}
