package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ANSI color codes for pretty printing.
const (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorGray    = "\033[90m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

// Keys rendered in bold so the expression under evaluation and the failure
// stand out in a stream of trace records.
var emphasizedKeys = map[string]string{
	"expression": colorBold,
	"error":      colorBold + colorRed,
}

// prettyCommon holds what both pretty handlers share: options, the output
// lock, and the attributes and groups added through WithAttrs and
// WithGroup.
type prettyCommon struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr // qualified by the groups open when they were added
	groups []string
}

func (h *prettyCommon) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}

	return level >= floor
}

func (h prettyCommon) withAttrs(attrs []slog.Attr) prettyCommon {
	if len(attrs) == 0 {
		return h
	}

	prefix := strings.Join(h.groups, ".")

	h.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], qualify(prefix, attrs)...)

	return h
}

func (h prettyCommon) withGroup(name string) prettyCommon {
	if name == "" {
		return h
	}

	h.groups = append(h.groups[:len(h.groups):len(h.groups)], name)

	return h
}

// header returns the time, level, and source attributes of r after
// ReplaceAttr.
func (h *prettyCommon) header(r slog.Record) []slog.Attr {
	var out []slog.Attr

	if !r.Time.IsZero() {
		if a := h.replace(slog.Time(slog.TimeKey, r.Time)); !a.Equal(slog.Attr{}) {
			out = append(out, a)
		}
	}

	out = append(out, h.replace(slog.Any(slog.LevelKey, r.Level)))

	if h.opts.AddSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			out = append(out, slog.String(slog.SourceKey, src.File+":"+strconv.Itoa(src.Line)))
		}
	}

	return out
}

// body returns the handler attributes followed by the record attributes,
// with groups flattened into dotted keys.
func (h *prettyCommon) body(r slog.Record) []slog.Attr {
	out := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	out = append(out, h.attrs...)

	prefix := strings.Join(h.groups, ".")

	r.Attrs(func(a slog.Attr) bool {
		out = append(out, qualify(prefix, []slog.Attr{a})...)

		return true
	})

	return out
}

func (h *prettyCommon) replace(a slog.Attr) slog.Attr {
	if h.opts.ReplaceAttr == nil {
		return a
	}

	return h.opts.ReplaceAttr(nil, a)
}

func (h *prettyCommon) write(b []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(b)

	return err
}

// qualify resolves LogValuers and flattens groups of attrs, prefixing each
// key with prefix.
func qualify(prefix string, attrs []slog.Attr) []slog.Attr {
	var out []slog.Attr

	for _, a := range attrs {
		a.Value = a.Value.Resolve()

		if a.Equal(slog.Attr{}) {
			continue
		}

		key := a.Key
		if prefix != "" && key != "" {
			key = prefix + "." + key
		} else if key == "" {
			key = prefix
		}

		if a.Value.Kind() == slog.KindGroup {
			out = append(out, qualify(key, a.Value.Group())...)

			continue
		}

		out = append(out, slog.Attr{Key: key, Value: a.Value})
	}

	return out
}

// prettyTextHandler writes one colorized key=value line per record.
type prettyTextHandler struct{ prettyCommon }

func newPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions) *prettyTextHandler {
	return &prettyTextHandler{prettyCommon{opts: *opts, mu: &sync.Mutex{}, w: w}}
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	for _, a := range h.header(r) {
		writeTextAttr(&buf, a)
	}

	writeTextAttr(&buf, slog.String(slog.MessageKey, r.Message))

	for _, a := range h.body(r) {
		writeTextAttr(&buf, a)
	}

	buf.WriteByte('\n')

	return h.write(buf.Bytes())
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyTextHandler{h.withAttrs(attrs)}
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	return &prettyTextHandler{h.withGroup(name)}
}

func writeTextAttr(buf *bytes.Buffer, a slog.Attr) {
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}

	buf.WriteString(colorGray)
	buf.WriteString(a.Key)
	buf.WriteString(colorReset)
	buf.WriteByte('=')

	if em, ok := emphasizedKeys[a.Key]; ok {
		buf.WriteString(em)
		buf.WriteString(a.Value.String())
		buf.WriteString(colorReset)

		return
	}

	color, text := render(a.Key, a.Value)

	buf.WriteString(color)
	buf.WriteString(text)
	buf.WriteString(colorReset)
}

// prettyJSONHandler writes each record as an indented, colorized JSON
// object.
type prettyJSONHandler struct{ prettyCommon }

func newPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) *prettyJSONHandler {
	return &prettyJSONHandler{prettyCommon{opts: *opts, mu: &sync.Mutex{}, w: w}}
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	attrs := h.header(r)
	attrs = append(attrs, slog.String(slog.MessageKey, r.Message))
	attrs = append(attrs, h.body(r)...)

	buf.WriteString("{\n")

	for i, a := range attrs {
		if i > 0 {
			buf.WriteString(",\n")
		}

		buf.WriteString("  ")
		buf.WriteString(colorGray)
		buf.WriteString(strconv.Quote(a.Key))
		buf.WriteString(colorReset)
		buf.WriteString(": ")

		color, text := render(a.Key, a.Value)
		if em, ok := emphasizedKeys[a.Key]; ok {
			color = em
		}

		if quoted(a.Value) {
			text = strconv.Quote(text)
		}

		buf.WriteString(color)
		buf.WriteString(text)
		buf.WriteString(colorReset)
	}

	buf.WriteString("\n}\n")

	return h.write(buf.Bytes())
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyJSONHandler{h.withAttrs(attrs)}
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	return &prettyJSONHandler{h.withGroup(name)}
}

func quoted(v slog.Value) bool {
	switch v.Kind() {
	case slog.KindString, slog.KindTime, slog.KindDuration:
		return true
	case slog.KindAny:
		return v.Any() != nil
	default:
		return false
	}
}

// render returns the color and text of a resolved, non-group value.
func render(key string, v slog.Value) (color, text string) {
	switch v.Kind() {
	case slog.KindString:
		if key == slog.LevelKey {
			return levelColor(ParseLevel(v.String())), v.String()
		}

		return colorCyan, v.String()
	case slog.KindInt64:
		return colorYellow, strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return colorYellow, strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return colorYellow, strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		if v.Bool() {
			return colorGreen, "true"
		}

		return colorRed, "false"
	case slog.KindDuration:
		return colorMagenta, v.Duration().String()
	case slog.KindTime:
		return colorBlue, v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		switch x := v.Any().(type) {
		case slog.Level:
			return levelColor(Level(x)), strings.ToUpper(Level(x).String())
		case error:
			return colorRed, x.Error()
		case nil:
			return colorGray, "null"
		default:
			return colorCyan, fmt.Sprint(x)
		}
	default:
		return colorCyan, v.String()
	}
}

func levelColor(l Level) string {
	switch {
	case l >= LevelError:
		return colorRed
	case l >= LevelWarn:
		return colorYellow
	case l >= LevelInfo:
		return colorGreen
	case l >= LevelDebug:
		return colorBlue
	default:
		return colorMagenta
	}
}
