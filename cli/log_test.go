package cli

import (
	"testing"

	"github.com/ardnew/aexpr/log"
)

func TestLogConfig_Scan(t *testing.T) {
	defer log.SetDefault(log.Default())

	tests := []struct {
		name   string
		args   []string
		level  logLevel
		format logFormat
		caller bool
		pretty bool
	}{
		{"none", []string{"eval", "1 + 2"}, "", "", false, true},
		{"assigned", []string{"--log-level=debug", "--log-format=text"}, "debug", "text", false, true},
		{"separate", []string{"--log-level", "trace", "x"}, "trace", "", false, true},
		{"bools", []string{"--log-caller", "--no-log-pretty"}, "", "", true, false},
		{"bool_values", []string{"--log-caller=false", "--log-pretty=false"}, "", "", false, false},
		{"after_terminator", []string{"--", "--log-level=error"}, "", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := logConfig{Pretty: true}
			f.scan(tt.args)

			if f.Level != tt.level || f.Format != tt.format || f.Caller != tt.caller || f.Pretty != tt.pretty {
				t.Errorf("scan(%q) = %+v", tt.args, f)
			}
		})
	}
}

func TestLogConfig_Start(t *testing.T) {
	defer log.SetDefault(log.Default())

	f := logConfig{Level: "warn", Format: "text", TimeLayout: "none"}
	f.start(t.Context())

	if got := log.Default().Level(); got != log.LevelWarn {
		t.Errorf("level = %v, want warn", got)
	}

	if got := log.Default().Format(); got != log.FormatText {
		t.Errorf("format = %v, want text", got)
	}
}
