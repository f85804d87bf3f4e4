package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"Warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNewHonoursEnvLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "ERROR")
	if got := New("debug").GetLevel(); got != zerolog.ErrorLevel {
		t.Fatalf("level = %s, want error from LOG_LEVEL", got)
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)
	log.Info().Str("account", "chk").Msg("balance updated")

	out := buf.String()
	if !strings.Contains(out, "balance updated") || !strings.Contains(out, `"account":"chk"`) {
		t.Fatalf("output = %s", out)
	}
}

func TestContextRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))
	ctxLog := FromContext(ctx)
	ctxLog.Warn().Msg("hello")
	if buf.Len() == 0 {
		t.Fatal("expected output from the context logger")
	}

	if got := FromContext(context.Background()).GetLevel(); got != zerolog.Disabled {
		t.Fatalf("default logger level = %s, want disabled", got)
	}
}
