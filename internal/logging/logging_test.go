package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestResolveLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ResolveLevel(tt.in)
			if (err == nil) != tt.ok || got != tt.want {
				t.Fatalf("ResolveLevel(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(&buf, "warn")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.Info("quiet")
	log.Warn("loud", "voice", 3)
	out := buf.String()
	if strings.Contains(out, "quiet") || !strings.Contains(out, "voice=3") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestOrDiscard(t *testing.T) {
	OrDiscard(nil).Error("dropped")
	l := Discard()
	if OrDiscard(l) != l {
		t.Fatalf("non-nil logger should pass through")
	}
}
