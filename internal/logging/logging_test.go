package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want log.Level
	}{
		{in: "debug", want: log.DebugLevel},
		{in: " INFO ", want: log.InfoLevel},
		{in: "warning", want: log.WarnLevel},
		{in: "error", want: log.ErrorLevel},
		{in: "", want: log.WarnLevel},
		{in: "chatty", want: log.WarnLevel},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Fatalf("ParseLevel(%q)=%v want=%v", tc.in, got, tc.want)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")

	logger.Debug("hidden")
	logger.Info("engine resolved", "engine", "sitemap")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered, got %q", out)
	}
	if !strings.Contains(out, "engine resolved") || !strings.Contains(out, "sitemap") {
		t.Fatalf("expected info line with key/value, got %q", out)
	}
}

func TestResolveLevelPrefersEnv(t *testing.T) {
	t.Setenv(LevelEnv, "debug")
	if got := ResolveLevel("error"); got != "debug" {
		t.Fatalf("expected env level, got %q", got)
	}
	t.Setenv(LevelEnv, "")
	if got := ResolveLevel("error"); got != "error" {
		t.Fatalf("expected configured level, got %q", got)
	}
}

func TestOrNeverReturnsNil(t *testing.T) {
	if Or(nil) == nil {
		t.Fatalf("expected discard logger for nil input")
	}
}
