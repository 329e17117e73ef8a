package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", DebugLevel, true},
		{"", InfoLevel, true},
		{" INFO ", InfoLevel, true},
		{"warning", WarnLevel, true},
		{"error", ErrorLevel, true},
		{"fatal", FatalLevel, true},
		{"loud", InfoLevel, false},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("ParseLevel(%q) err=%v, want ok=%v", tt.in, err, tt.ok)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q)=%v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultLoggerRoutesByLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	l := NewDefaultLoggerWithWriters(&stdout, &stderr)
	l.SetLevel(DebugLevel)

	l.Debug("frame", Fields{"index": 3})
	l.Warn("clipped")
	l.Error(errors.New("boom"), "encode failed", Fields{"path": "a.wav"})

	if !strings.Contains(stdout.String(), "[DEBUG] frame index=3") {
		t.Fatalf("stdout missing debug line: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "[WARN] clipped") {
		t.Fatalf("stderr missing warn line: %q", stderr.String())
	}
	if !strings.Contains(stderr.String(), "[ERROR] encode failed: boom path=a.wav") {
		t.Fatalf("stderr missing error line: %q", stderr.String())
	}
}

func TestDefaultLoggerFiltersBelowLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	l := NewDefaultLoggerWithWriters(&stdout, &stderr)
	l.SetLevel(WarnLevel)

	l.Info("hidden")
	if stdout.Len() != 0 {
		t.Fatalf("info should be filtered, got %q", stdout.String())
	}
}

func TestWithFieldsAndContext(t *testing.T) {
	var stdout bytes.Buffer
	l := NewDefaultLoggerWithWriters(&stdout, &stdout)

	ctx := ContextWithFields(context.Background(), Fields{"file": "in.wav"})
	ctx = ContextWithFields(ctx, Fields{"channel": 1})
	l.WithFields(Fields{"component": "pipeline"}).WithContext(ctx).Info("done")

	line := stdout.String()
	for _, want := range []string{"channel=1", "component=pipeline", "file=in.wav"} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q missing %q", line, want)
		}
	}
}

func TestSetGlobalLoggerNil(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(nil)
	if _, ok := GetGlobalLogger().(*NoOpLogger); !ok {
		t.Fatalf("expected NoOpLogger, got %T", GetGlobalLogger())
	}
	Info("discarded")
}
