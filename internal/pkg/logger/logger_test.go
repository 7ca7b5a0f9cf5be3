package logger

import (
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{"info", INFO},
		{"warn", WARN},
		{"warning", WARN},
		{"error", ERROR},
		{"fatal", FATAL},
		{"", INFO},
		{"nonsense", INFO},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetLevelFiltering(t *testing.T) {
	l := NewLogger("", WARN)

	if l.shouldLog(INFO) {
		t.Error("INFO should be filtered at WARN level")
	}
	if !l.shouldLog(ERROR) {
		t.Error("ERROR should pass at WARN level")
	}

	l.SetLevel(DEBUG)
	if !l.shouldLog(DEBUG) {
		t.Error("DEBUG should pass after SetLevel(DEBUG)")
	}
}
