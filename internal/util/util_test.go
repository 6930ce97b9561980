package util

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("info", "json", &buf).Info("hello", "symbol", "AAPL")
	if !strings.Contains(buf.String(), `"symbol":"AAPL"`) {
		t.Errorf("json output = %q", buf.String())
	}

	buf.Reset()
	NewLogger("info", "text", &buf).Info("hello", "symbol", "AAPL")
	if !strings.Contains(buf.String(), "symbol=AAPL") {
		t.Errorf("text output = %q", buf.String())
	}

	buf.Reset()
	NewLogger("warn", "text", &buf).Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info line written at warn level: %q", buf.String())
	}
}

func TestDefaultLogPath(t *testing.T) {
	got := DefaultLogPath("wavecap", time.Date(2024, 9, 3, 12, 0, 0, 0, time.UTC))
	want := filepath.Join(os.TempDir(), "wavecap-2024-09-03.log")
	if got != want {
		t.Errorf("DefaultLogPath = %q, want %q", got, want)
	}
}

func TestOpenLogFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	for _, line := range []string{"one\n", "two\n"} {
		f, err := OpenLogFile(path)
		if err != nil {
			t.Fatalf("OpenLogFile: %v", err)
		}
		f.WriteString(line)
		f.Close()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "one\ntwo\n" {
		t.Errorf("file = %q", data)
	}
}
