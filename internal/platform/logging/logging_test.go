package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T, level string) *Logger {
	t.Helper()
	dir := t.TempDir()
	l, err := New(Config{Level: level, Dir: dir, Filename: "server.log"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func readLogFile(t *testing.T, l *Logger) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(l.config.Dir, l.config.Filename))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(data)
}

func TestLoggerWritesJSONFile(t *testing.T) {
	l := newTestLogger(t, "info")

	l.Info("server started")
	l.Warn("disk almost full", map[string]interface{}{"free_mb": 12})

	content := readLogFile(t, l)
	if !strings.Contains(content, `"msg":"server started"`) {
		t.Errorf("missing info record in %q", content)
	}
	if !strings.Contains(content, `"free_mb":12`) {
		t.Errorf("missing warn attributes in %q", content)
	}
}

func TestDebugSuppressedAtInfoLevel(t *testing.T) {
	l := newTestLogger(t, "info")

	l.Debug("noisy detail")

	content := readLogFile(t, l)
	if strings.Contains(content, "noisy detail") {
		t.Errorf("debug record written at info level: %q", content)
	}
}

func TestDebugEmittedAtDebugLevel(t *testing.T) {
	l := newTestLogger(t, "debug")

	l.Debug("decode trace %d", 42)

	content := readLogFile(t, l)
	if !strings.Contains(content, "decode trace 42") {
		t.Errorf("missing formatted debug record in %q", content)
	}
}

func TestFormatTag(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		message string
		want    string
	}{
		{"plain", "IMAGE", "resized to 2048px", "[IMAGE] resized to 2048px"},
		{"already tagged", "HTTP", "[MODEL] upstream timeout", "[MODEL] upstream timeout"},
		{"empty tag", "", "hello", "hello"},
		{"trims spaces", " MAIL ", " digest sent ", "[MAIL] digest sent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTag(tt.tag, tt.message); got != tt.want {
				t.Errorf("FormatTag(%q, %q) = %q, want %q", tt.tag, tt.message, got, tt.want)
			}
		})
	}
}

func TestTagHelpersOnNilLogger(t *testing.T) {
	var l *Logger
	// must not panic
	l.InfoTag("BOOT", "ignored")
	l.WarnTag("BOOT", "ignored")
	l.ErrorTag("BOOT", "ignored")
	l.DebugTag("BOOT", "ignored")
}

func TestTaggedMessageInFile(t *testing.T) {
	l := newTestLogger(t, "info")

	l.InfoTag("STORE", "sqlite opened")

	content := readLogFile(t, l)
	if !strings.Contains(content, "[STORE] sqlite opened") {
		t.Errorf("missing tagged record in %q", content)
	}
}
