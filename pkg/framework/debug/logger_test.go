package debug

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestLoggerHeader(t *testing.T) {
	tests := []struct {
		name  string
		flags int
		want  *regexp.Regexp
	}{
		{"bare", 0, regexp.MustCompile(`^voice 3 stolen\n$`)},
		{"level and prefix", FlagLevel | FlagPrefix, regexp.MustCompile(`^\[WARN\] \[synth\] voice 3 stolen\n$`)},
		{"time", FlagTime, regexp.MustCompile(`^\d{4}-\d\d-\d\d \d\d:\d\d:\d\d\.\d{3} voice`)},
		{"short file", FlagShortFile, regexp.MustCompile(`^logger_test\.go:\d+: voice`)},
		{"long file", FlagLongFile, regexp.MustCompile(`^/.*debug/logger_test\.go:\d+: voice`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, "synth", tt.flags)
			logger.Warn("voice %d stolen", 3)
			if !tt.want.MatchString(buf.String()) {
				t.Errorf("Expected %v, got %q", tt.want, buf.String())
			}
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "", FlagLevel)
	logger.SetLevel(LogLevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	for _, hidden := range []string{"debug message", "info message"} {
		if strings.Contains(out, hidden) {
			t.Errorf("Expected %q to be filtered", hidden)
		}
	}
	for _, shown := range []string{"[WARN] warn message", "[ERROR] error message"} {
		if !strings.Contains(out, shown) {
			t.Errorf("Expected %q in %q", shown, out)
		}
	}

	if logger.Enabled(LogLevelInfo) || !logger.Enabled(LogLevelError) {
		t.Error("Expected Enabled to follow the level")
	}
	logger.SetLevel(LogLevelOff)
	if logger.Enabled(LogLevelError) {
		t.Error("Expected nothing enabled at LogLevelOff")
	}
}

func TestLoggerDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "", DefaultFlags)
	logger.SetEnabled(false)
	logger.Error("should not appear")
	if buf.Len() > 0 {
		t.Errorf("Expected no output, got %q", buf.String())
	}

	logger.SetEnabled(true)
	logger.Info("back\n")
	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("Expected a single newline, got %q", buf.String())
	}
}

func TestLoggerSetters(t *testing.T) {
	var a, b bytes.Buffer
	logger := New(&a, "", FlagPrefix)
	logger.SetOutput(&b)
	logger.SetPrefix("render")
	logger.Info("done")
	if a.Len() != 0 || b.String() != "[render] done\n" {
		t.Errorf("Expected output on the new writer, got %q and %q", a.String(), b.String())
	}
	if logger.Output() != io.Writer(&b) {
		t.Error("Expected Output to return the new writer")
	}

	b.Reset()
	logger.SetFlags(0)
	logger.Info("done")
	if b.String() != "done\n" {
		t.Errorf("Expected no header, got %q", b.String())
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "wtsynth.log")
	logger, err := NewFileLogger(path, "wtsynth", FlagPrefix)
	if err != nil {
		t.Fatalf("NewFileLogger error: %v", err)
	}
	logger.Info("started")
	if c, ok := logger.Output().(io.Closer); ok {
		c.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[wtsynth] started\n" {
		t.Errorf("Unexpected file contents %q", data)
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LogLevelDebug, "DEBUG"},
		{LogLevelInfo, "INFO"},
		{LogLevelWarn, "WARN"},
		{LogLevelError, "ERROR"},
		{LogLevelOff, "OFF"},
		{LogLevel(99), "UNKNOWN"},
		{LogLevel(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"INFO":    LogLevelInfo,
		"":        LogLevelInfo,
		"warning": LogLevelWarn,
		" error ": LogLevelError,
		"off":     LogLevelOff,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q): expected %v, got %v, %v", in, want, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil || !Default().Enabled(LogLevelInfo) {
		t.Error("Expected the package logger at info level")
	}
}

func BenchmarkLoggerBelowLevel(b *testing.B) {
	logger := New(io.Discard, "", DefaultFlags)
	logger.SetLevel(LogLevelError)
	for i := 0; i < b.N; i++ {
		logger.Info("dropped note %d", i)
	}
}
