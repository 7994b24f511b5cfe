// Package debug provides logging, block timing and buffer checks for the
// engine and its host programs.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel is the severity of a message.
type LogLevel int32

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	// LogLevelOff disables all logging.
	LogLevelOff
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "OFF"}

func (l LogLevel) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel converts a level name such as "warn" to a LogLevel. The empty
// string means info.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "info", "":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	case "off", "none":
		return LogLevelOff, nil
	}
	return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Header flags.
const (
	FlagTime = 1 << iota
	FlagShortFile
	FlagLongFile
	FlagLevel
	FlagPrefix
)

// DefaultFlags are used by the package logger.
const DefaultFlags = FlagTime | FlagShortFile | FlagLevel | FlagPrefix

// Logger is a leveled line logger. The level check is lock free; formatting
// and writing happen under a mutex on the calling goroutine, so the audio
// thread must not log directly.
type Logger struct {
	level    atomic.Int32
	disabled atomic.Bool

	mu     sync.Mutex
	out    io.Writer
	prefix string
	flags  int
	line   []byte
}

// New creates a logger at LogLevelInfo.
func New(out io.Writer, prefix string, flags int) *Logger {
	l := &Logger{out: out, prefix: prefix, flags: flags}
	l.level.Store(int32(LogLevelInfo))
	return l
}

// NewFileLogger appends to filename, creating it and its directory as
// needed. Close the file through Output.
func NewFileLogger(filename, prefix string, flags int) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, fmt.Errorf("log directory: %w", err)
	}
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("log file: %w", err)
	}
	return New(f, prefix, flags), nil
}

func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
}

// Output returns the writer set by New or SetOutput.
func (l *Logger) Output() io.Writer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out
}

func (l *Logger) SetLevel(level LogLevel) {
	l.level.Store(int32(level))
}

func (l *Logger) SetPrefix(prefix string) {
	l.mu.Lock()
	l.prefix = prefix
	l.mu.Unlock()
}

func (l *Logger) SetFlags(flags int) {
	l.mu.Lock()
	l.flags = flags
	l.mu.Unlock()
}

// SetEnabled turns the logger on or off without touching its level.
func (l *Logger) SetEnabled(enabled bool) {
	l.disabled.Store(!enabled)
}

// Enabled reports whether a message at level would be written.
func (l *Logger) Enabled(level LogLevel) bool {
	return !l.disabled.Load() && level < LogLevelOff && int32(level) >= l.level.Load()
}

func (l *Logger) Debug(format string, args ...any) { l.output(LogLevelDebug, format, args) }
func (l *Logger) Info(format string, args ...any)  { l.output(LogLevelInfo, format, args) }
func (l *Logger) Warn(format string, args ...any)  { l.output(LogLevelWarn, format, args) }
func (l *Logger) Error(format string, args ...any) { l.output(LogLevelError, format, args) }

// output must be called directly from Debug, Info, Warn or Error so that
// the caller lookup finds the right frame.
func (l *Logger) output(level LogLevel, format string, args []any) {
	if !l.Enabled(level) {
		return
	}
	now := time.Now()
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()

	var file string
	var lineNo int
	if l.flags&(FlagShortFile|FlagLongFile) != 0 {
		var ok bool
		if _, file, lineNo, ok = runtime.Caller(2); !ok {
			file, lineNo = "???", 0
		}
		if l.flags&FlagLongFile == 0 {
			file = filepath.Base(file)
		}
	}

	b := l.line[:0]
	if l.flags&FlagTime != 0 {
		b = now.AppendFormat(b, "2006-01-02 15:04:05.000 ")
	}
	if l.flags&FlagLevel != 0 {
		b = append(b, '[')
		b = append(b, level.String()...)
		b = append(b, "] "...)
	}
	if l.flags&FlagPrefix != 0 && l.prefix != "" {
		b = append(b, '[')
		b = append(b, l.prefix...)
		b = append(b, "] "...)
	}
	if file != "" {
		b = append(b, file...)
		b = append(b, ':')
		b = strconv.AppendInt(b, int64(lineNo), 10)
		b = append(b, ": "...)
	}
	b = append(b, msg...)
	if len(msg) == 0 || msg[len(msg)-1] != '\n' {
		b = append(b, '\n')
	}
	l.line = b
	l.out.Write(b)
}

var std = New(os.Stderr, "", DefaultFlags)

// Default returns the package logger. It writes to stderr at info level.
func Default() *Logger {
	return std
}
