package numantics

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Level is the severity tag written in front of a log line.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "[WARN]"
	case LevelError:
		return "[ERROR]"
	}
	return "[INFO]"
}

// Logger receives evaluation diagnostics. Log appends to the current line,
// LogLine finishes it.
type Logger interface {
	Log(values ...any)
	LogLine(values ...any)
}

// joinValues renders values separated by single spaces.
func joinValues(values []any) string {
	return strings.TrimSuffix(fmt.Sprintln(values...), "\n")
}

type writerLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *writerLogger) Log(values ...any) {
	l.mu.Lock()
	io.WriteString(l.w, joinValues(values))
	l.mu.Unlock()
}

func (l *writerLogger) LogLine(values ...any) {
	l.mu.Lock()
	io.WriteString(l.w, joinValues(values)+"\n")
	l.mu.Unlock()
}

// WriterLogger returns a logger that writes each line to w as it happens.
func WriterLogger(w io.Writer) Logger {
	return &writerLogger{w: w}
}

// BufferedLogger keeps finished lines in memory until they are drained.
// The REPL uses it to decide after an evaluation whether to show the trace.
type BufferedLogger struct {
	mu      sync.Mutex
	partial strings.Builder
	lines   []string
}

func NewBufferedLogger() *BufferedLogger {
	return &BufferedLogger{}
}

func (l *BufferedLogger) Log(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.partial.WriteString(joinValues(values))
}

func (l *BufferedLogger) LogLine(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, l.partial.String()+joinValues(values))
	l.partial.Reset()
}

// Drain returns the finished lines and forgets them.
func (l *BufferedLogger) Drain() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	lines := l.lines
	l.lines = nil
	return lines
}

// String returns every finished line followed by a newline, then any
// unfinished text.
func (l *BufferedLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var sb strings.Builder
	for _, line := range l.lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString(l.partial.String())
	return sb.String()
}

func (l *BufferedLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
	l.partial.Reset()
}

type discardLogger struct{}

func (discardLogger) Log(...any)     {}
func (discardLogger) LogLine(...any) {}

// NullLogger returns a logger that drops everything.
func NullLogger() Logger {
	return discardLogger{}
}

// Logf writes one line tagged with level. A nil logger is ignored.
func Logf(l Logger, level Level, format string, args ...any) {
	if l == nil {
		return
	}
	l.LogLine(level.String() + " " + fmt.Sprintf(format, args...))
}

func Infof(l Logger, format string, args ...any)  { Logf(l, LevelInfo, format, args...) }
func Warnf(l Logger, format string, args ...any)  { Logf(l, LevelWarn, format, args...) }
func Errorf(l Logger, format string, args ...any) { Logf(l, LevelError, format, args...) }
