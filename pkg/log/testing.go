package log

import (
	"context"
	"fmt"
	"sync"
)

// Entry is one record captured by a TestLogger. Field values keep their Go
// types; errors are stored under "error" when passed as the leading field.
type Entry struct {
	Level   Level
	Message string
	Fields  map[string]any
}

// Field returns the value stored under key and whether it was present.
func (e Entry) Field(key string) (any, bool) {
	v, ok := e.Fields[key]
	return v, ok
}

// recording is the shared sink behind a TestLogger and the loggers derived
// from it with With.
type recording struct {
	mu      sync.Mutex
	level   Level
	entries []Entry
}

// TestLogger keeps every record at or above its level in memory.
type TestLogger struct {
	rec   *recording
	attrs []any
}

// NewTestLogger returns an empty in-memory logger.
func NewTestLogger(level Level) *TestLogger {
	return &TestLogger{rec: &recording{level: level}}
}

// Debug implements Logger.Debug.
func (t *TestLogger) Debug(msg string, fields ...any) { t.record(LevelDebug, msg, fields) }

// Info implements Logger.Info.
func (t *TestLogger) Info(msg string, fields ...any) { t.record(LevelInfo, msg, fields) }

// Warn implements Logger.Warn.
func (t *TestLogger) Warn(msg string, fields ...any) { t.record(LevelWarn, msg, fields) }

// Error implements Logger.Error.
func (t *TestLogger) Error(msg string, fields ...any) { t.record(LevelError, msg, fields) }

// With implements Logger.With. Derived loggers share the same records.
func (t *TestLogger) With(fields ...any) Logger {
	attrs := make([]any, 0, len(t.attrs)+len(fields))
	attrs = append(attrs, t.attrs...)
	attrs = append(attrs, fields...)
	return &TestLogger{rec: t.rec, attrs: attrs}
}

// Enabled implements Logger.Enabled.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	return level >= t.rec.level
}

func (t *TestLogger) record(level Level, msg string, fields []any) {
	if !t.Enabled(context.Background(), level) {
		return
	}
	e := Entry{Level: level, Message: msg, Fields: make(map[string]any)}
	putFields(e.Fields, t.attrs)
	if len(fields)%2 == 1 {
		if err, ok := fields[0].(error); ok {
			e.Fields["error"] = err
			fields = fields[1:]
		}
	}
	putFields(e.Fields, fields)

	t.rec.mu.Lock()
	t.rec.entries = append(t.rec.entries, e)
	t.rec.mu.Unlock()
}

func putFields(dst map[string]any, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		dst[fmt.Sprint(kv[i])] = kv[i+1]
	}
}

// Entries returns a copy of the captured records in emission order.
func (t *TestLogger) Entries() []Entry {
	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	return append([]Entry(nil), t.rec.entries...)
}

// Find returns the first record whose message is msg.
func (t *TestLogger) Find(msg string) (Entry, bool) {
	for _, e := range t.Entries() {
		if e.Message == msg {
			return e, true
		}
	}
	return Entry{}, false
}

// Count returns how many records carry message msg.
func (t *TestLogger) Count(msg string) int {
	n := 0
	for _, e := range t.Entries() {
		if e.Message == msg {
			n++
		}
	}
	return n
}

// Reset drops all captured records.
func (t *TestLogger) Reset() {
	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	t.rec.entries = nil
}

// TestLoggerProvider hands out loggers that all record into one TestLogger.
// Installed with SetProvider it also captures library warnings.
type TestLoggerProvider struct {
	*TestLogger
}

// NewTestLoggerProvider returns a provider recording at level and above.
func NewTestLoggerProvider(level Level) *TestLoggerProvider {
	return &TestLoggerProvider{TestLogger: NewTestLogger(level)}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *TestLoggerProvider) GetLogger() Logger {
	return p.TestLogger
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.TestLogger.With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *TestLoggerProvider) SetLevel(level Level) {
	p.rec.mu.Lock()
	defer p.rec.mu.Unlock()
	p.rec.level = level
}

// WarnFunc records library warnings as WARN entries.
func (p *TestLoggerProvider) WarnFunc() func(error) {
	return func(w error) {
		p.GetLoggerWithName("warnings").Warn(w.Error(), "warning", w)
	}
}

// Capture installs a TestLoggerProvider as the process-wide provider and
// returns it with a function restoring the previous one.
func Capture(level Level) (*TestLoggerProvider, func()) {
	previous := GetProvider()
	p := NewTestLoggerProvider(level)
	SetProvider(p)
	return p, func() { SetProvider(previous) }
}
