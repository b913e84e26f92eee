package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/YuminosukeSato/collisionforest/pkg/errors"
)

var (
	providerMu sync.RWMutex
	provider   LoggerProvider
)

func init() {
	SetProvider(NewZerologProvider(os.Stderr, LevelWarn, true))
}

// warnRouter is implemented by providers that can log library warnings.
type warnRouter interface {
	WarnFunc() func(error)
}

// SetProvider replaces the process-wide provider used by GetLogger and
// GetLoggerWithName. Library warnings (errors.Warn) are routed to the new
// provider when it exposes a WarnFunc, and to the fallback handler otherwise.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = p
	if wr, ok := p.(warnRouter); ok {
		errors.SetZerologWarnFunc(wr.WarnFunc())
	} else {
		errors.SetZerologWarnFunc(nil)
	}
}

// GetProvider returns the current provider.
func GetProvider() LoggerProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider
}

// GetLogger returns the default logger of the current provider.
func GetLogger() Logger {
	return GetProvider().GetLogger()
}

// GetLoggerWithName returns a component logger of the current provider.
func GetLoggerWithName(name string) Logger {
	return GetProvider().GetLoggerWithName(name)
}

// ParseLevel converts "debug", "info", "warn" or "error" into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewValidationError("log-level", "must be one of debug, info, warn, error", level)
	}
}

// NewProvider builds a provider for an output format: "console" (zerolog
// console writer), "json" (zerolog JSON lines) or "cloud" (slog JSON with
// Cloud Logging attribute names).
func NewProvider(format string, w io.Writer, level Level) (LoggerProvider, error) {
	switch strings.ToLower(format) {
	case "console", "":
		return NewZerologProvider(w, level, true), nil
	case "json":
		return NewZerologProvider(w, level, false), nil
	case "cloud":
		return NewSlogProvider(w, level), nil
	default:
		return nil, errors.NewValidationError("log-format", "must be one of console, json, cloud", format)
	}
}
