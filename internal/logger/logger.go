package logger

import (
	"sync"

	"go.uber.org/zap"
)

// Log levels accepted by the "log.level" config key.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

var (
	// globalLogger holds the process-wide logger instance.
	globalLogger *Logger
	once         sync.Once
)

// Get returns the process logger configured with the provided level.
// The first call initializes the logger; later calls ignore the level
// and return the already initialized instance.
func Get(level string) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(level)
	})
	return globalLogger
}

// Nop returns a logger that discards everything. Used by tests and as the
// fallback when a component is built without a logger.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// For scopes the logger to one tank so every line carries its serial number.
func (l *Logger) For(serial string) *Logger {
	if l == nil {
		return Nop()
	}
	return &Logger{SugaredLogger: l.With("tank", serial)}
}
