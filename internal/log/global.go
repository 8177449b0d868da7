package log

import (
	"sync"
)

var (
	defaultLogger *Logger
	loggerMu      sync.RWMutex
)

// SetDefaultLogger sets the logger used by dry runs that were not given one.
func SetDefaultLogger(logger *Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	defaultLogger = logger
}

// DefaultLogger returns the process-wide default logger, creating one from
// DefaultConfig on first use.
func DefaultLogger() *Logger {
	loggerMu.RLock()
	logger := defaultLogger
	loggerMu.RUnlock()
	if logger != nil {
		return logger
	}

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = Default()
	}
	return defaultLogger
}
