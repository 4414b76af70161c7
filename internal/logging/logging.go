// Package logging provides the structured logger shared by the world
// streaming core's background goroutines (workers, persistence thread).
//
// Errors that occur inside a background goroutine cannot be returned to a
// caller, so SPEC_FULL §7 routes them here instead: Warn for drop-and-
// continue conditions, Error for anything that leaves state degraded until
// the next retry, Fatal only for init-time failures the host must act on.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.RWMutex
	global *zap.Logger
)

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	global = l
}

// L returns the process-wide logger. Safe for concurrent use.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// SetLogger replaces the process-wide logger, e.g. with a development
// logger in tests or a verbose CLI flag.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	global = l
}

// NewNop returns a logger that discards everything, used by unit tests
// that don't want test output cluttered with background-goroutine noise.
func NewNop() *zap.Logger {
	return zap.NewNop()
}
