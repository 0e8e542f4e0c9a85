// Package logging holds the process-wide diagnostic logger.
//
// Pipeline output proper (progress lines, mode banners) is written to an
// explicit io.Writer by the pipelines; this package is only for operator
// diagnostics on stderr.
package logging

import (
	"log"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool

	// Logf is the diagnostic logger. It defaults to log.Printf and may be
	// replaced with SetLogger.
	Logf func(format string, v ...interface{}) = log.Printf
)

// SetLogger replaces the package logger. Passing nil mutes it.
func SetLogger(f func(format string, v ...interface{})) {
	mu.Lock()
	defer mu.Unlock()
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetVerbose enables or disables Debugf output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// Printf logs unconditionally.
func Printf(format string, v ...interface{}) {
	mu.RLock()
	logf := Logf
	mu.RUnlock()
	logf(format, v...)
}

// Debugf logs only in verbose mode.
func Debugf(format string, v ...interface{}) {
	mu.RLock()
	logf, on := Logf, verbose
	mu.RUnlock()
	if on {
		logf("[DEBUG] "+format, v...)
	}
}
