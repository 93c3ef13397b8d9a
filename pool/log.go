// File: pool/log.go
// Author: momentics <momentics@gmail.com>
//
// Debug logging hook for the scratch backends. Silent unless a logger is set.

package pool

import (
	"log"
	"sync/atomic"
)

var debugLogger atomic.Pointer[log.Logger]

// SetLogger routes backend debug messages to l. A nil logger silences them.
func SetLogger(l *log.Logger) {
	debugLogger.Store(l)
}

func logf(format string, args ...any) {
	if l := debugLogger.Load(); l != nil {
		l.Printf(format, args...)
	}
}
