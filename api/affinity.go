// Package api
// Author: momentics@gmail.com
//
// CPU affinity contract for worker threads.

package api

// Affinity controls execution on particular CPUs.
type Affinity interface {
	// Pin locks the calling goroutine to its OS thread and binds it to cpuID.
	Pin(cpuID int) error
	// Unpin removes affinity and unlocks the OS thread.
	Unpin() error
}
