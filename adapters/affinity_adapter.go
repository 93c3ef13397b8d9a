// File: adapters/affinity_adapter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Description:
//   Adapter implementing the api.Affinity interface, delegating to the
//   affinity package. Pin locks the calling goroutine to its OS thread so the
//   binding follows it; Unpin undoes both.

package adapters

import (
	"runtime"

	"github.com/momentics/hioload-scratch/affinity"
	"github.com/momentics/hioload-scratch/api"
)

// AffinityAdapter implements api.Affinity for the calling goroutine.
// It tracks the current CPU binding; use one adapter per goroutine.
type AffinityAdapter struct {
	currentCPU int
	pinned     bool
}

// NewAffinityAdapter creates an unpinned adapter.
func NewAffinityAdapter() *AffinityAdapter {
	return &AffinityAdapter{currentCPU: -1}
}

// Pin binds the calling goroutine's thread to cpuID.
func (a *AffinityAdapter) Pin(cpuID int) error {
	runtime.LockOSThread()
	if err := affinity.SetAffinity(cpuID); err != nil {
		if !a.pinned {
			runtime.UnlockOSThread()
		}
		return err
	}
	if a.pinned {
		// already locked once; keep a single lock level
		runtime.UnlockOSThread()
	}
	a.currentCPU = cpuID
	a.pinned = true
	return nil
}

// Unpin clears the CPU binding and unlocks the OS thread.
func (a *AffinityAdapter) Unpin() error {
	if !a.pinned {
		return nil
	}
	if err := affinity.ClearAffinity(); err != nil {
		return err
	}
	runtime.UnlockOSThread()
	a.pinned = false
	a.currentCPU = -1
	return nil
}

// CPU returns the pinned CPU, or -1.
func (a *AffinityAdapter) CPU() int { return a.currentCPU }

var _ api.Affinity = (*AffinityAdapter)(nil)
