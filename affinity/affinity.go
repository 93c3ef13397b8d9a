// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are located
// in separate files (affinity_linux.go, affinity_windows.go, etc.) guarded by build tags.
//
// All calls act on the calling OS thread; callers must hold runtime.LockOSThread
// for the binding to stay attached to their goroutine.

package affinity

import (
	"fmt"

	"github.com/momentics/hioload-scratch/api"
)

// SetAffinity pins current OS thread to a given logical CPU/core on supported platforms.
// The CPU must belong to Allowed(). On unsupported platforms returns an error
// wrapping api.ErrNotSupported.
func SetAffinity(cpuID int) error {
	if cpuID < 0 {
		return fmt.Errorf("affinity: cpu %d: %w", cpuID, api.ErrInvalidArgument)
	}
	return setAffinityPlatform(cpuID)
}

// ClearAffinity restores the process-wide CPU set on the current OS thread.
func ClearAffinity() error {
	return clearAffinityPlatform()
}

// Allowed lists the logical CPUs the process may run on, in ascending order.
func Allowed() []int {
	return allowedPlatform()
}
