//go:build windows
// +build windows

// File: affinity/affinity_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows-specific implementation for setting thread CPU affinity.
// Only the first processor group (64 CPUs) is addressable.

package affinity

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/windows"

	"github.com/momentics/hioload-scratch/api"
)

var procSetThreadAffinityMask = windows.NewLazySystemDLL("kernel32.dll").NewProc("SetThreadAffinityMask")

func setThreadMask(mask uintptr) error {
	ret, _, err := procSetThreadAffinityMask.Call(uintptr(windows.CurrentThread()), mask)
	if ret == 0 {
		return err
	}
	return nil
}

// setAffinityPlatform sets thread affinity to a given CPU for Windows.
func setAffinityPlatform(cpuID int) error {
	if cpuID > 63 || cpuID >= runtime.NumCPU() {
		return fmt.Errorf("affinity: cpu %d outside first processor group: %w", cpuID, api.ErrNotSupported)
	}
	return setThreadMask(uintptr(1) << cpuID)
}

func clearAffinityPlatform() error {
	n := runtime.NumCPU()
	if n >= 64 {
		return setThreadMask(^uintptr(0))
	}
	return setThreadMask(uintptr(1)<<n - 1)
}

func allowedPlatform() []int {
	n := runtime.NumCPU()
	if n > 64 {
		n = 64
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
