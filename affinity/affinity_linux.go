//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific implementation for setting thread CPU affinity.
// sched_setaffinity with pid 0 targets the calling thread.

package affinity

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-scratch/api"
)

// processSet is the affinity mask inherited at start-up.
var processSet = func() unix.CPUSet {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		set.Zero()
		for i := 0; i < runtime.NumCPU(); i++ {
			set.Set(i)
		}
	}
	return set
}()

// setAffinityPlatform sets thread affinity to a given CPU for Linux.
func setAffinityPlatform(cpuID int) error {
	if !processSet.IsSet(cpuID) {
		return fmt.Errorf("affinity: cpu %d not in process set: %w", cpuID, api.ErrInvalidArgument)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity(cpu=%d): %w", cpuID, err)
	}
	return nil
}

func clearAffinityPlatform() error {
	set := processSet
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity(process set): %w", err)
	}
	return nil
}

func allowedPlatform() []int {
	out := make([]int, 0, processSet.Count())
	for i := 0; len(out) < cap(out); i++ {
		if processSet.IsSet(i) {
			out = append(out, i)
		}
	}
	return out
}
