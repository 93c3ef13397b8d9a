// control/sysmem.go
// Author: momentics <momentics@gmail.com>
//
// System memory probe used for default limits and platform probes.

package control

import (
	sigar "github.com/cloudfoundry/gosigar"
)

// SystemMemory returns total, used and actually-free memory in bytes.
// Zeros are returned when the platform cannot report memory.
func SystemMemory() (total, used, free uint64) {
	mem := sigar.Mem{}
	if err := mem.Get(); err != nil {
		return 0, 0, 0
	}
	return mem.Total, mem.Used, mem.ActualFree
}

// AvailableMemory returns the memory the process may still claim.
func AvailableMemory() uint64 {
	_, _, free := SystemMemory()
	return free
}
