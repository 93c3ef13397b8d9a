// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Platform debug probe integrations.

package control

import (
	"runtime"

	"github.com/dustin/go-humanize"
)

// RegisterPlatformProbes sets platform debug metrics.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.os", func() any {
		return runtime.GOOS + "/" + runtime.GOARCH
	})
	dp.RegisterProbe("platform.memory", func() any {
		total, used, free := SystemMemory()
		return map[string]string{
			"total": humanize.IBytes(total),
			"used":  humanize.IBytes(used),
			"free":  humanize.IBytes(free),
		}
	})
}
