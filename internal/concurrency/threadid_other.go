//go:build !linux && !windows
// +build !linux,!windows

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

// CurrentThreadID returns 0 on platforms without a portable thread id, which
// makes every caller share one thread slot. Pass contexts explicitly there.
func CurrentThreadID() uint64 {
	return 0
}
