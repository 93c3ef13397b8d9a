//go:build linux
// +build linux

// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "golang.org/x/sys/unix"

// CurrentThreadID returns the kernel thread id of the calling OS thread.
// The value is only stable for a goroutine holding runtime.LockOSThread.
func CurrentThreadID() uint64 {
	return uint64(unix.Gettid())
}
