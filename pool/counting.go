// File: pool/counting.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Allocation accounting wrapper used for metrics and leak checks.

package pool

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/momentics/hioload-scratch/api"
)

// CountingAllocator forwards to another allocator and counts what passes
// through it. Safe for concurrent use.
type CountingAllocator struct {
	next api.Allocator

	allocs     atomic.Int64
	frees      atomic.Int64
	liveBlocks atomic.Int64
	liveBytes  atomic.Int64

	sizes sync.Map // uintptr -> int
}

// NewCountingAllocator wraps next.
func NewCountingAllocator(next api.Allocator) *CountingAllocator {
	return &CountingAllocator{next: next}
}

// Allocate implements api.Allocator.
func (c *CountingAllocator) Allocate(size, alignment int) unsafe.Pointer {
	ptr := c.next.Allocate(size, alignment)
	if ptr == nil {
		return nil
	}
	c.sizes.Store(uintptr(ptr), size)
	c.allocs.Add(1)
	c.liveBlocks.Add(1)
	c.liveBytes.Add(int64(size))
	return ptr
}

// Free implements api.Allocator.
func (c *CountingAllocator) Free(ptr unsafe.Pointer) {
	c.next.Free(ptr)
	if size, ok := c.sizes.LoadAndDelete(uintptr(ptr)); ok {
		c.liveBytes.Add(-int64(size.(int)))
	}
	c.frees.Add(1)
	c.liveBlocks.Add(-1)
}

// Stats returns a snapshot of the counters.
func (c *CountingAllocator) Stats() api.AllocatorStats {
	return api.AllocatorStats{
		Allocs:     c.allocs.Load(),
		Frees:      c.frees.Load(),
		LiveBlocks: c.liveBlocks.Load(),
		LiveBytes:  c.liveBytes.Load(),
	}
}

var _ api.Allocator = (*CountingAllocator)(nil)
var _ api.Allocator = (*HeapAllocator)(nil)
var _ api.Allocator = (*MmapAllocator)(nil)
