// File: pool/heap.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Portable allocator carving aligned blocks out of over-sized Go slices.

package pool

import (
	"sync"
	"unsafe"
)

// HeapAllocator allocates from the Go heap. Each block is over-allocated by
// alignment-1 bytes and the backing slice is kept reachable until Free.
// Safe for concurrent use.
type HeapAllocator struct {
	mu     sync.Mutex
	blocks map[uintptr][]byte
}

// NewHeapAllocator creates an empty heap allocator.
func NewHeapAllocator() *HeapAllocator {
	return &HeapAllocator{blocks: make(map[uintptr][]byte)}
}

// Allocate implements api.Allocator.
func (h *HeapAllocator) Allocate(size, alignment int) unsafe.Pointer {
	checkAllocArgs(size, alignment)
	backing := make([]byte, size+alignment-1)
	base := unsafe.Pointer(unsafe.SliceData(backing))
	off := alignUp(uintptr(base), uintptr(alignment)) - uintptr(base)
	ptr := unsafe.Add(base, off)

	h.mu.Lock()
	h.blocks[uintptr(ptr)] = backing
	h.mu.Unlock()
	return ptr
}

// Free implements api.Allocator. Freeing an unknown pointer panics.
func (h *HeapAllocator) Free(ptr unsafe.Pointer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.blocks[uintptr(ptr)]; !ok {
		panic(foreignFree(ptr))
	}
	delete(h.blocks, uintptr(ptr))
}

// Live returns the number of outstanding blocks.
func (h *HeapAllocator) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.blocks)
}
