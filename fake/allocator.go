// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake system allocator for testing scratch backends.

package fake

import (
	"sync"
	"unsafe"

	"github.com/momentics/hioload-scratch/api"
)

// Allocator is a heap-backed api.Allocator that hands back the most recently
// freed block when it is large enough, the way a malloc free list does.
// Fail makes every further Allocate return nil.
type Allocator struct {
	mu     sync.Mutex
	blocks map[unsafe.Pointer][]byte
	free   []unsafe.Pointer
	fail   bool

	Allocs int
	Frees  int
	Reused int
}

// NewAllocator creates an empty fake allocator.
func NewAllocator() *Allocator {
	return &Allocator{blocks: make(map[unsafe.Pointer][]byte)}
}

// Allocate implements api.Allocator.
func (a *Allocator) Allocate(size, alignment int) unsafe.Pointer {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return nil
	}
	a.Allocs++
	if n := len(a.free); n > 0 {
		p := a.free[n-1]
		if len(a.blocks[p]) >= size && uintptr(p)%uintptr(alignment) == 0 {
			a.free = a.free[:n-1]
			a.Reused++
			return p
		}
	}
	buf := make([]byte, size+alignment-1)
	base := uintptr(unsafe.Pointer(&buf[0]))
	off := (uintptr(alignment) - base%uintptr(alignment)) % uintptr(alignment)
	p := unsafe.Pointer(&buf[off])
	a.blocks[p] = buf[off : off+uintptr(size)]
	return p
}

// Free implements api.Allocator. Freeing an unknown pointer panics.
func (a *Allocator) Free(ptr unsafe.Pointer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.blocks[ptr]; !ok {
		panic(api.NewError(api.ErrCodeInvalidArgument, "fake: free of unknown block"))
	}
	a.Frees++
	a.free = append(a.free, ptr)
}

// Fail makes later allocations fail.
func (a *Allocator) Fail() {
	a.mu.Lock()
	a.fail = true
	a.mu.Unlock()
}

// Outstanding returns allocations not yet freed.
func (a *Allocator) Outstanding() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Allocs - a.Frees
}

var _ api.Allocator = (*Allocator)(nil)
