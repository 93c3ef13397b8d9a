// File: pool/aligned.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Page-aligned leaf allocator shared by every scratch backend.

package pool

import (
	"unsafe"

	"github.com/momentics/hioload-scratch/api"
)

// PageSize is the alignment of every scratch block (one 2 MiB huge page).
const PageSize = 2 << 20

// AlignedAllocator hands out PageSize-aligned blocks from a system allocator.
// Allocation failure is fatal: it panics with an *api.Error carrying
// api.ErrCodeResourceExhausted instead of returning an error.
type AlignedAllocator struct {
	sys api.Allocator
}

// NewAlignedAllocator wraps sys.
func NewAlignedAllocator(sys api.Allocator) *AlignedAllocator {
	return &AlignedAllocator{sys: sys}
}

// Allocate returns a PageSize-aligned block of at least size bytes.
func (a *AlignedAllocator) Allocate(size int) unsafe.Pointer {
	ptr := a.sys.Allocate(size, PageSize)
	if ptr == nil {
		panic(api.NewError(api.ErrCodeResourceExhausted, "pool: aligned allocation failed").
			WithContext("size", size))
	}
	if uintptr(ptr)%PageSize != 0 {
		panic(api.NewError(api.ErrCodeInternal, "pool: allocator returned misaligned block").
			WithContext("size", size).
			WithContext("addr", uintptr(ptr)))
	}
	return ptr
}

// Free releases a block returned by Allocate. Free(nil) is a no-op.
func (a *AlignedAllocator) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	a.sys.Free(ptr)
}

// System returns the wrapped allocator.
func (a *AlignedAllocator) System() api.Allocator {
	return a.sys
}

func checkAllocArgs(size, alignment int) {
	if size <= 0 || alignment <= 0 || alignment&(alignment-1) != 0 {
		panic(api.NewError(api.ErrCodeInvalidArgument, "pool: bad allocation request").
			WithContext("size", size).
			WithContext("alignment", alignment))
	}
}

func foreignFree(ptr unsafe.Pointer) *api.Error {
	return api.NewError(api.ErrCodeInvalidArgument, "pool: free of unknown block (double free?)").
		WithContext("addr", uintptr(ptr))
}

func alignUp(n, alignment uintptr) uintptr {
	return (n + alignment - 1) &^ (alignment - 1)
}
