// File: pool/exclusive.go
// Author: momentics <momentics@gmail.com>
//
// Exclusive backend: one private block per scratchpad.

package pool

import (
	"unsafe"

	"github.com/momentics/hioload-scratch/api"
)

// exclusive owns its block outright, so distinct instances may be used from
// any number of goroutines without coordination.
type exclusive struct {
	alloc *AlignedAllocator
	ptr   unsafe.Pointer
	size  int
}

func newExclusive(alloc *AlignedAllocator, size int) *exclusive {
	return &exclusive{alloc: alloc, ptr: alloc.Allocate(size), size: size}
}

func (x *exclusive) Get() unsafe.Pointer   { return x.ptr }
func (x *exclusive) Bytes() []byte         { return view(x.ptr, x.size) }
func (x *exclusive) Size() int             { return x.size }
func (x *exclusive) Kind() api.BackendKind { return api.BackendExclusive }

func (x *exclusive) Release() {
	if x.ptr == nil {
		return
	}
	x.alloc.Free(x.ptr)
	x.ptr = nil
}

func view(ptr unsafe.Pointer, size int) []byte {
	if ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), size)
}
