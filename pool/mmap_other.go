//go:build !linux
// +build !linux

// File: pool/mmap_other.go
// Author: momentics <momentics@gmail.com>
//
// The mmap backing is Linux-only; other platforms use HeapAllocator.

package pool

import (
	"fmt"
	"unsafe"

	"github.com/momentics/hioload-scratch/api"
)

// MmapAllocator is unavailable on this platform.
type MmapAllocator struct{}

// NewMmapAllocator always fails with api.ErrNotSupported.
func NewMmapAllocator(hugePages bool) (*MmapAllocator, error) {
	return nil, fmt.Errorf("pool: mmap backing: %w", api.ErrNotSupported)
}

func (m *MmapAllocator) Allocate(size, alignment int) unsafe.Pointer { return nil }

func (m *MmapAllocator) Free(ptr unsafe.Pointer) { panic(foreignFree(ptr)) }

func (m *MmapAllocator) Live() int { return 0 }
