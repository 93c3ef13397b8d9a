//go:build linux
// +build linux

// File: pool/mmap_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux allocator mapping anonymous memory outside the Go heap.
// The mapping is over-sized by the alignment and trimmed on both ends so the
// block starts on an alignment boundary. With hugePages set the block is
// advised MADV_HUGEPAGE for transparent 2 MiB pages.

package pool

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MmapAllocator allocates blocks with mmap(2). Safe for concurrent use.
type MmapAllocator struct {
	mu        sync.Mutex
	blocks    map[uintptr]uintptr // base -> mapped length
	hugePages bool
}

// NewMmapAllocator creates an mmap allocator.
func NewMmapAllocator(hugePages bool) (*MmapAllocator, error) {
	return &MmapAllocator{
		blocks:    make(map[uintptr]uintptr),
		hugePages: hugePages,
	}, nil
}

// Allocate implements api.Allocator. It returns nil when the kernel refuses
// the mapping.
func (m *MmapAllocator) Allocate(size, alignment int) unsafe.Pointer {
	checkAllocArgs(size, alignment)
	osPage := uintptr(unix.Getpagesize())
	align := uintptr(alignment)
	if align < osPage {
		align = osPage
	}
	length := alignUp(uintptr(size), osPage)
	span := length + align

	raw, err := unix.MmapPtr(-1, 0, nil, span,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		logf("[pool] mmap %d bytes failed: %v", span, err)
		return nil
	}

	head := alignUp(uintptr(raw), align) - uintptr(raw)
	ptr := unsafe.Add(raw, head)
	if head > 0 {
		if err := unix.MunmapPtr(raw, head); err != nil {
			logf("[pool] trim head of %p: %v", raw, err)
		}
	}
	if tail := span - head - length; tail > 0 {
		if err := unix.MunmapPtr(unsafe.Add(ptr, length), tail); err != nil {
			logf("[pool] trim tail of %p: %v", ptr, err)
		}
	}
	if m.hugePages {
		if err := unix.Madvise(unsafe.Slice((*byte)(ptr), length), unix.MADV_HUGEPAGE); err != nil {
			logf("[pool] madvise(MADV_HUGEPAGE) %p: %v", ptr, err)
		}
	}

	m.mu.Lock()
	m.blocks[uintptr(ptr)] = length
	m.mu.Unlock()
	return ptr
}

// Free implements api.Allocator. Freeing an unknown pointer panics.
func (m *MmapAllocator) Free(ptr unsafe.Pointer) {
	m.mu.Lock()
	length, ok := m.blocks[uintptr(ptr)]
	if ok {
		delete(m.blocks, uintptr(ptr))
	}
	m.mu.Unlock()
	if !ok {
		panic(foreignFree(ptr))
	}
	if err := unix.MunmapPtr(ptr, length); err != nil {
		logf("[pool] munmap %p: %v", ptr, err)
	}
}

// Live returns the number of outstanding mappings.
func (m *MmapAllocator) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blocks)
}
