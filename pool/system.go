// File: pool/system.go
// Author: momentics <momentics@gmail.com>
//
// Backing selection for the system allocator.

package pool

import (
	"fmt"
	"log"

	"github.com/momentics/hioload-scratch/api"
)

// Backing names accepted by NewSystemAllocator.
const (
	BackingAuto = "auto"
	BackingMmap = "mmap"
	BackingHeap = "heap"
)

// NewSystemAllocator builds the allocator for the given backing. "auto"
// prefers mmap and falls back to the Go heap where mmap is unsupported.
func NewSystemAllocator(backing string, hugePages bool) (api.Allocator, error) {
	switch backing {
	case BackingHeap:
		return NewHeapAllocator(), nil
	case BackingMmap:
		m, err := NewMmapAllocator(hugePages)
		if err != nil {
			return nil, err
		}
		return m, nil
	case BackingAuto, "":
		m, err := NewMmapAllocator(hugePages)
		if err != nil {
			log.Printf("[pool] mmap backing unavailable (%v), using Go heap", err)
			return NewHeapAllocator(), nil
		}
		return m, nil
	default:
		return nil, fmt.Errorf("pool: unknown backing %q: %w", backing, api.ErrInvalidArgument)
	}
}
