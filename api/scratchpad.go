// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Scratch-memory contracts shared by the allocator backends, the engine facade
// and external kernel code.

package api

import "unsafe"

// EngineID is an opaque key identifying an execution context. Zero means
// "no engine association".
type EngineID uint64

// NoEngine is the default key passed by callers that do not bind a scratchpad
// to an engine.
const NoEngine EngineID = 0

// Scratchpad is a temporary working buffer handed to a kernel invocation.
// The handle is owned by the caller and must be released exactly once.
type Scratchpad interface {
	// Get returns the raw base pointer of the buffer.
	// The pointer is valid until Release.
	Get() unsafe.Pointer

	// Bytes returns a view of exactly Size() bytes starting at Get().
	Bytes() []byte

	// Size returns the requested size in bytes.
	Size() int

	// Release gives the buffer back to its backend. Calling Release on an
	// already released handle is a no-op.
	Release()
}

// Allocator is the outbound aligned allocate/free primitive.
type Allocator interface {
	// Allocate returns a block of at least size bytes whose address is a
	// multiple of alignment, or nil if the request cannot be satisfied.
	Allocate(size, alignment int) unsafe.Pointer

	// Free releases a block previously returned by Allocate.
	Free(ptr unsafe.Pointer)
}

// Kernel is a unit of numeric work consuming a scratch buffer.
type Kernel func(scratch []byte) error

// AllocatorStats aggregates allocation accounting.
type AllocatorStats struct {
	Allocs     int64 // blocks allocated since start
	Frees      int64 // blocks freed since start
	LiveBlocks int64 // blocks currently allocated
	LiveBytes  int64 // bytes currently allocated (requested sizes)
}

// BackendKind names the scratchpad backend a Factory selected.
type BackendKind int

const (
	BackendExclusive BackendKind = iota
	BackendShared
	BackendPooled
)

func (k BackendKind) String() string {
	switch k {
	case BackendExclusive:
		return "exclusive"
	case BackendShared:
		return "shared"
	case BackendPooled:
		return "pooled"
	default:
		return "unknown"
	}
}
