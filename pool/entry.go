// File: pool/entry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reference-counted scratch block keyed by (size, engine id).

package pool

import (
	"sync/atomic"
	"unsafe"

	"github.com/momentics/hioload-scratch/api"
)

// entry owns one aligned block. It starts with one reference; the release
// that drops the count to zero runs the deleter exactly once.
type entry struct {
	ptr     unsafe.Pointer
	size    int
	key     api.EngineID
	refs    atomic.Int32
	deleter func(*entry)
}

func newEntry(alloc *AlignedAllocator, size int, key api.EngineID, deleter func(*entry)) *entry {
	e := &entry{
		ptr:     alloc.Allocate(size),
		size:    size,
		key:     key,
		deleter: deleter,
	}
	e.refs.Store(1)
	return e
}

// acquire adds a reference and returns the entry.
func (e *entry) acquire() *entry {
	e.refs.Add(1)
	return e
}

// release drops a reference.
func (e *entry) release() {
	switch n := e.refs.Add(-1); {
	case n == 0:
		d := e.deleter
		e.deleter = nil
		d(e)
	case n < 0:
		panic(api.NewError(api.ErrCodeInternal, "pool: entry released with zero references").
			WithContext("size", e.size).
			WithContext("key", e.key))
	}
}

// match reports exact equality of size and key.
func (e *entry) match(size int, key api.EngineID) bool {
	return e.size == size && e.key == key
}

func (e *entry) count() int32 {
	return e.refs.Load()
}
