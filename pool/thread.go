// File: pool/thread.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-thread scratch state and the registry mapping OS threads to it.

package pool

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/momentics/hioload-scratch/api"
	"github.com/momentics/hioload-scratch/internal/concurrency"
)

// ThreadContext holds the scratch state of one execution thread: the shared
// singleton block and the pool registry. Only the owning thread may create or
// release scratchpads against it; counters are atomic so Stats can be read
// from anywhere.
type ThreadContext struct {
	tid    uint64
	bound  bool
	verify bool
	alloc  *AlignedAllocator

	sharedPtr      unsafe.Pointer
	sharedCap      atomic.Int64
	sharedRefs     atomic.Int64
	sharedReallocs atomic.Int64

	pool *registry
	live atomic.Int64
}

// ThreadStats is a point-in-time view of a ThreadContext.
type ThreadStats struct {
	ThreadID       uint64
	SharedCapacity int64
	SharedRefs     int64
	SharedReallocs int64
	PoolEntries    int
	Live           int64
}

func newThreadContext(alloc *AlignedAllocator, tid uint64, bound, verify bool) *ThreadContext {
	return &ThreadContext{
		tid:    tid,
		bound:  bound,
		verify: verify,
		alloc:  alloc,
		pool:   newRegistry(),
	}
}

// NewThreadContext creates a context not bound to any OS thread. The caller
// guarantees it is used by one goroutine at a time.
func NewThreadContext(alloc *AlignedAllocator) *ThreadContext {
	return newThreadContext(alloc, 0, false, false)
}

// ThreadID returns the OS thread the context is bound to (0 when unbound).
func (tc *ThreadContext) ThreadID() uint64 { return tc.tid }

// Stats returns the context counters.
func (tc *ThreadContext) Stats() ThreadStats {
	return ThreadStats{
		ThreadID:       tc.tid,
		SharedCapacity: tc.sharedCap.Load(),
		SharedRefs:     tc.sharedRefs.Load(),
		SharedReallocs: tc.sharedReallocs.Load(),
		PoolEntries:    tc.pool.len(),
		Live:           tc.live.Load(),
	}
}

func (tc *ThreadContext) checkOwner() {
	if !tc.verify || !tc.bound {
		return
	}
	if cur := concurrency.CurrentThreadID(); cur != 0 && cur != tc.tid {
		panic(api.NewError(api.ErrCodeInternal, "pool: thread context used off its thread").
			WithContext("owner", tc.tid).
			WithContext("caller", cur))
	}
}

// acquireShared grows the singleton block to at least size and takes a reference.
func (tc *ThreadContext) acquireShared(size int) {
	tc.checkOwner()
	if capacity := tc.sharedCap.Load(); int64(size) > capacity {
		if tc.sharedPtr != nil {
			tc.alloc.Free(tc.sharedPtr)
			tc.sharedPtr = nil
			tc.sharedCap.Store(0)
		}
		tc.sharedPtr = tc.alloc.Allocate(size)
		tc.sharedCap.Store(int64(size))
		tc.sharedReallocs.Add(1)
		logf("[pool] thread %d: shared block grown %d -> %d bytes", tc.tid, capacity, size)
	}
	tc.sharedRefs.Add(1)
	tc.live.Add(1)
}

func (tc *ThreadContext) releaseShared() {
	tc.checkOwner()
	switch n := tc.sharedRefs.Add(-1); {
	case n == 0:
		tc.alloc.Free(tc.sharedPtr)
		tc.sharedPtr = nil
		tc.sharedCap.Store(0)
		logf("[pool] thread %d: shared block freed", tc.tid)
	case n < 0:
		panic(api.NewError(api.ErrCodeInternal, "pool: shared block released with zero references").
			WithContext("thread", tc.tid))
	}
	tc.live.Add(-1)
}

// acquirePooled returns a referenced entry for (size, key), reusing the first
// exact match or creating and listing a new one.
func (tc *ThreadContext) acquirePooled(size int, key api.EngineID) *entry {
	tc.checkOwner()
	if e := tc.pool.find(size, key); e != nil {
		tc.live.Add(1)
		return e.acquire()
	}
	e := newEntry(tc.alloc, size, key, tc.dropEntry)
	tc.pool.add(e)
	tc.live.Add(1)
	logf("[pool] thread %d: new entry size=%d key=%d (%d listed)", tc.tid, size, key, tc.pool.len())
	return e
}

func (tc *ThreadContext) releasePooled(e *entry) {
	tc.checkOwner()
	e.release()
	tc.live.Add(-1)
}

// dropEntry is the entry deleter: unlist first, then free.
func (tc *ThreadContext) dropEntry(e *entry) {
	if !tc.pool.remove(e) {
		panic(api.NewError(api.ErrCodeInternal, "pool: released entry missing from registry").
			WithContext("size", e.size).
			WithContext("key", e.key))
	}
	tc.alloc.Free(e.ptr)
	e.ptr = nil
	logf("[pool] thread %d: entry size=%d key=%d freed", tc.tid, e.size, e.key)
}

// ThreadRegistry maps OS thread ids to their ThreadContext.
type ThreadRegistry struct {
	mu       sync.RWMutex
	alloc    *AlignedAllocator
	verify   bool
	contexts map[uint64]*ThreadContext
}

// NewThreadRegistry creates an empty registry. With verifyOwner set, contexts
// check on every operation that they run on their own thread.
func NewThreadRegistry(alloc *AlignedAllocator, verifyOwner bool) *ThreadRegistry {
	return &ThreadRegistry{
		alloc:    alloc,
		verify:   verifyOwner,
		contexts: make(map[uint64]*ThreadContext),
	}
}

// Context obtains or creates the context of thread tid.
func (r *ThreadRegistry) Context(tid uint64) *ThreadContext {
	r.mu.RLock()
	tc, ok := r.contexts[tid]
	r.mu.RUnlock()
	if ok {
		return tc
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if tc, ok := r.contexts[tid]; ok {
		return tc
	}
	tc = newThreadContext(r.alloc, tid, true, r.verify)
	r.contexts[tid] = tc
	return tc
}

// Current returns the context of the calling OS thread. The caller should
// hold runtime.LockOSThread for as long as it keeps scratchpads from it.
func (r *ThreadRegistry) Current() *ThreadContext {
	return r.Context(concurrency.CurrentThreadID())
}

// Forget drops the context of thread tid. It fails with api.ErrContextBusy
// while scratchpads created from it are still live.
func (r *ThreadRegistry) Forget(tid uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tc, ok := r.contexts[tid]
	if !ok {
		return fmt.Errorf("pool: thread %d: %w", tid, api.ErrNotFound)
	}
	if n := tc.live.Load(); n != 0 {
		return fmt.Errorf("pool: thread %d has %d live scratchpads: %w", tid, n, api.ErrContextBusy)
	}
	delete(r.contexts, tid)
	return nil
}

// Len returns the number of known threads.
func (r *ThreadRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contexts)
}

// Snapshot returns the stats of every context ordered by thread id.
func (r *ThreadRegistry) Snapshot() []ThreadStats {
	r.mu.RLock()
	out := make([]ThreadStats, 0, len(r.contexts))
	for _, tc := range r.contexts {
		out = append(out, tc.Stats())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ThreadID < out[j].ThreadID })
	return out
}
