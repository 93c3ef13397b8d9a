// File: pool/factory.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Factory selecting the scratchpad backend from the concurrency mode and the
// engine id:
//
//	concurrent mode          -> exclusive (key ignored)
//	otherwise, key == 0      -> thread-shared singleton
//	otherwise                -> pooled by (size, key)

package pool

import (
	"sync/atomic"

	"github.com/momentics/hioload-scratch/api"
)

// FactoryConfig is fixed at construction; Concurrent and MaxSize may later
// be changed with SetConcurrent and SetMaxSize.
type FactoryConfig struct {
	Concurrent  bool // always hand out exclusive scratchpads
	VerifyOwner bool // panic when a thread context is used off its thread
	MaxSize     int  // largest accepted request in bytes; 0 means unlimited
}

// Factory creates scratchpads. Create is safe for concurrent use; the shared
// and pooled scratchpads it returns belong to the creating thread.
type Factory struct {
	alloc      *AlignedAllocator
	threads    *ThreadRegistry
	concurrent atomic.Bool
	maxSize    atomic.Int64
	created    [3]atomic.Int64 // indexed by api.BackendKind
}

// NewFactory builds a factory on top of the system allocator sys.
func NewFactory(cfg FactoryConfig, sys api.Allocator) *Factory {
	alloc := NewAlignedAllocator(sys)
	f := &Factory{
		alloc:   alloc,
		threads: NewThreadRegistry(alloc, cfg.VerifyOwner),
	}
	f.concurrent.Store(cfg.Concurrent)
	f.maxSize.Store(int64(cfg.MaxSize))
	return f
}

// Create returns a scratchpad of size bytes for engine key. Shared and pooled
// scratchpads use the calling OS thread's context, so callers in
// non-concurrent mode should hold runtime.LockOSThread until Release.
func (f *Factory) Create(size int, key api.EngineID) api.Scratchpad {
	return f.create(nil, size, key)
}

// CreateIn is Create against an explicit thread context.
func (f *Factory) CreateIn(tc *ThreadContext, size int, key api.EngineID) api.Scratchpad {
	if tc == nil {
		panic(api.NewError(api.ErrCodeInvalidArgument, "pool: nil thread context"))
	}
	return f.create(tc, size, key)
}

func (f *Factory) create(tc *ThreadContext, size int, key api.EngineID) api.Scratchpad {
	f.checkSize(size)
	kind := f.Select(key)
	if kind != api.BackendExclusive && tc == nil {
		tc = f.threads.Current()
	}
	var sp api.Scratchpad
	switch kind {
	case api.BackendExclusive:
		sp = newExclusive(f.alloc, size)
	case api.BackendShared:
		sp = newShared(tc, size)
	default:
		sp = newPooled(tc, size, key)
	}
	f.created[kind].Add(1)
	return sp
}

// Select reports the backend Create would use for key.
func (f *Factory) Select(key api.EngineID) api.BackendKind {
	switch {
	case f.concurrent.Load():
		return api.BackendExclusive
	case key == api.NoEngine:
		return api.BackendShared
	default:
		return api.BackendPooled
	}
}

func (f *Factory) checkSize(size int) {
	if size <= 0 {
		panic(api.NewError(api.ErrCodeInvalidArgument, "pool: scratchpad size must be positive").
			WithContext("size", size))
	}
	if limit := f.maxSize.Load(); limit > 0 && int64(size) > limit {
		panic(api.NewError(api.ErrCodeResourceExhausted, "pool: scratchpad size over limit").
			WithContext("size", size).
			WithContext("max", limit))
	}
}

// SetConcurrent switches the mode for scratchpads created afterwards.
func (f *Factory) SetConcurrent(on bool) {
	if f.concurrent.Swap(on) != on {
		logf("[pool] factory concurrent mode = %v", on)
	}
}

// Concurrent reports the current mode.
func (f *Factory) Concurrent() bool { return f.concurrent.Load() }

// SetMaxSize changes the request limit; 0 removes it.
func (f *Factory) SetMaxSize(n int) { f.maxSize.Store(int64(n)) }

// NewContext returns an unbound thread context backed by this factory's allocator.
func (f *Factory) NewContext() *ThreadContext { return NewThreadContext(f.alloc) }

// Threads returns the per-thread context registry.
func (f *Factory) Threads() *ThreadRegistry { return f.threads }

// Allocator returns the aligned allocator shared by all backends.
func (f *Factory) Allocator() *AlignedAllocator { return f.alloc }

// Created returns how many scratchpads of each kind were handed out.
func (f *Factory) Created() map[api.BackendKind]int64 {
	out := make(map[api.BackendKind]int64, len(f.created))
	for k := range f.created {
		out[api.BackendKind(k)] = f.created[k].Load()
	}
	return out
}

// KindOf reports which backend produced sp.
func KindOf(sp api.Scratchpad) (api.BackendKind, bool) {
	k, ok := sp.(interface{ Kind() api.BackendKind })
	if !ok {
		return 0, false
	}
	return k.Kind(), true
}
