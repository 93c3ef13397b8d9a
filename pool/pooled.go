// File: pool/pooled.go
// Author: momentics <momentics@gmail.com>
//
// Pooled backend: scratchpads with equal (size, engine id) on one thread share
// a reference-counted entry.

package pool

import (
	"unsafe"

	"github.com/momentics/hioload-scratch/api"
)

type pooled struct {
	tc   *ThreadContext
	e    *entry
	size int
}

func newPooled(tc *ThreadContext, size int, key api.EngineID) *pooled {
	return &pooled{tc: tc, e: tc.acquirePooled(size, key), size: size}
}

func (p *pooled) Get() unsafe.Pointer {
	if p.e == nil {
		return nil
	}
	return p.e.ptr
}

func (p *pooled) Bytes() []byte         { return view(p.Get(), p.size) }
func (p *pooled) Size() int             { return p.size }
func (p *pooled) Kind() api.BackendKind { return api.BackendPooled }

func (p *pooled) Release() {
	if p.e == nil {
		return
	}
	p.tc.releasePooled(p.e)
	p.e = nil
	p.tc = nil
}
