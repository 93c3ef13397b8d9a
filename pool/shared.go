// File: pool/shared.go
// Author: momentics <momentics@gmail.com>
//
// Thread-shared singleton backend: every live scratchpad of a thread aliases
// one block that grows to the largest size requested while any is live.

package pool

import (
	"unsafe"

	"github.com/momentics/hioload-scratch/api"
)

// shared reads the block pointer from its context on every Get: creating a
// larger shared scratchpad on the same thread moves the block, so earlier
// handles must re-fetch Get/Bytes after that.
type shared struct {
	tc   *ThreadContext
	size int
}

func newShared(tc *ThreadContext, size int) *shared {
	tc.acquireShared(size)
	return &shared{tc: tc, size: size}
}

func (s *shared) Get() unsafe.Pointer {
	if s.tc == nil {
		return nil
	}
	return s.tc.sharedPtr
}

func (s *shared) Bytes() []byte         { return view(s.Get(), s.size) }
func (s *shared) Size() int             { return s.size }
func (s *shared) Kind() api.BackendKind { return api.BackendShared }

func (s *shared) Release() {
	if s.tc == nil {
		return
	}
	s.tc.releaseShared()
	s.tc = nil
}
