// File: pool/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Thread-local list of pool entries. Lookups are a linear exact-match scan;
// there is no eviction. An entry leaves the list when its last reference is
// released, before its block is freed, so the list never holds a dead entry.

package pool

import (
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-scratch/api"
)

type registry struct {
	q    *queue.Queue
	size atomic.Int64 // mirrors q.Length() for cross-thread stats
}

func newRegistry() *registry {
	return &registry{q: queue.New()}
}

// find returns the first entry matching (size, key), or nil.
func (r *registry) find(size int, key api.EngineID) *entry {
	for i := 0; i < r.q.Length(); i++ {
		if e := r.q.Get(i).(*entry); e.match(size, key) {
			return e
		}
	}
	return nil
}

func (r *registry) add(e *entry) {
	r.q.Add(e)
	r.size.Store(int64(r.q.Length()))
}

// remove drops e, keeping the order of the others. It reports whether e was listed.
func (r *registry) remove(e *entry) bool {
	found := false
	for n := r.q.Length(); n > 0; n-- {
		x := r.q.Remove().(*entry)
		if x == e && !found {
			found = true
			continue
		}
		r.q.Add(x)
	}
	r.size.Store(int64(r.q.Length()))
	return found
}

func (r *registry) len() int {
	return int(r.size.Load())
}
