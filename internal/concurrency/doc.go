// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrency primitives for hioload-scratch: OS thread identity lookup and a
// pinned-worker executor whose workers each own one locked OS thread, so that
// per-thread scratch state stays with the goroutine that uses it.
package concurrency
