// Package pool
// Author: momentics <momentics@gmail.com>
//
// Scratch-memory layer for hioload-scratch.
// Provides page-aligned block allocation (mmap-backed on Linux, aligned Go heap
// elsewhere), reference-counted pool entries, three scratchpad backends
// (exclusive, thread-shared singleton, pooled by size and engine id) and the
// Factory selecting between them.
//
// Per-thread state lives in explicit ThreadContext values kept by a
// ThreadRegistry; the shared and pooled backends touch only the context they
// were created in and are therefore not safe for use from other threads.
// See factory.go, thread.go and aligned.go for implementation details.
package pool
