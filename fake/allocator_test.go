package fake_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-scratch/fake"
)

func TestAllocatorReusesLastFreed(t *testing.T) {
	a := fake.NewAllocator()
	p := a.Allocate(4096, 64)
	require.NotNil(t, p)
	assert.Zero(t, uintptr(p)%64)
	a.Free(p)

	assert.Equal(t, p, a.Allocate(1024, 64))
	q := a.Allocate(8192, 64)
	assert.NotEqual(t, p, q)
	assert.Equal(t, 1, a.Reused)
	assert.Equal(t, 2, a.Outstanding())

	assert.Panics(t, func() { a.Free(unsafe.Pointer(&struct{ x int }{})) })

	a.Fail()
	assert.Nil(t, a.Allocate(16, 16))
}
