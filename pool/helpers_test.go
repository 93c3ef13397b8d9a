package pool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-scratch/api"
)

// requirePanicCode runs fn and checks it panics with an *api.Error of code.
func requirePanicCode(t *testing.T, code api.ErrorCode, fn func()) {
	t.Helper()
	var recovered any
	func() {
		defer func() { recovered = recover() }()
		fn()
	}()
	require.NotNil(t, recovered, "expected panic")
	err, ok := recovered.(error)
	require.True(t, ok, "panic value %v is not an error", recovered)
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr), "panic %v is not *api.Error", err)
	require.Equal(t, code, apiErr.Code, apiErr.Error())
}

func newTestFactory(cfg FactoryConfig) (*Factory, *CountingAllocator) {
	counting := NewCountingAllocator(NewHeapAllocator())
	return NewFactory(cfg, counting), counting
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}

func allEqual(b []byte, v byte) bool {
	for _, x := range b {
		if x != v {
			return false
		}
	}
	return true
}
