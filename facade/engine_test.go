package facade_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-scratch/api"
	"github.com/momentics/hioload-scratch/control"
	"github.com/momentics/hioload-scratch/facade"
	"github.com/momentics/hioload-scratch/pool"
)

func newEngine(t *testing.T, concurrent bool) *facade.Engine {
	t.Helper()
	e, err := facade.New(&control.Config{
		Concurrent: concurrent,
		Backing:    control.BackingHeap,
		Workers:    2,
		QueueDepth: 8,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngineRunKernel(t *testing.T) {
	e := newEngine(t, false)
	ctx := context.Background()

	for _, key := range []api.EngineID{api.NoEngine, 7} {
		err := e.Run(ctx, 4096, key, func(b []byte) error {
			if len(b) != 4096 {
				return errors.New("wrong length")
			}
			if uintptr(unsafe.Pointer(&b[0]))%pool.PageSize != 0 {
				return errors.New("misaligned")
			}
			b[0], b[4095] = 1, 2
			return nil
		})
		require.NoError(t, err)
	}

	created := e.Factory().Created()
	assert.Equal(t, int64(1), created[api.BackendShared])
	assert.Equal(t, int64(1), created[api.BackendPooled])
	assert.Equal(t, int64(0), created[api.BackendExclusive])

	stats := e.Stats()
	assert.Equal(t, int64(2), stats["engine.runs"])
	assert.Equal(t, int64(0), stats["engine.failures"])
	assert.Equal(t, int64(0), stats["allocator.live_blocks"])
	assert.Equal(t, int64(2), stats["allocator.allocs"])
	assert.Contains(t, stats, "executor.num_workers")
	assert.Contains(t, stats, "debug.threads")
}

func TestEngineKernelErrors(t *testing.T) {
	e := newEngine(t, false)
	ctx := context.Background()
	boom := errors.New("boom")

	err := e.Run(ctx, 128, 1, func([]byte) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = e.Run(ctx, 128, 1, func([]byte) error { panic("kernel bug") })
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.ErrCodeInternal, apiErr.Code)

	err = e.Run(ctx, 0, 1, func([]byte) error { return nil })
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	_, err = e.Submit(128, 1, nil)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	// the engine keeps working and nothing leaked
	require.NoError(t, e.Run(ctx, 128, 1, func([]byte) error { return nil }))
	stats := e.Stats()
	assert.Equal(t, int64(3), stats["engine.failures"])
	assert.Equal(t, int64(0), stats["allocator.live_blocks"])
}

func TestEngineConcurrentReload(t *testing.T) {
	e := newEngine(t, false)
	ctx := context.Background()

	require.NoError(t, e.Control().SetConfig(map[string]any{"concurrent": true}))
	assert.True(t, e.Factory().Concurrent())
	assert.True(t, e.Config().Concurrent)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- e.Run(ctx, 1024, api.EngineID(i%3), func(b []byte) error {
				for j := range b {
					b[j] = byte(i)
				}
				for j := range b {
					if b[j] != byte(i) {
						return errors.New("scratch overwritten")
					}
				}
				return nil
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(16), e.Factory().Created()[api.BackendExclusive])
}

func TestEngineMaxSizeReload(t *testing.T) {
	e := newEngine(t, false)
	require.NoError(t, e.Control().SetConfig(map[string]any{"max_scratch_size": "1KiB"}))

	err := e.Run(context.Background(), 2048, 0, func([]byte) error { return nil })
	assert.ErrorIs(t, err, api.ErrResourceExhausted)
	require.NoError(t, e.Run(context.Background(), 1024, 0, func([]byte) error { return nil }))
}

func TestEngineContextCanceled(t *testing.T) {
	e := newEngine(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Run(ctx, 64, 0, func([]byte) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineClose(t *testing.T) {
	e, err := facade.New(&control.Config{Backing: control.BackingHeap, Workers: 2, QueueDepth: 4})
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		require.NoError(t, e.Run(context.Background(), 256, api.EngineID(i%2), func([]byte) error { return nil }))
	}
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	assert.Equal(t, 0, e.Factory().Threads().Len())
	err = e.Run(context.Background(), 256, 0, func([]byte) error { return nil })
	assert.ErrorIs(t, err, api.ErrExecutorClosed)

	state := e.DumpState()
	assert.Contains(t, state, "allocator")
	assert.Contains(t, state, "config")
	assert.Contains(t, state, "platform.os")
}

func TestEngineRejectsInvalidConfig(t *testing.T) {
	_, err := facade.New(&control.Config{Backing: "tape"})
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}
