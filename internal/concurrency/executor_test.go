package concurrency_test

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-scratch/internal/concurrency"
)

func TestExecutorRunsTasksOnLockedThreads(t *testing.T) {
	ex, err := concurrency.NewExecutor(concurrency.Options{Workers: 2})
	require.NoError(t, err)
	defer ex.Close()

	known := map[uint64]bool{}
	for _, w := range ex.Workers() {
		known[w.ThreadID()] = true
	}

	var wg sync.WaitGroup
	var mismatches atomic.Int32
	for i := 0; i < 100; i++ {
		wg.Add(1)
		require.NoError(t, ex.Submit(func(w *concurrency.Worker) {
			defer wg.Done()
			if concurrency.CurrentThreadID() != w.ThreadID() {
				mismatches.Add(1)
			}
		}))
	}
	wg.Wait()
	assert.Zero(t, mismatches.Load())
	assert.Equal(t, 2, ex.NumWorkers())
	if runtime.GOOS == "linux" {
		assert.Len(t, known, 2, "workers must be locked to distinct threads")
	}
}

func TestExecutorCloseDrainsAndRejects(t *testing.T) {
	var started, stopped atomic.Int32
	ex, err := concurrency.NewExecutor(concurrency.Options{
		Workers: 3,
		OnStart: func(*concurrency.Worker) { started.Add(1) },
		OnStop:  func(*concurrency.Worker) { stopped.Add(1) },
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, started.Load())

	var ran atomic.Int32
	for i := 0; i < 20; i++ {
		require.NoError(t, ex.Submit(func(*concurrency.Worker) { ran.Add(1) }))
	}
	ex.Close()
	ex.Close()

	assert.EqualValues(t, 20, ran.Load())
	assert.EqualValues(t, 3, stopped.Load())
	assert.ErrorIs(t, ex.Submit(func(*concurrency.Worker) {}), concurrency.ErrExecutorClosed)

	stats := ex.Stats()
	assert.EqualValues(t, 20, stats["completed_tasks"])
	assert.EqualValues(t, 0, stats["pending_tasks"])
	select {
	case <-ex.Done():
	default:
		t.Fatal("Done not closed after Close")
	}
}

func TestExecutorRecoversPanics(t *testing.T) {
	ex, err := concurrency.NewExecutor(concurrency.Options{Workers: 1})
	require.NoError(t, err)

	require.NoError(t, ex.Submit(func(*concurrency.Worker) { panic("boom") }))
	done := make(chan struct{})
	require.NoError(t, ex.Submit(func(*concurrency.Worker) { close(done) }))
	<-done
	ex.Close()
	assert.EqualValues(t, 1, ex.Stats()["panicked_tasks"])
}

func TestExecutorRejectsNegativeWorkers(t *testing.T) {
	_, err := concurrency.NewExecutor(concurrency.Options{Workers: -1})
	require.ErrorIs(t, err, concurrency.ErrInvalidWorkerCount)
}
