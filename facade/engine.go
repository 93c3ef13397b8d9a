// File: facade/engine.go
// Unified facade layer for hioload-scratch.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Engine aggregates the scratchpad factory, the pinned-worker executor and the
// control plane behind a single type. Kernels submitted to the engine run on a
// worker thread with a scratchpad created against that thread's context, so
// shared and pooled backends never cross threads.

package facade

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/momentics/hioload-scratch/adapters"
	"github.com/momentics/hioload-scratch/api"
	"github.com/momentics/hioload-scratch/control"
	"github.com/momentics/hioload-scratch/internal/concurrency"
	"github.com/momentics/hioload-scratch/pool"
)

// Engine runs scratch kernels on pinned workers.
type Engine struct {
	ctrl    *adapters.ControlAdapter
	sys     *pool.CountingAllocator
	factory *pool.Factory
	ex      *concurrency.Executor

	runs     atomic.Int64
	failures atomic.Int64

	stopMu   sync.Mutex
	stopErrs []error

	closeOnce sync.Once
	closeErr  error
}

// New builds an engine from cfg. A nil cfg means control.DefaultConfig().
func New(cfg *control.Config) (*Engine, error) {
	if cfg == nil {
		cfg = control.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sys, err := pool.NewSystemAllocator(cfg.Backing, cfg.HugePages)
	if err != nil {
		return nil, fmt.Errorf("facade: system allocator: %w", err)
	}
	e := &Engine{
		ctrl: adapters.NewControlAdapter(control.NewConfigStore(cfg)),
		sys:  pool.NewCountingAllocator(sys),
	}
	e.factory = pool.NewFactory(pool.FactoryConfig{
		Concurrent:  cfg.Concurrent,
		VerifyOwner: cfg.VerifyOwner,
		MaxSize:     int(cfg.MaxScratchSize),
	}, e.sys)
	if cfg.Debug {
		pool.SetLogger(log.Default())
	}

	e.ex, err = concurrency.NewExecutor(concurrency.Options{
		Workers:    cfg.Workers,
		QueueDepth: cfg.QueueDepth,
		Pin:        cfg.PinWorkers,
		OnStop:     e.forgetWorker,
	})
	if err != nil {
		return nil, fmt.Errorf("facade: executor: %w", err)
	}

	e.ctrl.Store().OnReload(e.reload)
	e.registerProbes()
	log.Printf("[facade] engine started: %d workers, backing=%s, concurrent=%v, max scratch %s",
		e.ex.NumWorkers(), cfg.Backing, cfg.Concurrent, humanize.IBytes(uint64(cfg.MaxScratchSize)))
	return e, nil
}

// workerThread returns the registry key of w. Platforms without thread ids
// fall back to a per-worker key.
func workerThread(w *concurrency.Worker) uint64 {
	if tid := w.ThreadID(); tid != 0 {
		return tid
	}
	return ^uint64(w.ID())
}

func (e *Engine) forgetWorker(w *concurrency.Worker) {
	err := e.factory.Threads().Forget(workerThread(w))
	if err == nil || errors.Is(err, api.ErrNotFound) {
		return
	}
	log.Printf("[facade] worker %d: %v", w.ID(), err)
	e.stopMu.Lock()
	e.stopErrs = append(e.stopErrs, err)
	e.stopMu.Unlock()
}

func (e *Engine) reload(old, cur control.Config) {
	if old.Concurrent != cur.Concurrent {
		e.factory.SetConcurrent(cur.Concurrent)
	}
	if old.MaxScratchSize != cur.MaxScratchSize {
		e.factory.SetMaxSize(int(cur.MaxScratchSize))
	}
	if old.Debug != cur.Debug {
		if cur.Debug {
			pool.SetLogger(log.Default())
		} else {
			pool.SetLogger(nil)
		}
	}
	if old.Backing != cur.Backing || old.HugePages != cur.HugePages ||
		old.Workers != cur.Workers || old.QueueDepth != cur.QueueDepth ||
		old.PinWorkers != cur.PinWorkers || old.VerifyOwner != cur.VerifyOwner {
		log.Printf("[facade] reload: allocator and executor settings apply to new engines only")
	}
}

func (e *Engine) registerProbes() {
	e.ctrl.RegisterDebugProbe("allocator", func() any {
		st := e.sys.Stats()
		return map[string]any{
			"allocs":      st.Allocs,
			"frees":       st.Frees,
			"live_blocks": st.LiveBlocks,
			"live_bytes":  humanize.IBytes(uint64(st.LiveBytes)),
		}
	})
	e.ctrl.RegisterDebugProbe("threads", func() any {
		return e.factory.Threads().Snapshot()
	})
	e.ctrl.RegisterDebugProbe("config", func() any {
		return e.ctrl.GetConfig()
	})
}

// Run executes kernel on a worker with a scratchpad of size bytes for engine
// key and waits for it. Panics raised while creating the scratchpad or in the
// kernel are returned as *api.Error.
func (e *Engine) Run(ctx context.Context, size int, key api.EngineID, kernel api.Kernel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := e.Submit(size, key, kernel)
	if err != nil {
		return err
	}
	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.ex.Done():
		select {
		case err := <-res:
			return err
		default:
			return api.ErrExecutorClosed
		}
	}
}

// Submit queues kernel and returns a channel receiving its result.
func (e *Engine) Submit(size int, key api.EngineID, kernel api.Kernel) (<-chan error, error) {
	if kernel == nil {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "facade: nil kernel")
	}
	res := make(chan error, 1)
	err := e.ex.Submit(func(w *concurrency.Worker) {
		res <- e.execute(w, size, key, kernel)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) execute(w *concurrency.Worker, size int, key api.EngineID, kernel api.Kernel) (err error) {
	e.runs.Add(1)
	defer func() {
		if r := recover(); r != nil {
			if apiErr, ok := r.(*api.Error); ok {
				err = apiErr
			} else {
				err = api.NewError(api.ErrCodeInternal, fmt.Sprint(r)).
					WithContext("worker", w.ID())
			}
		}
		if err != nil {
			e.failures.Add(1)
		}
	}()
	tc := e.factory.Threads().Context(workerThread(w))
	sp := e.factory.CreateIn(tc, size, key)
	defer sp.Release()
	return kernel(sp.Bytes())
}

// Stats refreshes and returns engine metrics.
func (e *Engine) Stats() map[string]any {
	st := e.sys.Stats()
	m := map[string]any{
		"allocator.allocs":      st.Allocs,
		"allocator.frees":       st.Frees,
		"allocator.live_blocks": st.LiveBlocks,
		"allocator.live_bytes":  st.LiveBytes,
		"engine.runs":           e.runs.Load(),
		"engine.failures":       e.failures.Load(),
		"engine.concurrent":     e.factory.Concurrent(),
		"threads.contexts":      e.factory.Threads().Len(),
	}
	for kind, n := range e.factory.Created() {
		m["scratch.created."+kind.String()] = n
	}
	for k, v := range e.ex.Stats() {
		m["executor."+k] = v
	}
	e.ctrl.Metrics().SetMany(m)
	return e.ctrl.Stats()
}

// Control returns the control plane.
func (e *Engine) Control() api.Control { return e.ctrl }

// Config returns the current configuration.
func (e *Engine) Config() control.Config { return e.ctrl.Store().Get() }

// DumpState returns every debug probe.
func (e *Engine) DumpState() map[string]any { return e.ctrl.Debug().DumpState() }

// Factory returns the underlying scratchpad factory.
func (e *Engine) Factory() *pool.Factory { return e.factory }

// Close drains the executor and drops the worker thread contexts. It reports
// contexts that still had live scratchpads. Close is idempotent.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.ex.Close()
		e.stopMu.Lock()
		e.closeErr = errors.Join(e.stopErrs...)
		e.stopMu.Unlock()
		if st := e.sys.Stats(); st.LiveBlocks != 0 {
			log.Printf("[facade] engine closed with %d live blocks (%s)",
				st.LiveBlocks, humanize.IBytes(uint64(st.LiveBytes)))
		} else {
			log.Printf("[facade] engine closed")
		}
	})
	return e.closeErr
}
