// File: internal/concurrency/executor.go
// Package concurrency implements a pinned-worker task executor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Every worker goroutine locks its OS thread for its whole life, so a task
// observes a stable CurrentThreadID and can use thread-scoped scratch state
// without synchronisation.

package concurrency

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-scratch/affinity"
)

// TaskFunc is a unit of work executed on a worker thread.
type TaskFunc func(w *Worker)

// Options configures an Executor.
type Options struct {
	Workers    int           // number of workers; <= 0 means runtime.NumCPU()
	QueueDepth int           // pending tasks per worker; <= 0 means 64
	Pin        bool          // bind worker i to the i-th allowed CPU (round robin)
	OnStart    func(*Worker) // runs on the worker thread before the first task
	OnStop     func(*Worker) // runs on the worker thread after the last task
}

// Worker describes one executor thread. Its accessors are safe to call from
// any goroutine once NewExecutor has returned.
type Worker struct {
	id  int
	tid uint64
	cpu int
}

// ID returns the worker index in [0, NumWorkers).
func (w *Worker) ID() int { return w.id }

// ThreadID returns the OS thread id the worker is locked to.
func (w *Worker) ThreadID() uint64 { return w.tid }

// CPU returns the CPU the worker is pinned to, or -1.
func (w *Worker) CPU() int { return w.cpu }

// Executor manages a fixed pool of OS-thread-locked workers.
type Executor struct {
	opts    Options
	tasks   chan TaskFunc
	closeCh chan struct{}
	doneCh  chan struct{}
	closed  atomic.Bool
	once    sync.Once
	wg      sync.WaitGroup
	workers []*Worker

	totalTasks     atomic.Int64
	completedTasks atomic.Int64
	panickedTasks  atomic.Int64
}

// NewExecutor starts the workers and returns once every worker has locked its
// thread and run OnStart.
func NewExecutor(opts Options) (*Executor, error) {
	if opts.Workers < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorkerCount, opts.Workers)
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = 64
	}
	e := &Executor{
		opts:    opts,
		tasks:   make(chan TaskFunc, opts.Workers*opts.QueueDepth),
		closeCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
		workers: make([]*Worker, opts.Workers),
	}

	var cpus []int
	if opts.Pin {
		cpus = affinity.Allowed()
	}
	var ready sync.WaitGroup
	ready.Add(opts.Workers)
	e.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		w := &Worker{id: i, cpu: -1}
		if len(cpus) > 0 {
			w.cpu = cpus[i%len(cpus)]
		}
		e.workers[i] = w
		go e.run(w, &ready)
	}
	ready.Wait()
	go func() {
		e.wg.Wait()
		close(e.doneCh)
	}()
	return e, nil
}

func (e *Executor) run(w *Worker, ready *sync.WaitGroup) {
	defer e.wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	w.tid = CurrentThreadID()
	if w.cpu >= 0 {
		if err := affinity.SetAffinity(w.cpu); err != nil {
			log.Printf("[executor] worker %d: pin to cpu %d failed: %v", w.id, w.cpu, err)
			w.cpu = -1
		}
	}
	if e.opts.OnStart != nil {
		e.opts.OnStart(w)
	}
	ready.Done()

	defer func() {
		if e.opts.OnStop != nil {
			e.opts.OnStop(w)
		}
		if w.cpu >= 0 {
			if err := affinity.ClearAffinity(); err != nil {
				log.Printf("[executor] worker %d: unpin failed: %v", w.id, err)
			}
		}
	}()

	for {
		select {
		case task := <-e.tasks:
			e.execute(w, task)
		case <-e.closeCh:
			// drain what was accepted before Close
			for {
				select {
				case task := <-e.tasks:
					e.execute(w, task)
				default:
					return
				}
			}
		}
	}
}

// execute runs the task and updates statistics, recovering from panics.
func (e *Executor) execute(w *Worker, task TaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			e.panickedTasks.Add(1)
			log.Printf("[executor] worker %d: task panic: %v", w.id, r)
		}
		e.completedTasks.Add(1)
	}()
	task(w)
}

// Submit enqueues a task, blocking while the queue is full. It returns
// ErrExecutorClosed once Close has been called. A task accepted concurrently
// with Close may be dropped; Done reports when no worker is left.
func (e *Executor) Submit(task TaskFunc) error {
	if e.closed.Load() {
		return ErrExecutorClosed
	}
	e.totalTasks.Add(1)
	select {
	case e.tasks <- task:
		return nil
	case <-e.closeCh:
		e.totalTasks.Add(-1)
		return ErrExecutorClosed
	}
}

// Workers returns the worker descriptors.
func (e *Executor) Workers() []*Worker {
	out := make([]*Worker, len(e.workers))
	copy(out, e.workers)
	return out
}

// NumWorkers returns the number of workers.
func (e *Executor) NumWorkers() int {
	return len(e.workers)
}

// Done is closed after every worker has exited.
func (e *Executor) Done() <-chan struct{} {
	return e.doneCh
}

// Close stops accepting tasks, lets workers drain the queue and waits for them.
// It must not be called from a task.
func (e *Executor) Close() {
	e.once.Do(func() {
		e.closed.Store(true)
		close(e.closeCh)
	})
	<-e.doneCh
}

// Stats returns basic executor metrics.
func (e *Executor) Stats() map[string]int64 {
	total := e.totalTasks.Load()
	completed := e.completedTasks.Load()
	return map[string]int64{
		"total_tasks":     total,
		"completed_tasks": completed,
		"panicked_tasks":  e.panickedTasks.Load(),
		"pending_tasks":   total - completed,
		"num_workers":     int64(e.NumWorkers()),
	}
}
