package pool

import (
	"log"
	"sync"

	"github.com/momentics/hioload-scratch/api"
)

var (
	defaultOnce    sync.Once
	defaultFactory *Factory
)

// Default returns a process-wide non-concurrent Factory over the automatic
// system backing, so callers without an engine share one thread registry.
func Default() *Factory {
	defaultOnce.Do(func() {
		sys, err := NewSystemAllocator(BackingAuto, false)
		if err != nil {
			log.Printf("[pool] default backing failed (%v), using Go heap", err)
			sys = NewHeapAllocator()
		}
		defaultFactory = NewFactory(FactoryConfig{}, sys)
	})
	return defaultFactory
}

// Create is a shortcut for Default().Create.
func Create(size int, key api.EngineID) api.Scratchpad {
	return Default().Create(size, key)
}
