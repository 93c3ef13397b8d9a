// Package benchmarks
// Author: momentics <momentics@gmail.com>
//
// Performance benchmarks for hioload-scratch components.

package benchmarks

import (
	"context"
	"io"
	"log"
	"os"
	"runtime"
	"testing"

	"github.com/momentics/hioload-scratch/api"
	"github.com/momentics/hioload-scratch/control"
	"github.com/momentics/hioload-scratch/facade"
	"github.com/momentics/hioload-scratch/pool"
)

func benchFactory(b *testing.B, concurrent bool) *pool.Factory {
	b.Helper()
	sys, err := pool.NewSystemAllocator(pool.BackingAuto, true)
	if err != nil {
		b.Fatal(err)
	}
	return pool.NewFactory(pool.FactoryConfig{Concurrent: concurrent}, sys)
}

// BenchmarkExclusiveCreate measures a full allocate/free per scratchpad.
func BenchmarkExclusiveCreate(b *testing.B) {
	f := benchFactory(b, true)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			f.Create(64<<10, 0).Release()
		}
	})
}

// BenchmarkSharedCreate holds one handle so later creates reuse the block.
func BenchmarkSharedCreate(b *testing.B) {
	f := benchFactory(b, false)
	tc := f.NewContext()
	hold := f.CreateIn(tc, 64<<10, api.NoEngine)
	defer hold.Release()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.CreateIn(tc, 32<<10, api.NoEngine).Release()
	}
}

// BenchmarkPooledCreate measures registry lookup with several listed entries.
func BenchmarkPooledCreate(b *testing.B) {
	f := benchFactory(b, false)
	tc := f.NewContext()
	for key := api.EngineID(1); key <= 8; key++ {
		defer f.CreateIn(tc, 4096, key).Release()
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.CreateIn(tc, 4096, api.EngineID(i%8+1)).Release()
	}
}

// BenchmarkFacadeIntegration tests end-to-end engine performance.
func BenchmarkFacadeIntegration(b *testing.B) {
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)
	cfg := control.DefaultConfig()
	cfg.Workers = runtime.NumCPU()
	eng, err := facade.New(cfg)
	if err != nil {
		b.Fatal(err)
	}
	defer eng.Close()
	kernel := func(p []byte) error {
		p[0] = 1
		return nil
	}
	ctx := context.Background()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if err := eng.Run(ctx, 16<<10, api.EngineID(i%4), kernel); err != nil {
				b.Error(err)
				return
			}
			i++
		}
	})
}
