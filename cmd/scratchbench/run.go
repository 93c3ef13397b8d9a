package main

import (
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/momentics/hioload-scratch/api"
	"github.com/momentics/hioload-scratch/control"
	"github.com/momentics/hioload-scratch/facade"
)

type runOptions struct {
	workers    int
	concurrent bool
	size       string
	keys       int
	iterations int
	backing    string
}

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run synthetic kernels against the engine",
		Long: `The run command starts an engine, submits kernels that fill and checksum
their scratchpad, and prints throughput and engine statistics.

Engine ids are cycled over [0, keys]; id 0 selects the thread-shared backend
and the others the pooled backend unless --concurrent is set.

Example:
  scratchbench run --size 64KiB --iterations 10000
  scratchbench run --concurrent --workers 4 --keys 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd, opts)
		},
	}
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Executor workers (0 = one per CPU)")
	cmd.Flags().BoolVar(&opts.concurrent, "concurrent", false, "Hand out exclusive scratchpads only")
	cmd.Flags().StringVarP(&opts.size, "size", "s", "64KiB", "Scratchpad size")
	cmd.Flags().IntVarP(&opts.keys, "keys", "k", 1, "Number of distinct non-zero engine ids")
	cmd.Flags().IntVarP(&opts.iterations, "iterations", "n", 1000, "Kernels to run")
	cmd.Flags().StringVar(&opts.backing, "backing", "", "System allocator: auto, mmap or heap")
	return cmd
}

func runBench(cmd *cobra.Command, opts *runOptions) error {
	if opts.iterations <= 0 || opts.keys < 0 {
		return fmt.Errorf("iterations must be positive and keys non-negative")
	}
	size, err := humanize.ParseBytes(opts.size)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", opts.size, err)
	}
	if size == 0 {
		return fmt.Errorf("size must be positive")
	}

	cfg := control.DefaultConfig()
	if err := cfg.LoadEnv(); err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if flags.Changed("concurrent") {
		cfg.Concurrent = opts.concurrent
	}
	if flags.Changed("backing") {
		cfg.Backing = opts.backing
	}
	if quiet {
		log.SetOutput(io.Discard)
	}

	eng, err := facade.New(cfg)
	if err != nil {
		return err
	}

	results := make([]<-chan error, 0, opts.iterations)
	start := time.Now()
	for i := 0; i < opts.iterations; i++ {
		key := api.EngineID(0)
		if opts.keys > 0 {
			key = api.EngineID(i % (opts.keys + 1))
		}
		res, err := eng.Submit(int(size), key, checksumKernel(byte(i)))
		if err != nil {
			_ = eng.Close()
			return err
		}
		results = append(results, res)
	}
	failed := 0
	for _, res := range results {
		if err := <-res; err != nil {
			failed++
			log.Printf("[scratchbench] kernel failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	stats := eng.Stats()
	if err := eng.Close(); err != nil {
		return err
	}
	stats["bench.elapsed"] = elapsed.String()
	stats["bench.failed"] = failed
	stats["bench.ops_per_sec"] = fmt.Sprintf("%.0f", float64(opts.iterations)/elapsed.Seconds())
	stats["bench.throughput"] = humanize.IBytes(uint64(float64(size) * float64(opts.iterations) / elapsed.Seconds())) + "/s"

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, stats)
	}
	printStats(out, stats)
	if failed > 0 {
		return fmt.Errorf("%d of %d kernels failed", failed, opts.iterations)
	}
	return nil
}

// checksumKernel fills the scratchpad with seed and verifies it reads back.
func checksumKernel(seed byte) api.Kernel {
	return func(b []byte) error {
		for i := range b {
			b[i] = seed + byte(i)
		}
		for i := range b {
			if b[i] != seed+byte(i) {
				return fmt.Errorf("scratch corrupted at offset %d", i)
			}
		}
		return nil
	}
}

func printStats(w io.Writer, stats map[string]any) {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		if len(k) > 6 && k[:6] == "debug." {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%-32s %v\n", k, stats[k])
	}
}
