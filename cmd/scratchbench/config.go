package main

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/momentics/hioload-scratch/control"
)

func init() {
	rootCmd.AddCommand(newConfigCmd())
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `The config command prints the configuration an engine would start with,
after SCRATCH_* environment overrides, together with host memory figures.

Example:
  scratchbench config
  SCRATCH_CONCURRENT=true scratchbench config --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := control.DefaultConfig()
			if err := cfg.LoadEnv(); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			total, used, free := control.SystemMemory()
			m := cfg.ToMap()
			m["max_scratch_size"] = humanize.IBytes(uint64(cfg.MaxScratchSize))
			m["memory.total"] = humanize.IBytes(total)
			m["memory.used"] = humanize.IBytes(used)
			m["memory.free"] = humanize.IBytes(free)

			out := cmd.OutOrStdout()
			if jsonOut {
				return printJSON(out, m)
			}
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "%-18s %v\n", k, m[k])
			}
			return nil
		},
	}
}
