package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		jsonOut, quiet = false, false
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRunCommand(t *testing.T) {
	out, err := executeCmd(t, "run", "-q", "--backing", "heap", "--workers", "2",
		"--size", "4KiB", "--keys", "2", "--iterations", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "engine.runs")
	assert.Contains(t, out, "scratch.created.pooled")
	assert.Contains(t, out, "bench.ops_per_sec")
}

func TestRunCommandJSON(t *testing.T) {
	out, err := executeCmd(t, "run", "-q", "--json", "--backing", "heap", "--workers", "1",
		"--concurrent", "--size", "1KiB", "--iterations", "10")
	require.NoError(t, err)
	var stats map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.EqualValues(t, 10, stats["scratch.created.exclusive"])
	assert.EqualValues(t, 0, stats["bench.failed"])
	assert.EqualValues(t, 0, stats["allocator.live_blocks"])
}

func TestRunCommandRejectsBadSize(t *testing.T) {
	_, err := executeCmd(t, "run", "-q", "--size", "lots")
	require.Error(t, err)
}

func TestConfigCommand(t *testing.T) {
	t.Setenv("SCRATCH_CONCURRENT", "true")
	out, err := executeCmd(t, "config", "--json")
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, true, m["concurrent"])
	assert.Contains(t, m, "memory.total")
}
