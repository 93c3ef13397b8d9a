package adapters_test

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-scratch/adapters"
	"github.com/momentics/hioload-scratch/affinity"
)

func TestAffinityAdapterPinUnpin(t *testing.T) {
	a := adapters.NewAffinityAdapter()
	require.NoError(t, a.Unpin())
	assert.Equal(t, -1, a.CPU())
	if runtime.GOOS != "linux" {
		t.Skip("pinning is only verified on linux")
	}
	cpus := affinity.Allowed()
	require.NoError(t, a.Pin(cpus[0]))
	assert.Equal(t, cpus[0], a.CPU())
	require.NoError(t, a.Pin(cpus[len(cpus)-1]))
	require.NoError(t, a.Unpin())
	assert.Equal(t, -1, a.CPU())
	require.Error(t, a.Pin(-1))
}
