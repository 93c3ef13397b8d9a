package adapters_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-scratch/adapters"
	"github.com/momentics/hioload-scratch/control"
)

func TestControlAdapterBasic(t *testing.T) {
	ctrl := adapters.NewControlAdapter(control.NewConfigStore(&control.Config{Backing: control.BackingHeap}))
	assert.Equal(t, false, ctrl.GetConfig()["concurrent"])

	called := 0
	ctrl.OnReload(func() { called++ })
	require.NoError(t, ctrl.SetConfig(map[string]any{"concurrent": true}))
	assert.Equal(t, 1, called)
	assert.Equal(t, true, ctrl.GetConfig()["concurrent"])

	require.Error(t, ctrl.SetConfig(map[string]any{"backing": 5}))
	assert.Equal(t, 1, called)

	ctrl.SetMetric("scratch.live", 3)
	ctrl.RegisterDebugProbe("hello", func() any { return "world" })
	stats := ctrl.Stats()
	assert.Equal(t, 3, stats["scratch.live"])
	assert.Equal(t, "world", stats["debug.hello"])
	assert.Contains(t, stats, "debug.platform.cpus")
}
