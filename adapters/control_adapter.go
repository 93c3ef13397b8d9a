// Package adapters
// Author: momentics <momentics@gmail.com>
//
// Control adapter implementing api.Control interface using control package primitives.

package adapters

import (
	"github.com/momentics/hioload-scratch/api"
	"github.com/momentics/hioload-scratch/control"
)

// ControlAdapter joins a config store, a metrics registry and debug probes.
type ControlAdapter struct {
	config  *control.ConfigStore
	metrics *control.MetricsRegistry
	debug   *control.DebugProbes
}

// NewControlAdapter wraps store; a nil store starts from control.DefaultConfig.
func NewControlAdapter(store *control.ConfigStore) *ControlAdapter {
	if store == nil {
		store = control.NewConfigStore(nil)
	}
	adapter := &ControlAdapter{
		config:  store,
		metrics: control.NewMetricsRegistry(),
		debug:   control.NewDebugProbes(),
	}
	control.RegisterPlatformProbes(adapter.debug)
	return adapter
}

func (c *ControlAdapter) GetConfig() map[string]any {
	return c.config.GetSnapshot()
}

func (c *ControlAdapter) SetConfig(cfg map[string]any) error {
	return c.config.SetConfig(cfg)
}

// Stats merges metrics with probe output under the "debug." prefix.
func (c *ControlAdapter) Stats() map[string]any {
	stats := c.metrics.GetSnapshot()
	debugStats := c.debug.DumpState()
	combined := make(map[string]any, len(stats)+len(debugStats))
	for k, v := range stats {
		combined[k] = v
	}
	for k, v := range debugStats {
		combined["debug."+k] = v
	}
	return combined
}

func (c *ControlAdapter) OnReload(fn func()) {
	c.config.OnReload(func(_, _ control.Config) { fn() })
}

func (c *ControlAdapter) SetMetric(key string, value any) {
	c.metrics.Set(key, value)
}

func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

// Store returns the typed config store.
func (c *ControlAdapter) Store() *control.ConfigStore { return c.config }

// Metrics returns the metrics registry.
func (c *ControlAdapter) Metrics() *control.MetricsRegistry { return c.metrics }

// Debug returns the probe registry.
func (c *ControlAdapter) Debug() *control.DebugProbes { return c.debug }

var _ api.Control = (*ControlAdapter)(nil)
var _ api.Debug = (*control.DebugProbes)(nil)
