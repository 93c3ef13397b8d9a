// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, runtime metrics and debug introspection layer for
// hioload-scratch.
//
// Provides concurrent-safe state handling primitives including:
//   - Typed configuration with environment overrides and snapshot reads
//   - Reload listeners invoked on configuration updates
//   - Metrics registry fed by the engine
//   - Debug probe registration, including platform memory probes
package control
