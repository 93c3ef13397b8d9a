// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Typed engine configuration, environment overrides and a thread-safe store
// with reload listeners.

package control

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/momentics/hioload-scratch/api"
)

// Backing values accepted in Config.Backing.
const (
	BackingAuto = "auto"
	BackingMmap = "mmap"
	BackingHeap = "heap"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SCRATCH_"

// Config holds the scratch engine parameters.
// Concurrent and MaxScratchSize take effect on reload; the others are read
// when the engine is built.
type Config struct {
	Concurrent     bool   // hand out exclusive scratchpads only
	Backing        string // system allocator: auto, mmap or heap
	HugePages      bool   // advise transparent huge pages on mmap blocks
	MaxScratchSize int64  // largest scratchpad in bytes; 0 means unlimited
	Workers        int    // executor workers; 0 means one per CPU
	QueueDepth     int    // pending tasks per worker
	PinWorkers     bool   // pin each worker to a CPU
	VerifyOwner    bool   // check thread ownership of per-thread state
	Debug          bool   // log backend decisions
}

// DefaultConfig returns default configuration values.
// MaxScratchSize is half of the memory currently available to the process.
func DefaultConfig() *Config {
	return &Config{
		Concurrent:     false,
		Backing:        BackingAuto,
		HugePages:      true,
		MaxScratchSize: int64(AvailableMemory() / 2),
		Workers:        0,
		QueueDepth:     64,
		PinWorkers:     false,
		VerifyOwner:    false,
		Debug:          false,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch c.Backing {
	case BackingAuto, BackingMmap, BackingHeap:
	default:
		return invalid("backing", c.Backing)
	}
	if c.MaxScratchSize < 0 || int64(int(c.MaxScratchSize)) != c.MaxScratchSize {
		return invalid("max_scratch_size", c.MaxScratchSize)
	}
	if c.Workers < 0 {
		return invalid("workers", c.Workers)
	}
	if c.QueueDepth < 0 {
		return invalid("queue_depth", c.QueueDepth)
	}
	return nil
}

func invalid(key string, value any) *api.Error {
	return api.NewError(api.ErrCodeInvalidArgument, "control: invalid config value").
		WithContext("key", key).
		WithContext("value", value)
}

// LoadEnv applies SCRATCH_* environment overrides.
func (c *Config) LoadEnv() error {
	return c.loadEnv(os.LookupEnv)
}

func (c *Config) loadEnv(lookup func(string) (string, bool)) error {
	m := make(map[string]any)
	for _, key := range configKeys {
		raw, ok := lookup(EnvPrefix + strings.ToUpper(key))
		if !ok {
			continue
		}
		m[key] = raw
	}
	return c.Apply(m)
}

var configKeys = []string{
	"concurrent", "backing", "huge_pages", "max_scratch_size",
	"workers", "queue_depth", "pin_workers", "verify_owner", "debug",
}

// ToMap flattens the config for api.Control consumers.
func (c *Config) ToMap() map[string]any {
	return map[string]any{
		"concurrent":       c.Concurrent,
		"backing":          c.Backing,
		"huge_pages":       c.HugePages,
		"max_scratch_size": c.MaxScratchSize,
		"workers":          c.Workers,
		"queue_depth":      c.QueueDepth,
		"pin_workers":      c.PinWorkers,
		"verify_owner":     c.VerifyOwner,
		"debug":            c.Debug,
	}
}

// Apply merges m into c. Values may be native types or strings; sizes accept
// humanized forms such as "64MiB". On error c is left unchanged.
func (c *Config) Apply(m map[string]any) error {
	next := *c
	for k, v := range m {
		var err error
		switch k {
		case "concurrent":
			next.Concurrent, err = asBool(v)
		case "backing":
			next.Backing, err = asString(v)
		case "huge_pages":
			next.HugePages, err = asBool(v)
		case "max_scratch_size":
			next.MaxScratchSize, err = asBytes(v)
		case "workers":
			next.Workers, err = asInt(v)
		case "queue_depth":
			next.QueueDepth, err = asInt(v)
		case "pin_workers":
			next.PinWorkers, err = asBool(v)
		case "verify_owner":
			next.VerifyOwner, err = asBool(v)
		case "debug":
			next.Debug, err = asBool(v)
		default:
			return api.NewError(api.ErrCodeNotFound, "control: unknown config key").WithContext("key", k)
		}
		if err != nil {
			return invalid(k, v).WithCause(err)
		}
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func asBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return strconv.ParseBool(x)
	}
	return false, fmt.Errorf("want bool, got %T", v)
}

func asString(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("want string, got %T", v)
}

func asInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		return int(x), nil
	case string:
		return strconv.Atoi(x)
	}
	return 0, fmt.Errorf("want int, got %T", v)
}

func asBytes(v any) (int64, error) {
	if s, ok := v.(string); ok {
		n, err := humanize.ParseBytes(s)
		return int64(n), err
	}
	n, err := asInt(v)
	return int64(n), err
}

// ConfigStore keeps the current Config and notifies listeners on change.
type ConfigStore struct {
	mu        sync.RWMutex
	config    Config
	listeners []func(old, cur Config)
}

// NewConfigStore initializes a store holding cfg (DefaultConfig if nil).
func NewConfigStore(cfg *Config) *ConfigStore {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &ConfigStore{config: *cfg}
}

// Get returns a copy of the current config.
func (cs *ConfigStore) Get() Config {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.config
}

// GetSnapshot returns the current config as a map.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cfg := cs.Get()
	return cfg.ToMap()
}

// SetConfig merges newCfg and dispatches reload listeners synchronously.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) error {
	cs.mu.Lock()
	old := cs.config
	next := old
	if err := next.Apply(newCfg); err != nil {
		cs.mu.Unlock()
		return err
	}
	cs.config = next
	listeners := append([]func(old, cur Config){}, cs.listeners...)
	cs.mu.Unlock()

	for _, fn := range listeners {
		fn(old, next)
	}
	return nil
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func(old, cur Config)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}
