package concord

import "fmt"

// Config is a serialisable representation of the runtime configuration. The
// zero-value is useful — all nested fields inherit their package defaults.
type Config struct {
	Lifecycle LifecycleConfig `json:"lifecycle" yaml:"lifecycle"`
}

// LifecycleConfig controls the Task Lifecycle Engine beyond the compile-time
// constants the governance core fixes (pool capacity, max tasks, hierarchy
// depth, children, yield period).
type LifecycleConfig struct {
	// MaxParallelWorkers bounds concurrent Parallel-mode workers; 0 means
	// unbounded.
	MaxParallelWorkers int `json:"maxParallelWorkers" yaml:"maxParallelWorkers"`
	// AutoCascade invokes on_parent_destroyed automatically the moment a
	// task reaches Terminated, instead of requiring the embedder to call it.
	AutoCascade bool `json:"autoCascade" yaml:"autoCascade"`
}

// DefaultConfig returns a Config populated with the runtime's default
// values. Callers may modify the returned struct before passing it to
// WithConfig.
func DefaultConfig() *Config {
	return &Config{
		Lifecycle: LifecycleConfig{
			MaxParallelWorkers: 0,
			AutoCascade:        false,
		},
	}
}

// Validate returns an error describing the first invalid setting, or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Lifecycle.MaxParallelWorkers < 0 {
		return fmt.Errorf("lifecycle.maxParallelWorkers must be >= 0")
	}
	return nil
}
