// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"chime/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Network-dependent features are disabled so tests never reach out.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SignalDir = filepath.Join(base, "signals")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.History.Enabled = false
	cfg.History.Path = filepath.Join(base, "data", "history.db")
	cfg.Summarizer.Enabled = false
	cfg.LocalVoice.Enabled = false
	cfg.Daemon.PollIntervalMillis = 10

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithEngineerName sets the personalization name on the test config.
func WithEngineerName(name string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Engineer.Name = name
	}
}

// WithHistory enables the announcement log store on the test config.
func WithHistory() ConfigOption {
	return func(cfg *config.Config) {
		cfg.History.Enabled = true
	}
}
