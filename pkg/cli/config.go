package cli

import (
	"github.com/poltergeist/cmakext/pkg/env"
	"github.com/poltergeist/cmakext/pkg/notifier"
	"github.com/poltergeist/cmakext/pkg/orchestrator"
)

// Config holds all CLI configuration, making it testable and eliminating globals.
type Config struct {
	ConfigFile string
	Verbosity  string
	LogFile    string
	Version    string

	// Runner executes the build tool; nil means os/exec
	Runner orchestrator.Runner
	// Environment captures the environment snapshot; nil means env.Capture
	Environment func() env.Snapshot
	// Notify delivers desktop notifications; nil means beeep
	Notify notifier.SendFunc
}

// NewConfig creates a new CLI configuration with defaults
func NewConfig() *Config {
	return &Config{
		Verbosity: "info",
		Version:   "dev",
	}
}
