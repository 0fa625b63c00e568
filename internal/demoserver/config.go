package demoserver

import "time"

// Config holds configuration for the fixture server.
type Config struct {
	// Port is the port on which the fixture server listens.
	Port int `mapstructure:"port"`

	// InitialVersion is the starting version for all pages (default: 1, the
	// defective one).
	InitialVersion int `mapstructure:"initial_version"`

	// SlowScriptDelay is how long /static/slow.js blocks before responding.
	SlowScriptDelay time.Duration `mapstructure:"slow_script_delay"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:            9999,
		InitialVersion:  1,
		SlowScriptDelay: 1500 * time.Millisecond,
	}
}
