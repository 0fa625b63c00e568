package webclient

import "time"

// Config tunes the net/http backend.
type Config struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`

	// RequestsPerSecond caps outbound request rate; zero disables limiting.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`

	// MaxBodyBytes truncates response bodies; zero means unlimited.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Timeout:           30 * time.Second,
		UserAgent:         "sitecheck/1.0",
		RequestsPerSecond: 2,
		Burst:             2,
		MaxBodyBytes:      10 << 20,
	}
}
