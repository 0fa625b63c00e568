package logging

// Config controls the zap backend.
type Config struct {
	Level string `mapstructure:"level"`
	// Format is "json" or "console".
	Format      string `mapstructure:"format"`
	ServiceName string `mapstructure:"service_name"`
	AddSource   bool   `mapstructure:"add_source"`

	// File enables a rotating JSON log file next to console output.
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig returns console-friendly JSON logging at info level.
func DefaultConfig() Config {
	return Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "sitecheck",
		MaxSize:     50,
		MaxBackups:  3,
		MaxAge:      14,
	}
}
