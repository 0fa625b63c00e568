package browser

import "time"

// Config controls how Chrome is launched and how long page operations may
// take. Sandbox flags are deployment policy; containers usually need
// NoSandbox and DisableDevShmUsage.
type Config struct {
	ExecPath             string   `mapstructure:"exec_path"`
	Headless             bool     `mapstructure:"headless"`
	NoSandbox            bool     `mapstructure:"no_sandbox"`
	DisableSetuidSandbox bool     `mapstructure:"disable_setuid_sandbox"`
	DisableDevShmUsage   bool     `mapstructure:"disable_dev_shm_usage"`
	DisableGPU           bool     `mapstructure:"disable_gpu"`
	ExtraFlags           []string `mapstructure:"extra_flags"`
	UserAgent            string   `mapstructure:"user_agent"`
	WindowWidth          int      `mapstructure:"window_width"`
	WindowHeight         int      `mapstructure:"window_height"`

	LaunchTimeout     time.Duration `mapstructure:"launch_timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	EvaluateTimeout   time.Duration `mapstructure:"evaluate_timeout"`
	// IdleQuietPeriod is how long the network must stay silent before a
	// page counts as idle.
	IdleQuietPeriod time.Duration `mapstructure:"idle_quiet_period"`
	// ScreenshotQuality 100 yields PNG, anything lower JPEG.
	ScreenshotQuality int `mapstructure:"screenshot_quality"`
}

// DefaultConfig returns settings suited to running inside a container.
func DefaultConfig() Config {
	return Config{
		Headless:             true,
		NoSandbox:            true,
		DisableSetuidSandbox: true,
		DisableDevShmUsage:   true,
		DisableGPU:           true,
		WindowWidth:          1366,
		WindowHeight:         768,
		LaunchTimeout:        30 * time.Second,
		NavigationTimeout:    45 * time.Second,
		EvaluateTimeout:      60 * time.Second,
		IdleQuietPeriod:      500 * time.Millisecond,
		ScreenshotQuality:    80,
	}
}
