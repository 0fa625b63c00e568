package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/raysh454/sitecheck/internal/browser"
	"github.com/raysh454/sitecheck/internal/logging"
	"github.com/raysh454/sitecheck/internal/runner"
	"github.com/raysh454/sitecheck/internal/store"
	"github.com/raysh454/sitecheck/internal/webclient"
)

// EnvPrefix namespaces environment overrides, e.g. SITECHECK_STORE_DRIVER.
const EnvPrefix = "SITECHECK"

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// JWTSecret signs bearer tokens (HS256). Empty disables authentication
	// and every request runs as DevCaller.
	JWTSecret       string        `mapstructure:"jwt_secret"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigin   string        `mapstructure:"allowed_origin"`
	Swagger         bool          `mapstructure:"swagger"`
}

// Config aggregates every package's settings.
type Config struct {
	Logger    logging.Config   `mapstructure:"logger"`
	Store     store.Config     `mapstructure:"store"`
	Browser   browser.Config   `mapstructure:"browser"`
	Runners   runner.Config    `mapstructure:"runners"`
	WebClient webclient.Config `mapstructure:"webclient"`
	Server    ServerConfig     `mapstructure:"server"`

	// AllowLocalURLs accepts localhost targets and explicit ports, which the
	// public-site pattern rejects.
	AllowLocalURLs bool `mapstructure:"allow_local_urls"`
}

// DefaultConfig returns a Config populated with development defaults.
func DefaultConfig() *Config {
	return &Config{
		Logger:    logging.DefaultConfig(),
		Store:     store.DefaultConfig(),
		Browser:   browser.DefaultConfig(),
		Runners:   runner.DefaultConfig(),
		WebClient: webclient.DefaultConfig(),
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			AllowedOrigin:   "*",
			Swagger:         true,
		},
	}
}

// SetDefaults registers every key with viper so environment overrides apply
// during Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.format", d.Logger.Format)
	v.SetDefault("logger.service_name", d.Logger.ServiceName)
	v.SetDefault("logger.add_source", d.Logger.AddSource)
	v.SetDefault("logger.file", d.Logger.File)
	v.SetDefault("logger.max_size", d.Logger.MaxSize)
	v.SetDefault("logger.max_backups", d.Logger.MaxBackups)
	v.SetDefault("logger.max_age", d.Logger.MaxAge)
	v.SetDefault("logger.compress", d.Logger.Compress)

	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.dsn", d.Store.DSN)

	v.SetDefault("browser.exec_path", d.Browser.ExecPath)
	v.SetDefault("browser.headless", d.Browser.Headless)
	v.SetDefault("browser.no_sandbox", d.Browser.NoSandbox)
	v.SetDefault("browser.disable_setuid_sandbox", d.Browser.DisableSetuidSandbox)
	v.SetDefault("browser.disable_dev_shm_usage", d.Browser.DisableDevShmUsage)
	v.SetDefault("browser.disable_gpu", d.Browser.DisableGPU)
	v.SetDefault("browser.extra_flags", d.Browser.ExtraFlags)
	v.SetDefault("browser.user_agent", d.Browser.UserAgent)
	v.SetDefault("browser.window_width", d.Browser.WindowWidth)
	v.SetDefault("browser.window_height", d.Browser.WindowHeight)
	v.SetDefault("browser.launch_timeout", d.Browser.LaunchTimeout)
	v.SetDefault("browser.navigation_timeout", d.Browser.NavigationTimeout)
	v.SetDefault("browser.evaluate_timeout", d.Browser.EvaluateTimeout)
	v.SetDefault("browser.idle_quiet_period", d.Browser.IdleQuietPeriod)
	v.SetDefault("browser.screenshot_quality", d.Browser.ScreenshotQuality)

	v.SetDefault("runners.lighthouse_path", d.Runners.LighthousePath)
	v.SetDefault("runners.lighthouse_args", d.Runners.LighthouseArgs)
	v.SetDefault("runners.lighthouse_timeout", d.Runners.LighthouseTimeout)
	v.SetDefault("runners.accessibility_timeout", d.Runners.AccessibilityTimeout)
	v.SetDefault("runners.browser_timeout", d.Runners.BrowserTimeout)
	v.SetDefault("runners.security_timeout", d.Runners.SecurityTimeout)
	v.SetDefault("runners.axe_script_path", d.Runners.AxeScriptPath)
	v.SetDefault("runners.axe_script_url", d.Runners.AxeScriptURL)
	v.SetDefault("runners.axe_tags", d.Runners.AxeTags)
	v.SetDefault("runners.observatory_url", d.Runners.ObservatoryURL)
	v.SetDefault("runners.composite_concurrency", d.Runners.CompositeConcurrency)
	v.SetDefault("runners.seo_page_meta", d.Runners.SEOPageMeta)

	v.SetDefault("webclient.timeout", d.WebClient.Timeout)
	v.SetDefault("webclient.user_agent", d.WebClient.UserAgent)
	v.SetDefault("webclient.requests_per_second", d.WebClient.RequestsPerSecond)
	v.SetDefault("webclient.burst", d.WebClient.Burst)
	v.SetDefault("webclient.max_body_bytes", d.WebClient.MaxBodyBytes)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.jwt_secret", d.Server.JWTSecret)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.allowed_origin", d.Server.AllowedOrigin)
	v.SetDefault("server.swagger", d.Server.Swagger)

	v.SetDefault("allow_local_urls", d.AllowLocalURLs)
}

// LoadConfig reads configuration from (in rising precedence) defaults, the
// YAML file at path (or ./sitecheck.yaml when path is empty), a .env file
// and SITECHECK_* environment variables.
func LoadConfig(v *viper.Viper, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	SetDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("sitecheck")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case store.DriverSQLite:
		if c.Store.Path == "" {
			return errors.New("store.path is required for the sqlite driver")
		}
	case store.DriverPostgres:
		if c.Store.DSN == "" {
			return errors.New("store.dsn is required for the postgres driver")
		}
	case store.DriverMemory:
	default:
		return fmt.Errorf("store.driver must be one of sqlite, postgres, memory (got %q)", c.Store.Driver)
	}
	if c.Runners.CompositeConcurrency <= 0 {
		return errors.New("runners.composite_concurrency must be a positive integer")
	}
	if c.Runners.LighthousePath == "" {
		return errors.New("runners.lighthouse_path is required")
	}
	if c.Runners.AxeScriptPath == "" && c.Runners.AxeScriptURL == "" {
		return errors.New("one of runners.axe_script_path or runners.axe_script_url is required")
	}
	if c.WebClient.RequestsPerSecond < 0 {
		return errors.New("webclient.requests_per_second must not be negative")
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	return nil
}
