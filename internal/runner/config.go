package runner

import "time"

// Config holds engine settings and per-engine time budgets.
type Config struct {
	LighthousePath    string        `mapstructure:"lighthouse_path"`
	LighthouseArgs    []string      `mapstructure:"lighthouse_args"`
	LighthouseTimeout time.Duration `mapstructure:"lighthouse_timeout"`

	AccessibilityTimeout time.Duration `mapstructure:"accessibility_timeout"`
	BrowserTimeout       time.Duration `mapstructure:"browser_timeout"`
	SecurityTimeout      time.Duration `mapstructure:"security_timeout"`

	// AxeScriptPath wins over AxeScriptURL when both are set.
	AxeScriptPath string   `mapstructure:"axe_script_path"`
	AxeScriptURL  string   `mapstructure:"axe_script_url"`
	AxeTags       []string `mapstructure:"axe_tags"`

	ObservatoryURL string `mapstructure:"observatory_url"`

	CompositeConcurrency int  `mapstructure:"composite_concurrency"`
	SEOPageMeta          bool `mapstructure:"seo_page_meta"`
}

func DefaultConfig() Config {
	return Config{
		LighthousePath:       "lighthouse",
		LighthouseArgs:       []string{"--preset=desktop"},
		LighthouseTimeout:    3 * time.Minute,
		AccessibilityTimeout: 2 * time.Minute,
		BrowserTimeout:       2 * time.Minute,
		SecurityTimeout:      90 * time.Second,
		AxeScriptURL:         "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.10.2/axe.min.js",
		AxeTags:              []string{"wcag2a", "wcag2aa", "wcag21a", "wcag21aa"},
		ObservatoryURL:       "https://observatory-api.mdn.mozilla.net/api/v2/scan",
		CompositeConcurrency: 2,
		SEOPageMeta:          true,
	}
}
