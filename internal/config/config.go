package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
)

// Config holds daemon configuration values.
//
// Precedence: defaults < CCBROWSER_* environment variables < CLI flags.
type Config struct {
	// Logging
	LogLevel string `envconfig:"LOG_LEVEL"`
	JSONLog  bool   `envconfig:"JSON_LOG"`

	// HTTP daemon
	HTTPPort       int           `envconfig:"HTTP_PORT"`
	RequestTimeout time.Duration `ignored:"true"`
	ReplayTimeout  time.Duration `ignored:"true"`
	BodyLimitBytes int64         `ignored:"true"`

	// Browser
	CDPPort     int    `envconfig:"CDP_PORT"`
	Browser     string `envconfig:"BROWSER"`
	BrowserPath string `envconfig:"BROWSER_PATH"`
	Headless    bool   `envconfig:"HEADLESS"`
	Mode        string `envconfig:"MODE"`

	// Base directories
	DataDir  string `envconfig:"DATA_DIR"`
	VaultDir string `envconfig:"VAULT_DIR"`

	// Sessions
	SessionTTL         time.Duration `envconfig:"SESSION_TTL"`
	SessionSweepPeriod time.Duration `ignored:"true"`

	// Recorder
	RecorderDrainPeriod    time.Duration `ignored:"true"`
	RecorderNavDedupWindow time.Duration `envconfig:"NAV_DEDUP_WINDOW"`

	// CAPTCHA / vision backend
	CaptchaMaxAttempts int     `envconfig:"CAPTCHA_MAX_ATTEMPTS"`
	AnthropicAPIKey    string  `envconfig:"ANTHROPIC_API_KEY"`
	VisionRPS          float64 `ignored:"true"`
	VisionBurst        int     `ignored:"true"`
}

// Load builds a Config by combining defaults, environment variables, and CLI
// flags. Caller should pass the serve command so its flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{
		LogLevel:               DefaultLogLevel,
		JSONLog:                DefaultJSONLog,
		HTTPPort:               DefaultHTTPPort,
		RequestTimeout:         DefaultRequestTimeout,
		ReplayTimeout:          DefaultReplayTimeout,
		BodyLimitBytes:         DefaultBodyLimitBytes,
		CDPPort:                DefaultCDPPort,
		Browser:                "chrome",
		Headless:               DefaultHeadless,
		Mode:                   DefaultMode,
		DataDir:                defaultDataDir(DefaultDirName),
		VaultDir:               defaultDataDir(DefaultVaultDir),
		SessionTTL:             DefaultSessionTTL,
		SessionSweepPeriod:     DefaultSessionSweepPeriod,
		RecorderDrainPeriod:    DefaultRecorderDrainPeriod,
		RecorderNavDedupWindow: DefaultRecorderNavDedupWindow,
		CaptchaMaxAttempts:     DefaultCaptchaMaxAttempts,
		VisionRPS:              DefaultVisionRPS,
		VisionBurst:            DefaultVisionBurst,
	}

	// CCBROWSER_* environment overrides; ANTHROPIC_API_KEY is also honored
	// bare since that is how the vision backend documents it.
	if err := envconfig.Process("ccbrowser", cfg); err != nil {
		return nil, fmt.Errorf("invalid environment configuration: %w", err)
	}
	if cfg.AnthropicAPIKey == "" {
		cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	if cmd != nil {
		if f := cmd.Flags().Lookup("port"); f != nil && f.Changed {
			fmt.Sscanf(f.Value.String(), "%d", &cfg.HTTPPort)
		}
		if f := cmd.Flags().Lookup("cdp-port"); f != nil && f.Changed {
			fmt.Sscanf(f.Value.String(), "%d", &cfg.CDPPort)
		}
		if f := cmd.Flags().Lookup("browser"); f != nil && f.Changed {
			cfg.Browser = f.Value.String()
		}
		if f := cmd.Flags().Lookup("headless"); f != nil && f.Changed {
			cfg.Headless = f.Value.String() == "true"
		}
		if f := cmd.Flags().Lookup("mode"); f != nil && f.Changed {
			cfg.Mode = f.Value.String()
		}
		if f := cmd.Flags().Lookup("json"); f != nil && f.Value.String() == "true" {
			cfg.JSONLog = true
		}
		if f := cmd.Flags().Lookup("verbose"); f != nil && f.Value.String() == "true" {
			cfg.LogLevel = "debug"
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// WorkspaceDir returns the user-data directory for a (browser, workspace) pair.
func (c *Config) WorkspaceDir(browser, workspace string) string {
	return filepath.Join(c.DataDir, browser+"-"+workspace)
}

// RecordingsDir returns the root directory for stored recordings.
func (c *Config) RecordingsDir() string {
	return filepath.Join(c.VaultDir, "recordings")
}

// defaultDataDir resolves the per-user application data directory for name.
func defaultDataDir(name string) string {
	if runtime.GOOS == "windows" {
		if base := os.Getenv("LOCALAPPDATA"); base != "" {
			return filepath.Join(base, name)
		}
	}
	if base := os.Getenv("XDG_DATA_HOME"); base != "" {
		return filepath.Join(base, name)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".local", "share", name)
}
