package config

import "time"

// Default constants for daemon configuration
const (
	DefaultLogLevel = "info"
	DefaultJSONLog  = false
	DefaultHTTPPort = 18900
	DefaultCDPPort  = 19222
	DefaultMode     = "fast"
	DefaultHeadless = false
	DefaultDirName  = "cc-browser"
	DefaultVaultDir = "cc-myvault"

	DefaultRequestTimeout = 60 * time.Second
	DefaultReplayTimeout  = 300 * time.Second
	DefaultActionTimeout  = 8 * time.Second
	DefaultWaitTimeout    = 20 * time.Second
	MinActionTimeout      = 500 * time.Millisecond
	MaxActionTimeout      = 60 * time.Second

	DefaultSessionTTL         = 30 * time.Minute
	DefaultSessionSweepPeriod = 60 * time.Second

	DefaultRecorderDrainPeriod    = 250 * time.Millisecond
	DefaultRecorderNavDedupWindow = 2 * time.Second

	DefaultCaptchaMaxAttempts = 3
	DefaultVisionRPS          = 0.5
	DefaultVisionBurst        = 2

	DefaultLaunchProbeTimeout = time.Second
	DefaultLaunchPollPeriod   = 300 * time.Millisecond
	DefaultLaunchReadyTimeout = 15 * time.Second

	DefaultBodyLimitBytes = 4 << 20
)
