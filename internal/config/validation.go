package config

import "fmt"

func validate(c *Config) error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("http port must be between 1 and 65535")
	}
	if c.CDPPort <= 0 || c.CDPPort > 65535 {
		return fmt.Errorf("cdp port must be between 1 and 65535")
	}
	if c.HTTPPort == c.CDPPort {
		return fmt.Errorf("http port and cdp port must differ")
	}
	switch c.Mode {
	case "fast", "human", "stealth":
	default:
		return fmt.Errorf("mode must be fast, human, or stealth")
	}
	switch c.Browser {
	case "chrome", "edge", "brave":
	default:
		return fmt.Errorf("browser must be chrome, edge, or brave")
	}
	if c.CaptchaMaxAttempts <= 0 {
		return fmt.Errorf("captcha max attempts must be > 0")
	}
	return nil
}
