// Package config holds runtime settings for the otpkeeper CLI.
package config

import (
	"time"

	"github.com/mkarev/otpkeeper/internal/otp"
)

// Config holds runtime settings for the otpkeeper CLI.
//
// Fields:
//   - DataDir: directory holding the encrypted vault envelope and keystore.
//   - SessionTimeout: how long an unlock authorization stays valid.
//   - MaxAttempts: consecutive authentication failures before lockout.
//   - LockoutCooldown: wait imposed after the failure threshold is reached.
//   - TOTPDrift: accepted clock-drift window (in steps) for code validation
//     during import self-tests.
//   - TickInterval: code display refresh cadence.
type Config struct {
	DataDir         string
	SessionTimeout  time.Duration
	MaxAttempts     int
	LockoutCooldown time.Duration
	TOTPDrift       uint64
	TickInterval    time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = ".otpkeeper"
	c.SessionTimeout = 2 * time.Minute
	c.MaxAttempts = 5
	c.LockoutCooldown = 30 * time.Second
	c.TOTPDrift = otp.DefaultDrift
	c.TickInterval = time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
