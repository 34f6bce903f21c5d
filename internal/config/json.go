package config

import (
	"encoding/json"
	"os"

	"github.com/mkarev/otpkeeper/internal/flagx"
	"github.com/mkarev/otpkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config (which uses time.Duration).
type JsonConfig struct {
	DataDir         string         `json:"data_dir"`
	SessionTimeout  timex.Duration `json:"session_timeout"`
	MaxAttempts     int            `json:"max_attempts"`
	LockoutCooldown timex.Duration `json:"lockout_cooldown"`
	TOTPDrift       uint64         `json:"totp_drift"`
	TickInterval    timex.Duration `json:"tick_interval"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c/-config flags via flagx.JsonConfigFlags();
// when absent, no JSON is loaded. Zero-valued JSON fields leave the existing
// Config value in place, so a partial file only overrides what it names.
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.SessionTimeout.Duration > 0 {
		cfg.SessionTimeout = jc.SessionTimeout.Duration
	}
	if jc.MaxAttempts > 0 {
		cfg.MaxAttempts = jc.MaxAttempts
	}
	if jc.LockoutCooldown.Duration > 0 {
		cfg.LockoutCooldown = jc.LockoutCooldown.Duration
	}
	if jc.TOTPDrift > 0 {
		cfg.TOTPDrift = jc.TOTPDrift
	}
	if jc.TickInterval.Duration > 0 {
		cfg.TickInterval = jc.TickInterval.Duration
	}
}
