// Package config holds runtime parameters for the server. Values are merged
// with precedence flag > environment > file > default; the file loader and the
// env overlay live here, flag binding stays in cmd.
package config

import (
	"fmt"
	"strings"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `json:"addr" yaml:"addr" toml:"addr" env:"MODELKIT_ADDR"`
	// Checkpoint is an explicit path to the model weights handed to setup.
	Checkpoint string `json:"checkpoint" yaml:"checkpoint" toml:"checkpoint" env:"MODELKIT_CHECKPOINT"`
	// CheckpointDir is scanned for checkpoint files when Checkpoint is empty.
	CheckpointDir string `json:"checkpoint_dir" yaml:"checkpoint_dir" toml:"checkpoint_dir" env:"MODELKIT_CHECKPOINT_DIR"`
	// Parallel allows concurrent handler invocations. Off by default: the
	// underlying inference engine is not assumed thread-safe.
	Parallel bool `json:"parallel" yaml:"parallel" toml:"parallel" env:"MODELKIT_PARALLEL"`
	// StrictKeys rejects request envelopes carrying undeclared fields.
	StrictKeys bool `json:"strict_keys" yaml:"strict_keys" toml:"strict_keys" env:"MODELKIT_STRICT_KEYS"`
	// MaxQueueDepth bounds queued invocations before backpressure.
	MaxQueueDepth int `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth" env:"MODELKIT_MAX_QUEUE_DEPTH"`
	// MaxWaitSeconds bounds the wait for the invocation slot.
	MaxWaitSeconds int `json:"max_wait_seconds" yaml:"max_wait_seconds" toml:"max_wait_seconds" env:"MODELKIT_MAX_WAIT_SECONDS"`
	// MaxBodyBytes bounds the JSON request body size.
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes" env:"MODELKIT_MAX_BODY_BYTES"`
	// LogLevel is one of debug|info|warn|error|off.
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level" env:"MODELKIT_LOG_LEVEL"`
	// DeployManifest points at the external build/deploy document (informational).
	DeployManifest string `json:"deploy_manifest" yaml:"deploy_manifest" toml:"deploy_manifest" env:"MODELKIT_DEPLOY_MANIFEST"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled" env:"MODELKIT_CORS_ENABLED"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins" env:"MODELKIT_CORS_ORIGINS" envSeparator:","`

	// RateRPS/RateBurst enable per-client rate limiting when RateRPS > 0.
	RateRPS   float64 `json:"rate_rps" yaml:"rate_rps" toml:"rate_rps" env:"MODELKIT_RATE_RPS"`
	RateBurst int     `json:"rate_burst" yaml:"rate_burst" toml:"rate_burst" env:"MODELKIT_RATE_BURST"`
}

// Defaults applied when corresponding fields are unset.
const (
	DefaultAddr          = ":8000"
	DefaultMaxQueueDepth = 32
	DefaultMaxWait       = 30
	DefaultMaxBodyBytes  = 10 << 20
	DefaultLogLevel      = "info"
)

// ApplyDefaults fills unset fields in place.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxQueueDepth <= 0 {
		c.MaxQueueDepth = DefaultMaxQueueDepth
	}
	if c.MaxWaitSeconds <= 0 {
		c.MaxWaitSeconds = DefaultMaxWait
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.RateRPS > 0 && c.RateBurst <= 0 {
		c.RateBurst = 10
	}
}

// Validate rejects nonsensical combinations after defaults were applied.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error", "off":
	default:
		return fmt.Errorf("invalid log_level: %q", c.LogLevel)
	}
	if c.RateRPS < 0 {
		return fmt.Errorf("rate_rps must be >= 0, got %v", c.RateRPS)
	}
	if c.CORSEnabled && len(c.CORSOrigins) == 0 {
		return fmt.Errorf("cors_enabled requires at least one origin")
	}
	return nil
}
