// Package config handles dutrun configuration using Viper.
//
// Configuration sources (in priority order):
//  1. Command-line flags (applied by the commands themselves)
//  2. Environment variables (DUTRUN_*)
//  3. Config file (~/.config/dutrun/config.yaml)
//  4. Built-in defaults
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dutrun/dutrun/internal/paths"
)

const (
	// DefaultBaudRate matches the original bench setups (8N1 at 9600).
	DefaultBaudRate = 9600
	// DefaultRuns is the default number of test runs per invocation.
	DefaultRuns = 1
	// DefaultPollIntervalMs is the per-call bound on a link read, in
	// milliseconds. This is the poll granularity, not a protocol timeout.
	DefaultPollIntervalMs = 50
	// DefaultWriteTimeoutSec is the response write deadline in seconds.
	DefaultWriteTimeoutSec = 10
)

// Config holds the dutrun configuration.
type Config struct {
	v *viper.Viper
}

// Load reads configuration from all sources.
func Load() *Config {
	v := viper.New()

	v.SetDefault("serial.baud", DefaultBaudRate)
	v.SetDefault("serial.poll_interval_ms", DefaultPollIntervalMs)
	v.SetDefault("serial.write_timeout_sec", DefaultWriteTimeoutSec)
	v.SetDefault("run.count", DefaultRuns)

	if configDir, err := paths.ConfigRoot(); err == nil {
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("DUTRUN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found, but warn on other errors)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: error reading config file: %v\n", err)
		}
	}

	return &Config{v: v}
}

// GetString returns a configuration value as string.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt returns a configuration value as int.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// All returns all configuration as a map.
func (c *Config) All() map[string]interface{} {
	return c.v.AllSettings()
}

// BaudRate returns the configured serial baud rate.
func (c *Config) BaudRate() int {
	return c.GetInt("serial.baud")
}

// Runs returns the configured number of test runs.
func (c *Config) Runs() int {
	return c.GetInt("run.count")
}

// PollInterval returns the per-call read bound.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.GetInt("serial.poll_interval_ms")) * time.Millisecond
}

// WriteTimeout returns the response write deadline.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.GetInt("serial.write_timeout_sec")) * time.Second
}
