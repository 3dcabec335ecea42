package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Bind               string        `mapstructure:"bind" yaml:"bind"`
	Port               int           `mapstructure:"port" yaml:"port"`
	ReadHeaderTimeout  time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel           string        `mapstructure:"log_level" yaml:"log_level"`
	MaxMessageBytes    int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	RoomIdleTimeout    time.Duration `mapstructure:"room_idle_timeout" yaml:"room_idle_timeout"`
	ReapInterval       time.Duration `mapstructure:"reap_interval" yaml:"reap_interval"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Bind:               "0.0.0.0",
		Port:               3000,
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		MaxMessageBytes:    64 << 10,
		RateLimitPerMinute: 0,
		RoomIdleTimeout:    30 * time.Minute,
		ReapInterval:       time.Minute,
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// Validate reports the first invalid value.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.MaxMessageBytes < 0 {
		return errors.New("max_message_bytes must not be negative")
	}
	if c.RateLimitPerMinute < 0 {
		return errors.New("rate_limit_per_minute must not be negative")
	}
	if c.RoomIdleTimeout < 0 || c.ReapInterval < 0 {
		return errors.New("room_idle_timeout and reap_interval must not be negative")
	}
	return nil
}
