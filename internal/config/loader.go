package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "WHISPERBOX"
	envConfigDefaultPath = "WHISPERBOX_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
	dotEnvFile           = ".env"
)

// keys lists every configuration key. Flags use the same names with dashes.
var keys = []string{
	"bind",
	"port",
	"read_header_timeout",
	"shutdown_timeout",
	"log_level",
	"max_message_bytes",
	"rate_limit_per_minute",
	"room_idle_timeout",
	"reap_interval",
}

// Load builds configuration from defaults, optional config file, env vars and
// flags, and returns the resolved config path.
// Precedence: defaults < config file < env vars (.env never overrides the
// process environment) < flags set on the command line.
func Load(logger *zerolog.Logger, explicitPath string, flags *pflag.FlagSet) (Config, string, error) {
	cfg := Default()

	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, "", fmt.Errorf("load %s: %w", dotEnvFile, err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("bind", cfg.Bind)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("read_header_timeout", cfg.ReadHeaderTimeout)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("max_message_bytes", cfg.MaxMessageBytes)
	v.SetDefault("rate_limit_per_minute", cfg.RateLimitPerMinute)
	v.SetDefault("room_idle_timeout", cfg.RoomIdleTimeout)
	v.SetDefault("reap_interval", cfg.ReapInterval)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// Hosting platforms hand out the port as plain PORT.
	if err := v.BindEnv("port", envPrefix+"_PORT", "PORT"); err != nil {
		return cfg, "", fmt.Errorf("bind port env: %w", err)
	}

	if flags != nil {
		for _, key := range keys {
			f := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return cfg, "", fmt.Errorf("bind flag %s: %w", f.Name, err)
			}
		}
	}

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			// try reading again in case it was just written
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, configPath, fmt.Errorf("validate config: %w", err)
	}

	return cfg, configPath, nil
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

// fileConfig mirrors Config with durations rendered as strings so the
// generated file stays readable.
type fileConfig struct {
	Bind               string `yaml:"bind"`
	Port               int    `yaml:"port"`
	ReadHeaderTimeout  string `yaml:"read_header_timeout"`
	ShutdownTimeout    string `yaml:"shutdown_timeout"`
	LogLevel           string `yaml:"log_level"`
	MaxMessageBytes    int64  `yaml:"max_message_bytes"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
	RoomIdleTimeout    string `yaml:"room_idle_timeout"`
	ReapInterval       string `yaml:"reap_interval"`
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(fileConfig{
		Bind:               cfg.Bind,
		Port:               cfg.Port,
		ReadHeaderTimeout:  cfg.ReadHeaderTimeout.String(),
		ShutdownTimeout:    cfg.ShutdownTimeout.String(),
		LogLevel:           cfg.LogLevel,
		MaxMessageBytes:    cfg.MaxMessageBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RoomIdleTimeout:    cfg.RoomIdleTimeout.String(),
		ReapInterval:       cfg.ReapInterval.String(),
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
