package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vovakirdan/whisperbox/internal/app"
	"github.com/vovakirdan/whisperbox/internal/config"
	"github.com/vovakirdan/whisperbox/internal/log"
)

func main() {
	if err := newCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var configPath string
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:           "whisperbox",
		Short:         "Anonymous message party game server.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, cmd.Flags())
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&configPath, "config", "c", "", "path to config file (env: WHISPERBOX_CONFIG_DEFAULT_PATH for its directory)")
	fs.StringP("bind", "b", defaults.Bind, "address to bind to (env: WHISPERBOX_BIND)")
	fs.IntP("port", "p", defaults.Port, "port to listen on (env: WHISPERBOX_PORT, PORT)")
	fs.Duration("read-header-timeout", defaults.ReadHeaderTimeout, "HTTP read header timeout (env: WHISPERBOX_READ_HEADER_TIMEOUT)")
	fs.Duration("shutdown-timeout", defaults.ShutdownTimeout, "graceful shutdown timeout (env: WHISPERBOX_SHUTDOWN_TIMEOUT)")
	fs.String("log-level", defaults.LogLevel, "log level: debug, info, warn, error (env: WHISPERBOX_LOG_LEVEL)")
	fs.Int64("max-message-bytes", defaults.MaxMessageBytes, "websocket read limit in bytes (env: WHISPERBOX_MAX_MESSAGE_BYTES)")
	fs.Int("rate-limit-per-minute", defaults.RateLimitPerMinute, "inbound events per connection per minute, 0 disables (env: WHISPERBOX_RATE_LIMIT_PER_MINUTE)")
	fs.Duration("room-idle-timeout", defaults.RoomIdleTimeout, "time before rooms without live players are removed (env: WHISPERBOX_ROOM_IDLE_TIMEOUT)")
	fs.Duration("reap-interval", defaults.ReapInterval, "how often idle rooms are swept (env: WHISPERBOX_REAP_INTERVAL)")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}

func run(parent context.Context, configPath string, flags *pflag.FlagSet) error {
	bootLogger := log.New("info")

	cfg, resolvedPath, err := config.Load(bootLogger, configPath, flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().
		Str("config", resolvedPath).
		Str("addr", cfg.Addr()).
		Str("log_level", cfg.LogLevel).
		Msg("starting whisperbox server")

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.New(&cfg, logger).Run(ctx); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
