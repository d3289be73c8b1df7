package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/persona-relay/backend/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("persona-relay exited")
		os.Exit(1)
	}
}

type rootOptions struct {
	addr     string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "persona-relay",
		Short:        "Real-time persona chat relay",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address, overrides PORT")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level, overrides LOG_LEVEL")

	cmd.AddCommand(newReplyCmd(opts))
	return cmd
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("failed to load .env file, continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if opts.addr != "" {
		addr, err := config.ParseAddr(opts.addr)
		if err != nil {
			return nil, err
		}
		cfg.Server.Addr = addr
	}
	if opts.logLevel != "" {
		level, err := config.ParseLogLevel(opts.logLevel)
		if err != nil {
			return nil, err
		}
		cfg.Log.Level = level
	}

	setupLogging(cfg.Log)
	return cfg, nil
}

func setupLogging(cfg config.LogConfig) {
	zerolog.SetGlobalLevel(cfg.Level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Console {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
