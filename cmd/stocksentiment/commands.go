package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"StockSentiment/internal/app"
	"StockSentiment/internal/config"
	"StockSentiment/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "stocksentiment",
		Short:         "Score financial news sentiment for tracked tickers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Configuration file path (defaults to $STOCK_SENTIMENT_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override logging level")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newScheduleCmd(opts))
	rootCmd.AddCommand(newProvisionCmd(opts))

	return rootCmd
}

func (o *rootOptions) load() (config.Config, *slog.Logger) {
	cfg := config.Load(o.configPath)
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format)
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once for every tracked symbol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := opts.load()
			return withApplication(cmd, cfg, logger, func(a *app.Application) error {
				return a.Run(cmd.Context())
			})
		},
	}
}

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline now and then on every interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := opts.load()
			if interval, _ := cmd.Flags().GetDuration("interval"); interval > 0 {
				cfg.Scheduler.Interval = interval
			}
			return withApplication(cmd, cfg, logger, func(a *app.Application) error {
				return a.Schedule(cmd.Context())
			})
		},
	}
	cmd.Flags().Duration("interval", 0, "Override scheduler interval (e.g. 30m)")
	return cmd
}

func newProvisionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Create the time-series and feature tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := opts.load()
			if err := app.Provision(cmd.Context(), cfg, logger); err != nil {
				logger.Error("provision failed", "error", err)
				return err
			}
			return nil
		},
	}
}

func withApplication(cmd *cobra.Command, cfg config.Config, logger *slog.Logger, fn func(*app.Application) error) error {
	application, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		logger.Error("application stopped", "error", err)
		return fmt.Errorf("init application: %w", err)
	}
	defer application.Close()

	if err := fn(application); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	return nil
}
