package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mwantia/webdesk/config"
	"github.com/mwantia/webdesk/log"
	"github.com/mwantia/webdesk/server"
	"github.com/spf13/cobra"
)

// Version is set via ldflags.
var Version = "dev"

var flagConfig string

func main() {
	rootCmd := &cobra.Command{
		Use:           "webdesk",
		Short:         "Browser desktop terminal server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Path to the YAML configuration file")

	rootCmd.AddCommand(serveCmd(), shellCmd(), versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, err
	}

	logger := log.NewLogger("webdesk", log.LoggerOptions{
		Level:   cfg.LogLevel(),
		File:    cfg.Log.File,
		JSON:    cfg.Log.JSON,
		NoColor: cfg.Log.NoColor,
	})
	return cfg, logger, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			rt, err := newRuntime(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := rt.Close(context.Background()); err != nil {
					logger.Warn("Failed to close cleanly: %v", err)
				}
			}()

			srv, err := server.New(rt.dispatcher, rt.manager,
				server.WithLogger(logger.Named("http")),
				server.WithRateLimit(cfg.Server.RateLimit, cfg.Server.Burst),
				server.WithSecureCookie(cfg.Server.CookieSecure),
				server.WithShutdownTimeout(cfg.Server.ShutdownTimeout))
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx, cfg.Server.Listen)
		},
	}
}

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Open a local terminal session against the configured stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			// Keep log lines from interleaving with the prompt.
			logger := log.NewWriterLogger("webdesk", log.Error, os.Stderr)

			rt, err := newRuntime(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close(context.Background())

			return newShell(rt, os.Stdin, os.Stdout).Run(ctx)
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "webdesk %s\n", Version)
		},
	}
}
