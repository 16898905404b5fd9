package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	clientcmd "github.com/rzbill/flightreview/internal/cmd/client"
	serverrun "github.com/rzbill/flightreview/internal/cmd/server"
	cfgpkg "github.com/rzbill/flightreview/internal/config"
	logpkg "github.com/rzbill/flightreview/pkg/log"
	"github.com/spf13/cobra"
)

func main() {
	// Respect FLIGHTREVIEW_LOG_LEVEL for both CLI and server start output
	level := os.Getenv("FLIGHTREVIEW_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.WarnLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)

	rootCmd := &cobra.Command{
		Use:           "flightreview",
		Short:         "ULog flight log review",
		Long:          "flightreview decodes PX4 ULog flight logs into per-topic tables, mode timelines and review bundles.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	clientcmd.AddPersistentFlags(rootCmd)

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start flightreview server (gRPC and HTTP)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := cfgpkg.Load(path)
			if err != nil {
				return err
			}
			cfgpkg.FromEnv(&cfg)
			if v, _ := cmd.Flags().GetString("log-dir"); v != "" {
				cfg.LogDir = v
			}
			if v, _ := cmd.Flags().GetString("metadata-backend"); v != "" {
				cfg.Metadata.Backend = v
			}
			if v, _ := cmd.Flags().GetString("metadata-path"); v != "" {
				cfg.Metadata.Path = v
			}
			if cmd.Flags().Changed("strict") {
				cfg.Strict, _ = cmd.Flags().GetBool("strict")
			}
			if cmd.Flags().Changed("grpc") {
				cfg.Server.GRPCAddr, _ = cmd.Flags().GetString("grpc")
			}
			if cmd.Flags().Changed("http") {
				cfg.Server.HTTPAddr, _ = cmd.Flags().GetString("http")
			}
			if v, _ := cmd.Flags().GetString("log-level"); v != "" {
				cfg.Log.Level = v
			}
			if v, _ := cmd.Flags().GetString("log-format"); v != "" {
				cfg.Log.Format = v
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := serverrun.Run(ctx, serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("grpc", ":5007", "gRPC listen address (empty disables)")
	serverStartCmd.Flags().String("http", ":5006", "HTTP listen address (empty disables)")
	serverStartCmd.Flags().String("log-level", "", "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", "", "Log format: text|json (default text)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	clientcmd.AddCommands(rootCmd, logger)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
