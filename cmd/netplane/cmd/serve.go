package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msto63/netplane/internal/app"
	"github.com/msto63/netplane/pkg/core/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the control plane with the remote control API",
	Long: `Run the control plane in the foreground.

Started services:
  gRPC control API   [grpc] host:port (default 127.0.0.1:16309)
  gRPC health        same listener, service netplane.v1.Control
  Prometheus metrics [metrics] when enabled (default 127.0.0.1:16310)
  audit recorder     [audit] when enabled
  DNS cache sweeper  [dns_cache] sweep_interval

Changes to the config file are applied without restart for
control.modify_enabled and general.log_level.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig("")
	if err != nil {
		return err
	}

	logger := newLogger(cfg, os.Stderr)
	a, err := app.New(app.Options{Config: cfg, ConfigPath: path, Logger: logger})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = a.Run(ctx, app.RunOptions{
		Listen: true,
		Ready: func(addr string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
			fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", addr)
		},
	})
	logger.Info("netplane stopped")
	return err
}
