package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/internal/app"
	"github.com/msto63/netplane/internal/runner"
	"github.com/msto63/netplane/internal/server"
	"github.com/msto63/netplane/pkg/core/config"
	"github.com/msto63/netplane/pkg/core/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "netplane",
	Short: "netplane - resource command language for a network proxy control plane",
	Long: `netplane manages the resources of a network proxy control plane
(load balancers, socks5 and dns servers, upstreams, server groups,
security groups, virtual switches) through a single command language:

  add tcp-lb lb0 address 127.0.0.1:18080 upstream ups0

Commands run either against an in-process resource tree or, with
--remote, against a running "netplane serve".`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $"+config.EnvVar+", ./netplane.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console)")
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// loadConfig reads the config file and applies the logging flags.
// quietLevel is used when no level was given on the command line.
func loadConfig(quietLevel string) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if cfgFile != "" {
		path = cfgFile
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, path, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, "", err
	}

	switch {
	case logLevel != "":
		cfg.General.LogLevel = logLevel
	case quietLevel != "":
		cfg.General.LogLevel = quietLevel
	}
	if logFormat != "" {
		cfg.General.LogFormat = logFormat
	}
	return cfg, path, nil
}

func newLogger(cfg *config.Config, out io.Writer) *mdwlog.Logger {
	return logging.NewLogger(logging.LoggerConfig{
		ServiceName: cfg.General.Name,
		Level:       cfg.General.LogLevel,
		Format:      cfg.General.LogFormat,
		Output:      out,
	})
}

// session is a runner plus what it takes to shut it down
type session struct {
	runner.Runner
	app   *app.App
	close func()
}

// openSession connects to remote when set, otherwise starts an
// in-process app whose background services run until close
func openSession(cfg *config.Config, path, remote, source string, logOut io.Writer) (*session, error) {
	logger := newLogger(cfg, logOut)

	if remote != "" {
		client, err := server.Dial(remote, source, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", remote, err)
		}
		return &session{
			Runner: runner.NewRemote(client, remote),
			close:  func() { client.Close() },
		}, nil
	}

	a, err := app.New(app.Options{Config: cfg, ConfigPath: path, Logger: logger})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, app.RunOptions{}) }()

	return &session{
		Runner: runner.NewLocal(a.Engine(), source),
		app:    a,
		close: func() {
			cancel()
			select {
			case err := <-done:
				if err != nil {
					logger.ErrorWithErr("background services failed", err)
				}
			case <-time.After(10 * time.Second):
				logger.Warn("background services did not stop in time")
			}
			a.Close()
		},
	}, nil
}

// addRemoteFlag registers --remote on c
func addRemoteFlag(c *cobra.Command, target *string) {
	c.Flags().StringVarP(target, "remote", "r", "", "address of a running netplane serve (host:port)")
}
