package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msto63/netplane/internal/shell"
)

var shellRemote string

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive command shell",
	Long: `Start a line-oriented shell with history and tab completion.

Built-ins:
  help            command language reference
  source <file>   run a script
  exit, quit      leave the shell`,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
	addRemoteFlag(shellCmd, &shellRemote)
}

func runShell(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig("warn")
	if err != nil {
		return err
	}
	sess, err := openSession(cfg, path, shellRemote, "shell", os.Stderr)
	if err != nil {
		return err
	}
	defer sess.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	sh := shell.New(sess, shell.Config{
		Prompt:      cfg.Console.Prompt,
		HistoryFile: cfg.Console.HistoryFile,
	}, nil)
	return sh.Run(ctx)
}
