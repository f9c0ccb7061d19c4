package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/msto63/netplane/internal/audit"
	"github.com/msto63/netplane/internal/console"
)

var consoleRemote string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the full-screen console",
	Long: `Start the terminal user interface.

Views:
  Console    run commands and read their results
  Reference  grammar and resource types
  History    recent audited commands (local mode)

Navigation:
  Tab       switch views
  Enter     run the command
  Up/Down   recall earlier commands
  Ctrl+L    clear the transcript
  Ctrl+C    quit

Logs go to console.log in the data directory.`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	addRemoteFlag(consoleCmd, &consoleRemote)
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig("")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.General.DataDir, 0755); err != nil {
		return err
	}
	logFile, err := os.OpenFile(filepath.Join(cfg.General.DataDir, "console.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open console log: %w", err)
	}
	defer logFile.Close()

	sess, err := openSession(cfg, path, consoleRemote, "console", logFile)
	if err != nil {
		return err
	}
	defer sess.close()

	opts := console.Options{Runner: sess}
	if sess.app != nil && sess.app.AuditStore() != nil {
		store := sess.app.AuditStore()
		opts.History = func(ctx context.Context) ([]string, error) {
			entries, err := store.Query(ctx, audit.Filter{Limit: 200})
			if err != nil {
				return nil, err
			}
			lines := make([]string, len(entries))
			for i, e := range entries {
				lines[i] = e.String()
			}
			return lines, nil
		}
	}
	return console.Run(opts)
}
