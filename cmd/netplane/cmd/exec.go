package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msto63/netplane/internal/shell"
)

var (
	execRemote string
	execFile   string
)

var execCmd = &cobra.Command{
	Use:   "exec [command...]",
	Short: "Run one command or a script",
	Long: `Run a single command line, or every line of a script with --file.

Without --remote the commands run against a fresh in-process resource
tree, which is useful to check syntax and semantics of a script.

Examples:
  netplane exec add upstream ups0
  netplane exec -r 127.0.0.1:16309 list-detail tcp-lb
  netplane exec -f setup.rcl`,
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
	addRemoteFlag(execCmd, &execRemote)
	execCmd.Flags().StringVarP(&execFile, "file", "f", "", "run every line of a script file")
}

func runExec(cmd *cobra.Command, args []string) error {
	if execFile == "" && len(args) == 0 {
		return fmt.Errorf("no command given")
	}

	cfg, path, err := loadConfig("warn")
	if err != nil {
		return err
	}
	sess, err := openSession(cfg, path, execRemote, "cli", os.Stderr)
	if err != nil {
		return err
	}
	defer sess.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sh := shell.New(sess, shell.Config{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}, nil)
	if execFile != "" {
		return sh.ExecuteFile(ctx, execFile)
	}
	return sh.ExecuteLine(ctx, strings.Join(args, " "))
}
