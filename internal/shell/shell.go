// Package shell is the line-oriented interactive front end.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl"
	"github.com/msto63/netplane/foundation/rcl/ast"
	"github.com/msto63/netplane/internal/runner"
)

// ErrExit is returned by ExecuteLine for exit and quit
var ErrExit = errors.New("exit requested")

// Config configures a shell
type Config struct {
	Prompt      string
	HistoryFile string
	Stdin       io.ReadCloser
	Stdout      io.Writer
	Stderr      io.Writer
}

// Shell reads command lines and prints their results
type Shell struct {
	runner runner.Runner
	cfg    Config
	out    io.Writer
	errOut io.Writer
	logger *mdwlog.Logger
}

// New creates a shell on r
func New(r runner.Runner, cfg Config, logger *mdwlog.Logger) *Shell {
	if cfg.Prompt == "" {
		cfg.Prompt = "netplane> "
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if logger == nil {
		logger = mdwlog.GetDefault()
	}
	return &Shell{
		runner: r,
		cfg:    cfg,
		out:    cfg.Stdout,
		errOut: cfg.Stderr,
		logger: logger.WithField("component", "shell"),
	}
}

// Run reads lines until EOF, exit or ctx is done
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.cfg.Prompt,
		HistoryFile:     s.cfg.HistoryFile,
		AutoComplete:    Completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           s.cfg.Stdin,
		Stdout:          s.cfg.Stdout,
		Stderr:          s.cfg.Stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(s.out, "netplane shell (%s). Use 'help' for the command reference.\n", s.runner.Target())

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				fmt.Fprintln(s.out, "Use 'exit' or 'quit' to leave the shell.")
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := s.ExecuteLine(ctx, line); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			fmt.Fprintln(s.errOut, "Error:", err)
		}
	}
}

// ExecuteLine handles one line: a shell built-in or a command
func (s *Shell) ExecuteLine(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "exit", "quit":
		return ErrExit
	case "help":
		help, err := s.runner.Help(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, help)
		return nil
	case "source":
		if len(fields) != 2 {
			return fmt.Errorf("usage: source <file>")
		}
		return s.ExecuteFile(ctx, fields[1])
	}

	res, err := s.runner.Run(ctx, line)
	if err != nil {
		return err
	}
	s.print(res)
	return nil
}

// ExecuteFile runs every line of path, stopping at the first failure
func (s *Shell) ExecuteFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()
	return s.ExecuteScript(ctx, f)
}

// ExecuteScript runs every line read from r, stopping at the first
// failure. exit ends the script early.
func (s *Shell) ExecuteScript(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		err := s.ExecuteLine(ctx, scanner.Text())
		if errors.Is(err, ErrExit) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
	}
	return scanner.Err()
}

func (s *Shell) print(res *rcl.CmdResult) {
	lines := res.Lines()
	switch {
	case res.Value == nil:
		fmt.Fprintln(s.out, "(done)")
	case len(lines) == 0:
		fmt.Fprintln(s.out, "(empty)")
	default:
		for _, l := range lines {
			fmt.Fprintln(s.out, l)
		}
	}
}

// Completer completes actions followed by resource type names
func Completer() *readline.PrefixCompleter {
	types := make([]readline.PrefixCompleterInterface, 0, len(ast.ResourceTypes()))
	for _, t := range ast.ResourceTypes() {
		types = append(types, readline.PcItem(t.Full()))
	}

	items := []readline.PrefixCompleterInterface{
		readline.PcItem("help"),
		readline.PcItem("source"),
		readline.PcItem("exit"),
	}
	for _, a := range ast.Actions() {
		items = append(items, readline.PcItem(a.Full(), types...))
	}
	return readline.NewPrefixCompleter(items...)
}
