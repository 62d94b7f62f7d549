package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// Command runs a child process with its output fed to a writer. On Linux
// the child gets a pseudo-terminal, so it behaves as it would for an
// interactive user (colors, prompts, line editing). Elsewhere stdout and
// stderr are pipes.
type Command struct {
	// Stdin, if set, is the child's input. With a pseudo-terminal it is
	// copied to the terminal, so the child sees typed input.
	Stdin io.Reader

	Logger *slog.Logger

	Name string
	Dir  string
	Args []string

	// Env is the child's environment; nil means the current process's.
	Env []string

	// Rows and Cols set the terminal size (default 24x80).
	Rows uint16
	Cols uint16

	// KillDelay is how long the child gets between SIGTERM and SIGKILL
	// once ctx is cancelled (default 5s).
	KillDelay time.Duration
}

// NewCommand returns a Command for name with args.
func NewCommand(name string, args ...string) *Command {
	return &Command{Name: name, Args: args}
}

// Run starts the child, copies its output to w and waits for it to
// exit. A non-zero exit is reported as *ProcessError. Cancelling ctx
// signals the child's process group.
func (c *Command) Run(ctx context.Context, w io.Writer) error {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rows, cols := c.Rows, c.Cols
	if rows == 0 {
		rows = 24
	}
	if cols == 0 {
		cols = 80
	}
	killDelay := c.KillDelay
	if killDelay <= 0 {
		killDelay = 5 * time.Second
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdin = c.Stdin
	cmd.Cancel = func() error {
		return signalGroup(cmd.Process, syscall.SIGTERM)
	}
	cmd.WaitDelay = killDelay

	term, err := startTerminal(cmd, rows, cols)
	if err != nil {
		return fmt.Errorf("start %s: %w", c.Name, err)
	}
	defer term.output.Close()
	logger.Debug("child started", "name", c.Name, "pid", cmd.Process.Pid, "pty", term.isPTY)

	if c.Stdin != nil && term.input != nil {
		go func() {
			if _, err := io.Copy(term.input, c.Stdin); err != nil {
				logger.Debug("stdin copy stopped", "error", err)
			}
		}()
	}

	_, copyErr := Pump(ctx, term.output, w)
	waitErr := cmd.Wait()
	logger.Debug("child exited", "name", c.Name, "error", waitErr)

	if err := ctx.Err(); err != nil {
		return err
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return &ProcessError{Name: c.Name, ExitCode: exitErr.ExitCode(), Cause: waitErr}
		}
		return fmt.Errorf("wait %s: %w", c.Name, waitErr)
	}
	return copyErr
}

// terminal is the parent's side of the child's stdio.
type terminal struct {
	output io.ReadCloser
	// input is nil when the child's stdin is not connected.
	input io.Writer
	isPTY bool
}

// signalGroup sends sig to the process group led by p.
func signalGroup(p *os.Process, sig syscall.Signal) error {
	if p == nil {
		return nil
	}
	return syscall.Kill(-p.Pid, sig)
}
