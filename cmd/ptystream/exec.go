package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bazelment/yoloswe/ptystream/source"
)

var (
	forwardStdin bool
	ptyRows      uint16
	ptyCols      uint16
)

var execCmd = &cobra.Command{
	Use:   "exec -- <command> [args...]",
	Short: "Run a command under a pseudo-terminal and parse its output",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		return s.run(cmd.Context(), func(ctx context.Context, w io.Writer) error {
			return newChildCommand(s, args).Run(ctx, w)
		})
	},
}

// newChildCommand builds the child process for exec and serve. The
// terminal size follows ours when stdout is a terminal.
func newChildCommand(s *session, args []string) *source.Command {
	c := source.NewCommand(args[0], args[1:]...)
	c.Logger = s.logger
	c.Rows, c.Cols = ptyRows, ptyCols
	if c.Rows == 0 && c.Cols == 0 && term.IsTerminal(int(os.Stdout.Fd())) {
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			c.Rows, c.Cols = uint16(h), uint16(w)
		}
	}
	if forwardStdin {
		c.Stdin = os.Stdin
	}
	return c
}

func addChildFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&forwardStdin, "stdin", false, "Forward stdin to the child")
	cmd.Flags().Uint16Var(&ptyRows, "rows", 0, "Terminal rows (default: ours, or 24)")
	cmd.Flags().Uint16Var(&ptyCols, "cols", 0, "Terminal columns (default: ours, or 80)")
}

func init() {
	rootCmd.AddCommand(execCmd)
	addChildFlags(execCmd)
}
