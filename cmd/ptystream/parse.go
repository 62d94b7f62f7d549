package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bazelment/yoloswe/ptystream/source"
)

var (
	follow    bool
	fromStart bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a recorded session or stdin",
	Long: `Parse terminal output from a file, or from stdin when no file (or "-") is
given. With --follow the file is tailed like "tail -F" until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		if follow && path == "-" {
			return fmt.Errorf("--follow needs a file")
		}

		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		return s.run(cmd.Context(), func(ctx context.Context, w io.Writer) error {
			if follow {
				opts := []source.FollowOption{source.WithFollowLogger(s.logger)}
				if fromStart {
					opts = append(opts, source.FromStart())
				}
				return source.Follow(ctx, path, w, opts...)
			}

			var r io.Reader = cmd.InOrStdin()
			if path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			_, err := source.Pump(ctx, r, w)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep reading as the file grows")
	parseCmd.Flags().BoolVar(&fromStart, "from-start", false, "With --follow, parse the existing content first")
}
