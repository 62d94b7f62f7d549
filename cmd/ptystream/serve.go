package main

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bazelment/yoloswe/ptystream/remote"
	"github.com/bazelment/yoloswe/ptystream/source"
)

var (
	listenAddr     string
	allowedOrigins []string
	historySize    int
	serveFile      string
)

var serveCmd = &cobra.Command{
	Use:   "serve [-- <command> [args...]]",
	Short: "Stream events to WebSocket clients",
	Long: `Parse a session and stream its events to browser clients on /events.
Late clients receive the recent history first; /history returns it as JSON.

The session is a child command when one is given, a file tailed with --file,
or stdin otherwise. Events are also written to stdout as with "parse".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		srv := remote.NewServer(
			remote.WithServerLogger(logger),
			remote.WithAllowedOrigins(allowedOrigins...),
			remote.WithHistorySize(historySize),
		)
		s, err := newSession(cmd, srv)
		if err != nil {
			return err
		}

		ln, err := net.Listen("tcp", listenAddr)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		serveErr := make(chan error, 1)
		go func() { serveErr <- srv.Serve(ctx, ln) }()

		err = s.run(ctx, func(ctx context.Context, w io.Writer) error {
			switch {
			case len(args) > 0:
				return newChildCommand(s, args).Run(ctx, w)
			case serveFile != "":
				return source.Follow(ctx, serveFile, w, source.FromStart(), source.WithFollowLogger(s.logger))
			default:
				_, err := source.Pump(ctx, os.Stdin, w)
				return err
			}
		})
		// The stream is over; keep serving history until interrupted.
		if err == nil && ctx.Err() == nil {
			logger.Info("session ended, serving history until interrupted")
			waitForInterrupt(ctx)
		}
		cancel()
		return errors.Join(err, <-serveErr)
	},
}

func waitForInterrupt(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "addr", "127.0.0.1:7681", "Listen address")
	serveCmd.Flags().StringSliceVar(&allowedOrigins, "allow-origin", nil, "Browser origins allowed besides localhost")
	serveCmd.Flags().IntVar(&historySize, "history", 1000, "Events replayed to new clients")
	serveCmd.Flags().StringVar(&serveFile, "file", "", "Follow this transcript file instead of stdin")
	addChildFlags(serveCmd)
}
