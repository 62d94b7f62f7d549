//go:build unix

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/bazelment/yoloswe/ptystream/ptyparse"
	"github.com/bazelment/yoloswe/ptystream/render"
)

// watchResize keeps the renderer's width in step with the terminal until
// ctx is done.
func watchResize(ctx context.Context, r *render.Renderer, tty *os.File, logger *slog.Logger) {
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-winch:
			width, _, err := term.GetSize(int(tty.Fd()))
			if err != nil {
				logger.Debug("terminal size unavailable", "error", err)
				continue
			}
			if err := r.SetWidth(width); err != nil {
				logger.Warn("resize renderer", "width", width, "error", err)
				continue
			}
			logger.Log(ctx, ptyparse.LevelTrace, "terminal resized", "width", width)
		}
	}
}
