//go:build !unix

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/bazelment/yoloswe/ptystream/render"
)

// watchResize is a no-op where SIGWINCH does not exist.
func watchResize(context.Context, *render.Renderer, *os.File, *slog.Logger) {}
