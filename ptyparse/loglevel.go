package ptyparse

import "log/slog"

// LevelTrace is used for per-line classification logging, below Debug.
const LevelTrace slog.Level = slog.LevelDebug - 4 // -8
