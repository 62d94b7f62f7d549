// Command ptystream parses the output of interactive CLI sessions into
// structured events.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bazelment/yoloswe/ptystream/ptyparse"
	"github.com/bazelment/yoloswe/ptystream/render"
	"github.com/bazelment/yoloswe/ptystream/sink"
	"github.com/bazelment/yoloswe/ptystream/source"
)

var (
	configPath string
	format     string
	colorMode  string
	eventTypes []string
	verbosity  int
	markdown   bool
	keepColors bool
	summary    bool

	pauseThreshold time.Duration
	flushInterval  time.Duration
	maxFlushDelay  time.Duration
	encoding       string
	keepANSI       bool
	userInput      bool
)

var rootCmd = &cobra.Command{
	Use:   "ptystream",
	Short: "Parse interactive CLI output into structured events",
	Long: `ptystream reads the raw output of an interactive terminal session (an AI
coding assistant, a REPL, a shell) and turns it into events: message
boundaries, code blocks, tool calls, thinking blocks, prompts and pauses.

Events are printed as JSON lines or rendered for a terminal, and can be
streamed to browser clients over WebSocket with "ptystream serve".`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML parser config file")
	pf.StringVar(&format, "format", "auto", "Output format: jsonl, pretty or auto (pretty on a terminal)")
	pf.StringVar(&colorMode, "color", "auto", "Color output for pretty format: auto, always or never")
	pf.StringSliceVar(&eventTypes, "events", nil, "Only output these event types (comma separated)")
	pf.CountVarP(&verbosity, "verbose", "v", "Log verbosity (-v debug, -vv trace)")
	pf.BoolVar(&markdown, "markdown", false, "Render finished messages as markdown (pretty format)")
	pf.BoolVar(&keepColors, "keep-colors", false, "Re-apply the source's colors to streamed lines (pretty format)")
	pf.BoolVar(&summary, "summary", false, "Print parser counters when the stream ends")

	pf.DurationVar(&pauseThreshold, "pause-threshold", 0, "Silence before a pause event (overrides config)")
	pf.DurationVar(&flushInterval, "flush-interval", 0, "Line assembly debounce (overrides config)")
	pf.DurationVar(&maxFlushDelay, "max-flush-delay", 0, "Upper bound on buffering under continuous output (overrides config)")
	pf.StringVar(&encoding, "encoding", "", "Input charset, e.g. windows-1252 (overrides config)")
	pf.BoolVar(&keepANSI, "keep-ansi", false, "Classify lines without stripping escape sequences")
	pf.BoolVar(&userInput, "user-input", false, "Detect typed input after prompts")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// newLogger creates a structured logger that writes to stderr.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch {
	case verbosity >= 2:
		level = ptyparse.LevelTrace
	case verbosity == 1:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// parserConfig loads --config and applies flags the user set explicitly.
func parserConfig(cmd *cobra.Command) (ptyparse.Config, error) {
	cfg := ptyparse.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = ptyparse.LoadConfig(configPath); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("pause-threshold") {
		cfg.PauseThreshold = pauseThreshold
	}
	if flags.Changed("flush-interval") {
		cfg.BufferFlushInterval = flushInterval
		if !flags.Changed("max-flush-delay") && cfg.MaxFlushDelay < flushInterval {
			cfg.MaxFlushDelay = flushInterval
		}
	}
	if flags.Changed("max-flush-delay") {
		cfg.MaxFlushDelay = maxFlushDelay
	}
	if flags.Changed("encoding") {
		cfg.Encoding = encoding
	}
	if flags.Changed("keep-ansi") {
		cfg.StripANSI = !keepANSI
	}
	if flags.Changed("user-input") {
		cfg.DetectUserInput = userInput
	}
	return cfg, cfg.Validate()
}

// output is the configured event destination for stdout.
type output struct {
	sink     ptyparse.Sink
	renderer *render.Renderer
	jsonl    *sink.JSONL
	// tty is set when pretty output goes to a terminal.
	tty *os.File
}

func newOutput(w io.Writer, logger *slog.Logger) (*output, error) {
	var tty *os.File
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		tty = file
	}
	f := format
	if f == "auto" {
		f = "jsonl"
		if tty != nil {
			f = "pretty"
		}
	}

	var out output
	switch f {
	case "jsonl":
		out.jsonl = sink.NewJSONL(w, logger)
		out.sink = out.jsonl
	case "pretty":
		mode, err := render.ParseColorMode(colorMode)
		if err != nil {
			return nil, err
		}
		r, err := render.New(w, render.Options{
			Color:      mode,
			Markdown:   markdown,
			KeepColors: keepColors,
			Verbose:    verbosity > 0,
		})
		if err != nil {
			return nil, err
		}
		out.renderer = r
		out.sink = r
		out.tty = tty
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}

	if len(eventTypes) > 0 {
		types, err := parseEventTypes(eventTypes)
		if err != nil {
			return nil, err
		}
		out.sink = sink.Filter(out.sink, types...)
	}
	return &out, nil
}

func parseEventTypes(names []string) ([]ptyparse.EventType, error) {
	known := make(map[string]ptyparse.EventType, len(ptyparse.EventTypes))
	for _, t := range ptyparse.EventTypes {
		known[strings.ToLower(string(t))] = t
	}
	types := make([]ptyparse.EventType, 0, len(names))
	for _, name := range names {
		t, ok := known[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("unknown event type %q", name)
		}
		types = append(types, t)
	}
	return types, nil
}

// session wires a parser between a byte source and the configured sinks.
type session struct {
	out    *output
	logger *slog.Logger
	parser *ptyparse.Parser
	input  *trackingWriter
}

func newSession(cmd *cobra.Command, extra ...ptyparse.Sink) (*session, error) {
	logger := newLogger()
	cfg, err := parserConfig(cmd)
	if err != nil {
		return nil, err
	}
	out, err := newOutput(cmd.OutOrStdout(), logger)
	if err != nil {
		return nil, err
	}
	sinks := append([]ptyparse.Sink{out.sink}, extra...)
	p := ptyparse.New(sink.Tee(sinks...), ptyparse.WithConfig(cfg), ptyparse.WithLogger(logger))
	return &session{
		out:    out,
		logger: logger,
		parser: p,
		input:  &trackingWriter{w: p},
	}, nil
}

// run feeds the parser until feed returns, then completes any unterminated
// final line and prints the summary.
func (s *session) run(ctx context.Context, feed func(ctx context.Context, w io.Writer) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if s.out.renderer != nil && s.out.tty != nil {
		go watchResize(ctx, s.out.renderer, s.out.tty, s.logger)
	}

	err := feed(ctx, s.input)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if s.input.last != 0 && s.input.last != '\n' {
		_, _ = s.parser.WriteString("\n")
	}
	s.parser.Flush()
	stats := s.parser.State().Stats
	s.parser.Destroy()

	if s.out.jsonl != nil && s.out.jsonl.Err() != nil {
		s.logger.Error("output failed", "error", s.out.jsonl.Err())
	}
	if summary {
		if s.out.renderer != nil {
			s.out.renderer.Summary(stats)
		} else {
			s.logger.Info("stream finished",
				"bytes", stats.BytesProcessed,
				"lines", stats.LinesProcessed,
				"messages", stats.MessagesEmitted,
				"codeBlocks", stats.CodeBlocksDetected,
				"toolCalls", stats.ToolCallsDetected,
				"pauses", stats.PausesEmitted)
		}
	}
	return err
}

// trackingWriter remembers the last byte written so a final line without
// a terminator can be completed.
type trackingWriter struct {
	w    io.Writer
	last byte
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if n > 0 {
		t.last = p[n-1]
	}
	return n, err
}

// exitCode maps a child's exit status through to ours.
func exitCode(err error) int {
	var perr *source.ProcessError
	if errors.As(err, &perr) && perr.ExitCode > 0 {
		return perr.ExitCode
	}
	return 1
}
