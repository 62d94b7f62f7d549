// Package render prints parser events for a person watching a terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/bazelment/yoloswe/ptystream/ansi"
	"github.com/bazelment/yoloswe/ptystream/ptyparse"
)

const clearLine = "\r\x1b[K"

// Options configures a Renderer.
type Options struct {
	// GlamourStyle is "auto", "dark", "light", "notty" or another glamour
	// standard style. Empty means "auto".
	GlamourStyle string

	// Width is the column count used for wrapping and truncation. Zero
	// detects it from the output terminal.
	Width int

	Color ColorMode

	// Markdown renders each finished message with glamour instead of
	// streaming its lines as they arrive.
	Markdown bool

	// KeepColors re-applies the source's SGR styling to streamed lines.
	KeepColors bool

	// Verbose shows state changes, message boundaries, pauses and tool
	// output.
	Verbose bool
}

// Renderer writes events as styled text. It implements ptyparse.Sink and
// is safe for concurrent use.
type Renderer struct {
	out      io.Writer
	re       *lipgloss.Renderer
	markdown *markdownRenderer
	styles   Styles
	opts     Options
	mu       sync.Mutex
	width    int
	// live is set when out is a terminal, so partial lines can be redrawn
	// in place.
	live      bool
	inPartial bool
}

// New creates a renderer writing to out.
func New(out io.Writer, opts Options) (*Renderer, error) {
	width := opts.Width
	if width <= 0 {
		width = terminalWidth(out)
	}
	re := newLipglossRenderer(out, opts.Color)
	r := &Renderer{
		out:    out,
		re:     re,
		styles: newStyles(re),
		opts:   opts,
		width:  width,
		live:   isTerminal(out),
	}
	if opts.Markdown {
		md, err := newMarkdownRenderer(width, opts.GlamourStyle)
		if err != nil {
			return nil, fmt.Errorf("markdown renderer: %w", err)
		}
		r.markdown = md
	}
	return r, nil
}

// SetWidth changes the column count used for truncation and markdown
// wrapping, e.g. after the terminal was resized. Non-positive widths reset
// it to the default.
func (r *Renderer) SetWidth(width int) error {
	if width <= 0 {
		width = defaultWidth
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markdown != nil {
		if err := r.markdown.setWidth(width); err != nil {
			return fmt.Errorf("markdown renderer: %w", err)
		}
	}
	r.width = width
	return nil
}

// Styles returns the styles in use.
func (r *Renderer) Styles() Styles {
	return r.styles
}

// HandleEvent implements ptyparse.Sink.
func (r *Renderer) HandleEvent(e ptyparse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e := e.(type) {
	case ptyparse.StateChangeEvent:
		if r.opts.Verbose {
			r.line(r.styles.Dim.Render(fmt.Sprintf("[%s → %s]", stateName(e.From), e.To)))
		}
	case ptyparse.PromptEvent:
		r.line(r.styles.Prompt.Render(truncate(e.Content, r.width)))
	case ptyparse.UserInputEvent:
		r.line(r.styles.UserInput.Render("> " + e.Content))
	case ptyparse.AssistantChunkEvent:
		r.chunk(e)
	case ptyparse.MessageStartEvent:
		if r.opts.Verbose {
			r.line(r.styles.Dim.Render("[message " + e.MessageID + "]"))
		}
	case ptyparse.MessageEndEvent:
		r.messageEnd(e)
	case ptyparse.CodeBlockEvent:
		if r.markdown == nil {
			r.codeBlock(e)
		}
	case ptyparse.ToolCallEvent:
		r.toolCall(e)
	case ptyparse.ThinkingEvent:
		for _, l := range strings.Split(e.Content, "\n") {
			r.line(r.styles.Thinking.Render(l))
		}
	case ptyparse.PauseEvent:
		if r.opts.Verbose {
			r.line(r.styles.Dim.Render(fmt.Sprintf("[paused in %s after %d chars]", e.State, e.ContentLength)))
		}
	case ptyparse.ResetEvent:
		r.line(r.styles.Dim.Render("[reset]"))
	}
}

func (r *Renderer) chunk(e ptyparse.AssistantChunkEvent) {
	if r.markdown != nil {
		return
	}
	text := r.chunkText(e)
	if e.Partial {
		if !r.live {
			return
		}
		r.clearPartial()
		fmt.Fprint(r.out, text)
		r.inPartial = true
		return
	}
	r.line(text)
}

func (r *Renderer) chunkText(e ptyparse.AssistantChunkEvent) string {
	if !r.opts.KeepColors || e.Raw == e.Content {
		return e.Content
	}
	var b strings.Builder
	for _, span := range ansi.DecodeStyles(e.Raw) {
		if span.Style.IsZero() {
			b.WriteString(span.Text)
			continue
		}
		b.WriteString(spanStyle(r.re, span.Style).Render(span.Text))
	}
	return strings.TrimRight(b.String(), "\r")
}

func (r *Renderer) messageEnd(e ptyparse.MessageEndEvent) {
	if r.markdown != nil {
		out, err := r.markdown.render(e.Content)
		if err != nil {
			r.line(r.styles.Error.Render("[render error]") + " " + err.Error())
			out = e.Content
		}
		r.line(out)
	}
	if r.opts.Verbose {
		r.line(r.styles.Dim.Render(fmt.Sprintf("[end %s %.1fs]", e.MessageID, float64(e.DurationMs)/1000)))
	}
}

func (r *Renderer) codeBlock(e ptyparse.CodeBlockEvent) {
	r.line(r.styles.CodeLang.Render("```" + e.Language))
	for _, l := range strings.Split(e.Code, "\n") {
		r.line(r.styles.Code.Render(l))
	}
	r.line(r.styles.CodeLang.Render("```"))
}

func (r *Renderer) toolCall(e ptyparse.ToolCallEvent) {
	label := "[" + e.Name + "]"
	if e.Phase == ptyparse.ToolCallStart {
		line := r.styles.Tool.Render(label)
		if e.Details != "" {
			avail := r.width - lipgloss.Width(label) - 1
			line += " " + r.styles.Dim.Render(truncate(e.Details, avail))
		}
		r.line(line)
		return
	}

	if r.opts.Verbose && e.Output != "" {
		for _, l := range strings.Split(e.Output, "\n") {
			r.line(r.styles.Dim.Render("  " + truncate(l, r.width-2)))
		}
	}
	r.line(fmt.Sprintf("%s %s", r.styles.Tool.Render(label),
		r.styles.ToolDone.Render(fmt.Sprintf("✓ %.2fs", float64(e.DurationMs)/1000))))
}

// Summary prints parser counters, typically after the stream ends.
func (r *Renderer) Summary(stats ptyparse.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.line(r.styles.Dim.Render(strings.Repeat("─", min(r.width, 55))))
	r.line(r.styles.Dim.Render(fmt.Sprintf(
		"%d bytes, %d lines, %d messages, %d code blocks, %d tool calls, %d pauses",
		stats.BytesProcessed, stats.LinesProcessed, stats.MessagesEmitted,
		stats.CodeBlocksDetected, stats.ToolCallsDetected, stats.PausesEmitted)))
}

// Error prints an error message.
func (r *Renderer) Error(err error, context string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.line(fmt.Sprintf("%s %v", r.styles.Error.Render("[Error: "+context+"]"), err))
}

// line writes s on its own line, replacing any partial line on screen.
func (r *Renderer) line(s string) {
	r.clearPartial()
	fmt.Fprintln(r.out, s)
}

func (r *Renderer) clearPartial() {
	if r.inPartial {
		fmt.Fprint(r.out, clearLine)
		r.inPartial = false
	}
}

func stateName(s ptyparse.State) string {
	if s == "" {
		return "none"
	}
	return s.String()
}
