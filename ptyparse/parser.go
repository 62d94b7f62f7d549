// Package ptyparse turns the raw output stream of an interactive CLI
// session into typed events: message boundaries, code blocks, tool calls,
// thinking blocks, prompts and pause signals.
//
// A Parser is created per stream and fed with Write. Bytes are buffered and
// split into lines after a short debounce; each complete line is cleaned of
// escape sequences, classified against an ordered list of boundary rules
// and handed to the handler for the current state. Events go to a Sink.
package ptyparse

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/bazelment/yoloswe/ptystream/ansi"
)

// Stats holds monotonically increasing counters. Reset does not clear them.
type Stats struct {
	BytesProcessed     int64 `json:"bytesProcessed"`
	LinesProcessed     int64 `json:"linesProcessed"`
	MessagesEmitted    int   `json:"messagesEmitted"`
	CodeBlocksDetected int   `json:"codeBlocksDetected"`
	ToolCallsDetected  int   `json:"toolCallsDetected"`
	PausesEmitted      int   `json:"pausesEmitted"`
}

// ToolCall is an open tool invocation.
type ToolCall struct {
	StartedAt time.Time `json:"startedAt"`
	Name      string    `json:"name"`
	Details   string    `json:"details"`
	Output    string    `json:"output"`
}

// Snapshot is a point-in-time view of the parser. Empty PreviousState and
// CurrentMessageID mean none.
type Snapshot struct {
	CurrentToolCall     *ToolCall `json:"currentToolCall"`
	State               State     `json:"state"`
	PreviousState       State     `json:"previousState,omitempty"`
	CurrentMessageID    string    `json:"currentMessageId,omitempty"`
	Stats               Stats     `json:"stats"`
	ContentBufferLength int       `json:"contentBufferLength"`
	IsInCodeBlock       bool      `json:"isInCodeBlock"`
	IsInToolCall        bool      `json:"isInToolCall"`
	IsInThinking        bool      `json:"isInThinking"`
}

// Line is one line of output. Text has been cleaned for classification;
// Raw is the decoded line as received.
type Line struct {
	Text string
	Raw  string
}

type message struct {
	startedAt time.Time
	id        string
	content   strings.Builder
}

// length returns the content length in characters.
func (m *message) length() int {
	return utf8.RuneCountInString(m.content.String())
}

type codeBlock struct {
	language string
	code     strings.Builder
}

type toolCall struct {
	startedAt time.Time
	name      string
	details   string
	output    strings.Builder
}

// Parser is a streaming state machine over one PTY stream. All methods
// are safe for concurrent use; calls are serialized internally.
type Parser struct {
	sink       Sink
	logger     *slog.Logger
	clock      Clock
	newID      func() string
	classifier *Classifier
	decoder    textDecoder
	cfg        Config

	mu        sync.Mutex
	assembler lineAssembler
	flush     task
	pause     pauseMonitor

	message  *message
	code     *codeBlock
	tool     *toolCall
	thinking *strings.Builder

	state     State
	prevState State
	stats     Stats

	// promptTail is an unterminated prompt that was already classified at
	// flush time; the same text is skipped when its line completes.
	promptTail string
	// lastPartial is the tail text most recently sent as a partial chunk.
	lastPartial string

	destroyed bool
}

// New creates a parser that delivers events to sink. Invalid patterns or
// encodings are logged and replaced by the defaults; use Config.Validate to
// reject them up front.
func New(sink Sink, opts ...Option) *Parser {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if sink == nil {
		sink = Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = realClock{}
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	defaults := DefaultConfig()
	if cfg.PauseThreshold <= 0 {
		cfg.PauseThreshold = defaults.PauseThreshold
	}
	if cfg.BufferFlushInterval <= 0 {
		cfg.BufferFlushInterval = defaults.BufferFlushInterval
	}

	classifier, err := NewClassifier(cfg)
	if err != nil {
		cfg.Logger.Warn("ignoring custom patterns", "error", err)
		cfg.Patterns = Patterns{}
		classifier, _ = NewClassifier(cfg)
	}
	decoder, err := newTextDecoder(cfg.Encoding)
	if err != nil {
		cfg.Logger.Warn("ignoring encoding, decoding as UTF-8", "encoding", cfg.Encoding, "error", err)
	}

	p := &Parser{
		sink:       sink,
		logger:     cfg.Logger,
		clock:      cfg.Clock,
		newID:      cfg.NewID,
		classifier: classifier,
		decoder:    decoder,
		cfg:        cfg,
		state:      StateIdle,
	}
	p.flush.clock = cfg.Clock
	p.pause.clock = cfg.Clock
	return p
}

// Config returns the effective configuration.
func (p *Parser) Config() Config {
	return p.cfg
}

// Write buffers a chunk of output. It never blocks on classification:
// lines are processed when the debounce timer fires or on Flush.
func (p *Parser) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return 0, ErrDestroyed
	}
	if len(b) == 0 {
		return 0, nil
	}

	now := p.clock.Now()
	p.assembler.append(b, now)
	p.stats.BytesProcessed += int64(len(b))

	p.pause.schedule(p.cfg.PauseThreshold, p.onPauseTimer)
	p.flush.schedule(p.assembler.delay(now, p.cfg.BufferFlushInterval, p.cfg.MaxFlushDelay), p.onFlushTimer)
	return len(b), nil
}

// WriteString is like Write but takes a string.
func (p *Parser) WriteString(s string) (int, error) {
	return p.Write([]byte(s))
}

// Flush processes buffered bytes immediately, cancelling the pending
// debounce timer.
func (p *Parser) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return
	}
	p.flushLocked()
}

func (p *Parser) onFlushTimer(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed || !p.flush.fire(gen) {
		return
	}
	p.flushLocked()
}

func (p *Parser) flushLocked() {
	p.flush.cancel()

	lines := p.assembler.take()
	for i, raw := range lines {
		ln := p.makeLine(p.decoder.decode(raw))
		if i == 0 && p.promptTail != "" && ln.Text == p.promptTail {
			// Already classified while it was the tail.
			p.promptTail = ""
			p.stats.LinesProcessed++
			continue
		}
		p.promptTail = ""
		p.processLine(ln)
	}
	if len(lines) > 0 {
		p.lastPartial = ""
	}
	p.processTail()
}

// processTail handles the unterminated tail: a bare prompt is classified
// right away since shells never terminate it, and streaming assistant text
// is surfaced as a partial chunk.
func (p *Parser) processTail() {
	if p.assembler.len() == 0 {
		return
	}
	ln := p.makeLine(p.decoder.decodePartial(p.assembler.tail()))
	if strings.TrimSpace(ln.Text) == "" {
		return
	}

	if ln.Text != p.promptTail && !opaque(p.state) && p.classifier.isTailPrompt(ln.Text) {
		p.promptTail = ln.Text
		p.processLine(ln)
		return
	}

	if p.state == StateAssistantResponse && ln.Text != p.lastPartial {
		p.lastPartial = ln.Text
		p.emit(AssistantChunkEvent{
			Timestamp: p.clock.Now(),
			Content:   ln.Text,
			Raw:       ln.Raw,
			Partial:   true,
		})
	}
}

func (p *Parser) makeLine(decoded string) Line {
	ln := Line{Raw: decoded}
	if p.cfg.StripANSI {
		ln.Text = ansi.CleanLine(decoded)
	} else {
		ln.Text = strings.TrimRight(decoded, "\r")
	}
	return ln
}

// processLine classifies one line and runs the matching rule, then the
// current state's handler unless the rule consumed the line.
func (p *Parser) processLine(ln Line) {
	p.stats.LinesProcessed++
	p.dispatch(ln)
}

func (p *Parser) dispatch(ln Line) {
	kind, ok := p.classifier.Classify(p.state, ln.Text)
	if p.logger.Enabled(context.Background(), LevelTrace) {
		rule := "none"
		if ok {
			rule = kind.String()
		}
		p.logger.Log(context.Background(), LevelTrace, "parser line", "state", p.state, "rule", rule, "text", ln.Text)
	}
	if ok && p.apply(kind, ln) {
		return
	}
	p.handle(ln)
}

// State returns a snapshot of the parser.
func (p *Parser) State() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		State:         p.state,
		PreviousState: p.prevState,
		Stats:         p.stats,
		IsInCodeBlock: p.code != nil,
		IsInToolCall:  p.tool != nil,
		IsInThinking:  p.thinking != nil,
	}
	if p.message != nil {
		s.CurrentMessageID = p.message.id
		s.ContentBufferLength = p.message.length()
	}
	if p.tool != nil {
		s.CurrentToolCall = &ToolCall{
			StartedAt: p.tool.startedAt,
			Name:      p.tool.name,
			Details:   p.tool.details,
			Output:    p.tool.output.String(),
		}
	}
	return s
}

func (p *Parser) emit(e Event) {
	p.sink.HandleEvent(e)
}
