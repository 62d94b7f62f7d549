package ptyparse

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/encoding/htmlindex"
	"gopkg.in/yaml.v3"
)

// Patterns overrides the built-in line patterns. Empty fields keep the
// defaults.
type Patterns struct {
	// Prompt matches a bare shell prompt that ends an assistant turn.
	Prompt string `yaml:"prompt"`
	// ToolMarker matches a tool call header. Group 1 is the tool name and
	// the optional group 2 its details.
	ToolMarker string `yaml:"tool_marker"`
	// ThinkingOpen and ThinkingClose match the thinking block tags.
	ThinkingOpen  string `yaml:"thinking_open"`
	ThinkingClose string `yaml:"thinking_close"`
}

// Config holds parser configuration.
type Config struct {
	// Logger receives transition and classification logs (default: slog.Default()).
	Logger *slog.Logger `yaml:"-"`

	// Clock schedules timers (default: wall clock).
	Clock Clock `yaml:"-"`

	// NewID generates message ids (default: random UUIDs).
	NewID func() string `yaml:"-"`

	// Patterns overrides the built-in prompt, tool and thinking patterns.
	Patterns Patterns `yaml:"patterns"`

	// Encoding names the character set of the stream, e.g. "windows-1252".
	// Empty means UTF-8.
	Encoding string `yaml:"encoding"`

	// PauseThreshold is the silence before an advisory pause event (default: 500ms).
	PauseThreshold time.Duration `yaml:"pause_threshold"`

	// BufferFlushInterval is the debounce window for line splitting (default: 100ms).
	BufferFlushInterval time.Duration `yaml:"buffer_flush_interval"`

	// MaxFlushDelay bounds how long a continuous stream can postpone a
	// flush, measured from the first unflushed write (default: 500ms).
	MaxFlushDelay time.Duration `yaml:"max_flush_delay"`

	// StripANSI removes escape sequences before classification (default: true).
	StripANSI bool `yaml:"strip_ansi"`

	// DetectToolCalls enables the tool marker rule (default: true).
	DetectToolCalls bool `yaml:"detect_tool_calls"`

	// DetectCodeBlocks enables the code fence rules (default: true).
	DetectCodeBlocks bool `yaml:"detect_code_blocks"`

	// DetectUserInput treats "$ command" lines seen while idle as user
	// input (default: false).
	DetectUserInput bool `yaml:"detect_user_input"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		PauseThreshold:      500 * time.Millisecond,
		BufferFlushInterval: 100 * time.Millisecond,
		MaxFlushDelay:       500 * time.Millisecond,
		StripANSI:           true,
		DetectToolCalls:     true,
		DetectCodeBlocks:    true,
	}
}

// Option is a functional option for configuring a Parser.
type Option func(*Config)

// WithConfig replaces the whole configuration, typically one returned by
// LoadConfig. Options after it still apply.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// WithPauseThreshold sets the silence before a pause event.
func WithPauseThreshold(d time.Duration) Option {
	return func(c *Config) {
		c.PauseThreshold = d
	}
}

// WithBufferFlushInterval sets the flush debounce window.
func WithBufferFlushInterval(d time.Duration) Option {
	return func(c *Config) {
		c.BufferFlushInterval = d
	}
}

// WithMaxFlushDelay bounds how long writes can postpone a flush.
func WithMaxFlushDelay(d time.Duration) Option {
	return func(c *Config) {
		c.MaxFlushDelay = d
	}
}

// WithStripANSI toggles escape removal before classification.
func WithStripANSI(enabled bool) Option {
	return func(c *Config) {
		c.StripANSI = enabled
	}
}

// WithToolCallDetection toggles the tool marker rule.
func WithToolCallDetection(enabled bool) Option {
	return func(c *Config) {
		c.DetectToolCalls = enabled
	}
}

// WithCodeBlockDetection toggles the code fence rules.
func WithCodeBlockDetection(enabled bool) Option {
	return func(c *Config) {
		c.DetectCodeBlocks = enabled
	}
}

// WithUserInputDetection toggles classification of typed commands.
func WithUserInputDetection(enabled bool) Option {
	return func(c *Config) {
		c.DetectUserInput = enabled
	}
}

// WithEncoding sets the stream's character set.
func WithEncoding(name string) Option {
	return func(c *Config) {
		c.Encoding = name
	}
}

// WithPatterns overrides the built-in line patterns.
func WithPatterns(p Patterns) Option {
	return func(c *Config) {
		c.Patterns = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithClock sets the clock used for timestamps and timers.
func WithClock(clock Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithIDGenerator sets the message id generator.
func WithIDGenerator(newID func() string) Option {
	return func(c *Config) {
		c.NewID = newID
	}
}

// LoadConfig reads a YAML config file. Keys missing from the file keep
// their defaults. Returns the default config if the file doesn't exist.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Key: path, Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks durations, the encoding name and pattern syntax. Thinking
// tag patterns must not match the empty string.
func (c Config) Validate() error {
	if c.PauseThreshold <= 0 {
		return &ConfigError{Key: "pause_threshold", Cause: errors.New("must be positive")}
	}
	if c.BufferFlushInterval <= 0 {
		return &ConfigError{Key: "buffer_flush_interval", Cause: errors.New("must be positive")}
	}
	if c.MaxFlushDelay < c.BufferFlushInterval {
		return &ConfigError{Key: "max_flush_delay", Cause: fmt.Errorf("must be at least buffer_flush_interval (%s)", c.BufferFlushInterval)}
	}
	if c.Encoding != "" {
		if _, err := lookupEncoding(c.Encoding); err != nil {
			return &ConfigError{Key: "encoding", Cause: err}
		}
	}
	for _, p := range []struct{ key, expr string }{
		{"patterns.prompt", c.Patterns.Prompt},
		{"patterns.tool_marker", c.Patterns.ToolMarker},
		{"patterns.thinking_open", c.Patterns.ThinkingOpen},
		{"patterns.thinking_close", c.Patterns.ThinkingClose},
	} {
		if p.expr == "" {
			continue
		}
		re, err := regexp.Compile(p.expr)
		if err != nil {
			return &ConfigError{Key: p.key, Cause: err}
		}
		if strings.HasPrefix(p.key, "patterns.thinking_") && re.MatchString("") {
			return &ConfigError{Key: p.key, Cause: ErrEmptyMatch}
		}
	}
	return nil
}

// lookupEncoding resolves a WHATWG encoding label. UTF-16 variants are
// rejected because lines are split on the raw '\n' byte.
func lookupEncoding(name string) (string, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", err
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(canonical, "utf-16") {
		return "", fmt.Errorf("%s is not supported", canonical)
	}
	return canonical, nil
}
