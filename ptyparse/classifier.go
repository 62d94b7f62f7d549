package ptyparse

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// RuleKind identifies a boundary rule.
type RuleKind int

const (
	// RuleFenceOpen enters a code block on an opening fence.
	RuleFenceOpen RuleKind = iota + 1
	// RuleFenceClose leaves a code block on a closing fence.
	RuleFenceClose
	// RuleToolMarker opens a tool call, closing any open one.
	RuleToolMarker
	// RuleThinkingOpen enters a thinking block.
	RuleThinkingOpen
	// RuleThinkingClose leaves a thinking block.
	RuleThinkingClose
	// RulePrompt ends the assistant turn on a bare shell prompt.
	RulePrompt
	// RuleUserInput enters user input on a prompt with a typed command.
	RuleUserInput
	// RuleMessageStart starts an assistant turn on the first content line.
	RuleMessageStart
)

var ruleNames = map[RuleKind]string{
	RuleFenceOpen:     "fence_open",
	RuleFenceClose:    "fence_close",
	RuleToolMarker:    "tool_marker",
	RuleThinkingOpen:  "thinking_open",
	RuleThinkingClose: "thinking_close",
	RulePrompt:        "prompt",
	RuleUserInput:     "user_input",
	RuleMessageStart:  "message_start",
}

func (k RuleKind) String() string {
	if name, ok := ruleNames[k]; ok {
		return name
	}
	return fmt.Sprintf("rule(%d)", int(k))
}

// Rule is one boundary predicate. Rules are evaluated in order and the
// first match wins.
type Rule struct {
	Match func(state State, text string) bool
	Kind  RuleKind
}

// Classifier decides which boundary rule, if any, applies to a clean line.
// It holds no mutable state and is safe to share.
type Classifier struct {
	prompt        *regexp.Regexp
	promptInput   *regexp.Regexp
	toolMarker    *regexp.Regexp
	toolLoose     *regexp.Regexp
	thinkingOpen  *regexp.Regexp
	thinkingClose *regexp.Regexp
	fenceOpen     *regexp.Regexp
	fenceClose    *regexp.Regexp
	rules         []Rule
}

// NewClassifier compiles the configured patterns and builds the rule list.
// Disabled detections are left out of the list entirely.
func NewClassifier(cfg Config) (*Classifier, error) {
	compile := func(key, expr, fallback string) (*regexp.Regexp, error) {
		if expr == "" {
			expr = fallback
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, &ConfigError{Key: key, Cause: err}
		}
		return re, nil
	}

	c := &Classifier{
		promptInput: regexp.MustCompile(promptInputPattern),
		toolLoose:   regexp.MustCompile(looseToolMarkerPattern),
		fenceOpen:   regexp.MustCompile(fenceOpenPattern),
		fenceClose:  regexp.MustCompile(fenceClosePattern),
	}
	var err error
	if c.prompt, err = compile("patterns.prompt", cfg.Patterns.Prompt, defaultPromptPattern); err != nil {
		return nil, err
	}
	if c.toolMarker, err = compile("patterns.tool_marker", cfg.Patterns.ToolMarker, defaultToolMarkerPattern); err != nil {
		return nil, err
	}
	if c.thinkingOpen, err = compile("patterns.thinking_open", cfg.Patterns.ThinkingOpen, defaultThinkingOpenPattern); err != nil {
		return nil, err
	}
	if c.thinkingClose, err = compile("patterns.thinking_close", cfg.Patterns.ThinkingClose, defaultThinkingClosePattern); err != nil {
		return nil, err
	}
	for _, tag := range []struct {
		key string
		re  *regexp.Regexp
	}{
		{"patterns.thinking_open", c.thinkingOpen},
		{"patterns.thinking_close", c.thinkingClose},
	} {
		if tag.re.MatchString("") {
			return nil, &ConfigError{Key: tag.key, Cause: ErrEmptyMatch}
		}
	}

	if cfg.DetectCodeBlocks {
		c.rules = append(c.rules,
			Rule{Kind: RuleFenceOpen, Match: func(s State, text string) bool {
				return !opaque(s) && c.fenceOpen.MatchString(text)
			}},
			Rule{Kind: RuleFenceClose, Match: func(s State, text string) bool {
				return s == StateCodeBlock && c.fenceClose.MatchString(text)
			}},
		)
	}
	if cfg.DetectToolCalls {
		c.rules = append(c.rules, Rule{Kind: RuleToolMarker, Match: func(s State, text string) bool {
			if opaque(s) {
				return false
			}
			if _, _, ok := c.ParseToolMarker(text); ok {
				return true
			}
			// Inside a call any marker line ends it, even one that does
			// not parse as a new call.
			return s == StateToolCall && c.toolLoose.MatchString(text)
		}})
	}
	c.rules = append(c.rules,
		Rule{Kind: RuleThinkingOpen, Match: func(s State, text string) bool {
			return !opaque(s) && c.thinkingOpen.MatchString(text)
		}},
		Rule{Kind: RuleThinkingClose, Match: func(s State, text string) bool {
			return s == StateThinking && c.thinkingClose.MatchString(text)
		}},
		Rule{Kind: RulePrompt, Match: func(s State, text string) bool {
			switch s {
			case StateAssistantResponse, StateToolCall, StateUserInput:
				return c.IsPrompt(text)
			}
			return false
		}},
	)
	if cfg.DetectUserInput {
		c.rules = append(c.rules, Rule{Kind: RuleUserInput, Match: func(s State, text string) bool {
			return s == StateIdle && c.promptInput.MatchString(text)
		}})
	}
	c.rules = append(c.rules, Rule{Kind: RuleMessageStart, Match: func(s State, text string) bool {
		if s != StateIdle && s != StateUserInput {
			return false
		}
		return strings.TrimSpace(text) != "" && !c.IsPromptLike(text)
	}})
	return c, nil
}

// opaque reports whether only the closing rule of the current block may
// fire.
func opaque(s State) bool {
	return s == StateCodeBlock || s == StateThinking
}

// Rules returns the active rules in evaluation order.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Classify returns the first rule matching text in state.
func (c *Classifier) Classify(state State, text string) (RuleKind, bool) {
	for _, r := range c.rules {
		if r.Match(state, text) {
			return r.Kind, true
		}
	}
	return 0, false
}

// IsPrompt reports whether text is a bare shell prompt.
func (c *Classifier) IsPrompt(text string) bool {
	return c.prompt.MatchString(text)
}

// isTailPrompt reports whether an unterminated tail is a prompt. The tail
// must end in whitespace after the glyph, or have the glyph glued to a
// user, host or path word. A bare "$" or "%" may be the start of streamed
// text ("$5 per month"), and a lone '>' or '#' may start a markdown quote or
// heading, so those are left for the completed line to decide.
func (c *Classifier) isTailPrompt(text string) bool {
	trimmed := strings.TrimSpace(text)
	switch trimmed {
	case ">", "#":
		return false
	}
	if !c.IsPrompt(text) {
		return false
	}
	if strings.TrimRight(text, " \t") != text {
		return true
	}
	_, size := utf8.DecodeLastRuneInString(trimmed)
	prefix := trimmed[:len(trimmed)-size]
	if prefix == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(prefix)
	return !unicode.IsSpace(last)
}

// IsPromptLike reports whether text is a prompt, bare or with a typed
// command after it.
func (c *Classifier) IsPromptLike(text string) bool {
	return c.IsPrompt(text) || c.promptInput.MatchString(text)
}

// ParseToolMarker extracts the tool name and details from a marker line.
func (c *Classifier) ParseToolMarker(text string) (name, details string, ok bool) {
	m := c.toolMarker.FindStringSubmatch(text)
	if m == nil || len(m) < 2 || m[1] == "" {
		return "", "", false
	}
	if len(m) > 2 {
		details = strings.TrimSpace(m[2])
	}
	return m[1], details, true
}

// FenceLanguage returns the language of an opening fence, "text" when the
// fence names none.
func (c *Classifier) FenceLanguage(text string) string {
	m := c.fenceOpen.FindStringSubmatch(text)
	if len(m) < 2 || m[1] == "" {
		return defaultLanguage
	}
	return m[1]
}

// splitThinkingOpen returns the text after the opening tag.
func (c *Classifier) splitThinkingOpen(text string) string {
	loc := c.thinkingOpen.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[loc[1]:]
}

// splitThinkingClose returns the text before and after the closing tag.
func (c *Classifier) splitThinkingClose(text string) (before, after string, ok bool) {
	loc := c.thinkingClose.FindStringIndex(text)
	if loc == nil {
		return text, "", false
	}
	return text[:loc[0]], text[loc[1]:], true
}
