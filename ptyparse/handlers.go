package ptyparse

import "strings"

// apply runs the action of a matched rule. It reports whether the line
// was consumed; otherwise it still goes to the state handler.
func (p *Parser) apply(kind RuleKind, ln Line) bool {
	switch kind {
	case RuleFenceOpen:
		lang := p.classifier.FenceLanguage(ln.Text)
		p.transition(StateCodeBlock)
		p.code = &codeBlock{language: lang}
		return true

	case RuleFenceClose:
		p.closeCodeBlock()
		return true

	case RuleToolMarker:
		name, details, ok := p.classifier.ParseToolMarker(ln.Text)
		if p.state == StateToolCall {
			p.closeToolCall()
		}
		if !ok {
			// A marker that is not a call, e.g. "⏺ Done.", is prose.
			p.transition(StateAssistantResponse)
			return false
		}
		p.transition(StateToolCall)
		p.openToolCall(name, details)
		return true

	case RuleThinkingOpen:
		rest := p.classifier.splitThinkingOpen(ln.Text)
		p.transition(StateThinking)
		p.thinking = &strings.Builder{}
		if before, after, ok := p.classifier.splitThinkingClose(rest); ok {
			p.thinking.WriteString(before)
			p.closeThinking(ln.Text, after)
			return true
		}
		if strings.TrimSpace(rest) != "" {
			p.thinking.WriteString(rest + "\n")
		}
		return true

	case RuleThinkingClose:
		before, after, _ := p.classifier.splitThinkingClose(ln.Text)
		p.thinking.WriteString(before)
		p.closeThinking(ln.Text, after)
		return true

	case RulePrompt:
		p.transition(StateIdle)
		return false

	case RuleUserInput:
		p.transition(StateUserInput)
		return false

	case RuleMessageStart:
		p.transition(StateAssistantResponse)
		return false
	}
	return false
}

// handle runs the current state's content handler.
func (p *Parser) handle(ln Line) {
	switch p.state {
	case StateIdle:
		if p.classifier.IsPromptLike(ln.Text) {
			p.emit(PromptEvent{
				Timestamp: p.clock.Now(),
				Content:   strings.TrimSpace(ln.Text),
				Raw:       ln.Raw,
			})
		}

	case StateUserInput:
		if strings.TrimSpace(ln.Text) == "" {
			return
		}
		p.emit(UserInputEvent{
			Timestamp: p.clock.Now(),
			Content:   strings.TrimSpace(ln.Text),
			Raw:       ln.Raw,
		})

	case StateAssistantResponse:
		p.appendMessage(ln.Text + "\n")
		p.emit(AssistantChunkEvent{
			Timestamp: p.clock.Now(),
			Content:   ln.Text,
			Raw:       ln.Raw,
		})

	case StateCodeBlock:
		p.code.code.WriteString(ln.Text + "\n")

	case StateToolCall:
		p.tool.output.WriteString(ln.Text + "\n")

	case StateThinking:
		p.thinking.WriteString(ln.Text + "\n")
	}
}

// transition moves to state to, closing what the old state owned and
// opening what the new one needs. Closing events precede the stateChange
// event and opening events follow it.
func (p *Parser) transition(to State) {
	from := p.state
	if from == to {
		return
	}

	if from == StateToolCall && p.tool != nil {
		p.closeToolCall()
	}
	if to == StateIdle && from.hasMessage() {
		p.endMessage()
	}

	p.prevState, p.state = from, to
	p.logger.Debug("parser state change", "from", from, "to", to)
	p.emit(StateChangeEvent{Timestamp: p.clock.Now(), From: from, To: to})

	if to.hasMessage() && !from.hasMessage() {
		p.beginMessage()
	}
}

func (p *Parser) beginMessage() {
	m := &message{id: p.newID(), startedAt: p.clock.Now()}
	p.message = m
	p.emit(MessageStartEvent{Timestamp: m.startedAt, MessageID: m.id})
}

func (p *Parser) appendMessage(s string) {
	if p.message != nil {
		p.message.content.WriteString(s)
	}
}

// endMessage emits messageEnd for the live message. Messages with only
// whitespace are dropped silently and not counted.
func (p *Parser) endMessage() {
	m := p.message
	if m == nil {
		return
	}
	p.message = nil

	content := strings.TrimSpace(m.content.String())
	if content == "" {
		p.logger.Debug("dropping empty message", "messageID", m.id)
		return
	}
	now := p.clock.Now()
	p.stats.MessagesEmitted++
	p.emit(MessageEndEvent{
		Timestamp:  now,
		MessageID:  m.id,
		Content:    content,
		DurationMs: now.Sub(m.startedAt).Milliseconds(),
	})
}

func (p *Parser) closeCodeBlock() {
	cb := p.code
	p.code = nil
	if cb == nil {
		p.transition(StateAssistantResponse)
		return
	}

	code := strings.TrimSuffix(cb.code.String(), "\n")
	p.stats.CodeBlocksDetected++
	p.emit(CodeBlockEvent{
		Timestamp: p.clock.Now(),
		Language:  cb.language,
		Code:      code,
	})
	p.appendMessage("```" + cb.language + "\n" + code + "\n```\n")
	p.transition(StateAssistantResponse)
}

func (p *Parser) openToolCall(name, details string) {
	now := p.clock.Now()
	p.tool = &toolCall{name: name, details: details, startedAt: now}
	p.emit(ToolCallEvent{
		Timestamp: now,
		Phase:     ToolCallStart,
		Name:      name,
		Details:   details,
	})
}

func (p *Parser) closeToolCall() {
	tc := p.tool
	if tc == nil {
		return
	}
	p.tool = nil

	now := p.clock.Now()
	p.stats.ToolCallsDetected++
	p.emit(ToolCallEvent{
		Timestamp:  now,
		Phase:      ToolCallEnd,
		Name:       tc.name,
		Details:    tc.details,
		Output:     strings.TrimSpace(tc.output.String()),
		DurationMs: now.Sub(tc.startedAt).Milliseconds(),
	})
}

// closeThinking emits the thinking block and returns to the response.
// Text after the closing tag is processed as an ordinary line.
func (p *Parser) closeThinking(line, after string) {
	var content string
	if p.thinking != nil {
		content = strings.TrimSpace(p.thinking.String())
	}
	p.thinking = nil
	if content != "" {
		p.emit(ThinkingEvent{Timestamp: p.clock.Now(), Content: content})
	}
	p.transition(StateAssistantResponse)

	// The rest is only re-dispatched while it shrinks.
	if after = strings.TrimLeft(after, " \t"); after != "" && len(after) < len(line) {
		p.dispatch(Line{Text: after, Raw: after})
	}
}
