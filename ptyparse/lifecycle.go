package ptyparse

// Reset discards all buffered data and open blocks and returns to idle.
// Open messages and tool calls are dropped without end events. Stats are
// kept. Emits a reset event.
func (p *Parser) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return
	}
	p.resetLocked()
}

// Destroy resets the parser and releases its timers. Afterwards Write
// returns ErrDestroyed and the other methods do nothing.
func (p *Parser) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return
	}
	p.resetLocked()
	p.destroyed = true
	p.logger.Debug("parser destroyed", "bytes", p.stats.BytesProcessed, "messages", p.stats.MessagesEmitted)
}

func (p *Parser) resetLocked() {
	p.flush.cancel()
	p.pause.cancel()
	p.assembler.reset()

	from := p.state
	p.state = StateIdle
	p.prevState = ""
	p.message = nil
	p.code = nil
	p.tool = nil
	p.thinking = nil
	p.promptTail = ""
	p.lastPartial = ""

	p.logger.Debug("parser reset", "from", from)
	p.emit(ResetEvent{Timestamp: p.clock.Now()})
}
