package ptyparse

// pauseMonitor emits an advisory pause event when output goes quiet in the
// middle of an assistant response. It never ends the message; only a
// prompt does that.
type pauseMonitor struct {
	task
}

// onPauseTimer runs when the silence timer for gen fires.
func (p *Parser) onPauseTimer(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed || !p.pause.fire(gen) {
		return
	}
	if p.state != StateAssistantResponse || p.message == nil || p.message.content.Len() == 0 {
		return
	}
	p.stats.PausesEmitted++
	p.emit(PauseEvent{
		Timestamp:     p.clock.Now(),
		State:         p.state,
		ContentLength: p.message.length(),
	})
}
