package sink

import (
	"sync"

	"github.com/bazelment/yoloswe/ptystream/ptyparse"
)

// DefaultHistorySize is the number of envelopes History keeps by default.
const DefaultHistorySize = 1000

// History is a thread-safe, capped ring buffer of envelopes used to replay
// a stream to late subscribers.
//
// Partial assistant chunks are coalesced: each partial replaces the one
// before it, and the complete chunk replaces the last partial, so a replay
// shows the text once rather than every typing step.
type History struct {
	envs []Envelope
	max  int
	seq  Sequencer
	mu   sync.RWMutex
}

// NewHistory creates a history that keeps at most max envelopes.
func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &History{max: max}
}

// HandleEvent numbers e and appends it.
func (h *History) HandleEvent(e ptyparse.Event) {
	h.Append(h.seq.Next(e))
}

// Append adds env, evicting the oldest envelope if at capacity.
func (h *History) Append(env Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.envs); n > 0 && isPartial(h.envs[n-1]) && isChunk(env) {
		h.envs[n-1] = env
		return
	}
	if len(h.envs) >= h.max {
		// Zero the slot before reslicing so the evicted event can be
		// collected.
		h.envs[0] = Envelope{}
		h.envs = append(h.envs[1:], env)
		return
	}
	h.envs = append(h.envs, env)
}

// Snapshot returns a copy of all envelopes, oldest first.
func (h *History) Snapshot() []Envelope {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Envelope(nil), h.envs...)
}

// Since returns the envelopes with a sequence number greater than seq.
func (h *History) Since(seq uint64) []Envelope {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i, env := range h.envs {
		if env.Seq > seq {
			return append([]Envelope(nil), h.envs[i:]...)
		}
	}
	return nil
}

// Len returns the current number of envelopes.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.envs)
}

func isChunk(env Envelope) bool {
	_, ok := env.Event.(ptyparse.AssistantChunkEvent)
	return ok
}

func isPartial(env Envelope) bool {
	c, ok := env.Event.(ptyparse.AssistantChunkEvent)
	return ok && c.Partial
}
