// Package remote streams parser events to UI clients over WebSocket.
//
// A Server is a ptyparse.Sink: every event is numbered, kept in a replay
// history and fanned out to connected clients. Clients that connect late
// get the history first and then the live stream.
package remote

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bazelment/yoloswe/ptystream/sink"
)

// Broadcaster fans out envelopes from a single source channel to multiple
// subscriber channels. Each subscriber has its own buffered channel; if a
// subscriber falls behind, the oldest envelope is dropped.
type Broadcaster struct {
	subscribers map[int]chan sink.Envelope
	logger      *slog.Logger
	mu          sync.RWMutex
	nextID      int
	// done is set once Run has returned; later subscribers get a closed
	// channel.
	done bool
}

// NewBroadcaster creates a new broadcaster. A nil logger means
// slog.Default().
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[int]chan sink.Envelope),
		logger:      logger,
	}
}

// Subscribe creates a new subscriber channel with the given buffer size.
// Returns the subscriber ID (for Unsubscribe) and the read-only channel.
func (b *Broadcaster) Subscribe(bufSize int) (int, <-chan sink.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan sink.Envelope, bufSize)
	if b.done {
		close(ch)
		return id, ch
	}
	b.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Len returns the number of subscribers.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Run reads from source and fans out each envelope to all subscribers.
// It blocks until source is closed or ctx is cancelled, then closes every
// subscriber channel.
func (b *Broadcaster) Run(ctx context.Context, source <-chan sink.Envelope) {
	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return
		case env, ok := <-source:
			if !ok {
				b.closeAll()
				return
			}
			b.broadcast(env)
		}
	}
}

// broadcast sends an envelope to all current subscribers.
// If a subscriber's channel is full, the oldest envelope is dropped.
func (b *Broadcaster) broadcast(env sink.Envelope) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- env:
		default:
			// Channel full, drop oldest then send
			select {
			case old := <-ch:
				b.logger.Warn("broadcaster dropping oldest event", "subscriber", id, "seq", old.Seq)
			default:
			}
			select {
			case ch <- env:
			default:
				b.logger.Warn("broadcaster could not deliver event", "subscriber", id, "seq", env.Seq)
			}
		}
	}
}

// closeAll closes all subscriber channels. Called when the source is done.
func (b *Broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.done = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
