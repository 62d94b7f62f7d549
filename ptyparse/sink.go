package ptyparse

import (
	"sync"
	"sync/atomic"
)

// Sink receives parser events in order. HandleEvent is called while the
// parser lock is held, so it must return quickly and must not call back
// into the parser.
type Sink interface {
	HandleEvent(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// HandleEvent calls f(e).
func (f SinkFunc) HandleEvent(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// ChannelSink delivers events on a buffered channel. Events are dropped
// when the buffer is full or the sink is closed, so a slow reader never
// stalls the parser.
type ChannelSink struct {
	events  chan Event
	done    chan struct{}
	dropped atomic.Int64
	mu      sync.RWMutex
	closed  bool
}

// NewChannelSink creates a sink with the given buffer size (default: 100).
func NewChannelSink(size int) *ChannelSink {
	if size <= 0 {
		size = 100
	}
	return &ChannelSink{
		events: make(chan Event, size),
		done:   make(chan struct{}),
	}
}

// HandleEvent enqueues e without blocking.
func (s *ChannelSink) HandleEvent(e Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.events <- e:
	default:
		// Channel full, drop event
		s.dropped.Add(1)
	}
}

// Events returns the receive side of the channel. It is closed by Close.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// Dropped returns how many events were discarded.
func (s *ChannelSink) Dropped() int64 {
	return s.dropped.Load()
}

// Close closes the event channel. Safe to call more than once.
func (s *ChannelSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
	close(s.done)
}

// Done is closed once Close has been called.
func (s *ChannelSink) Done() <-chan struct{} {
	return s.done
}
