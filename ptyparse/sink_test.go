package ptyparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelSink_DropsWhenFull(t *testing.T) {
	s := NewChannelSink(2)
	s.HandleEvent(ResetEvent{})
	s.HandleEvent(ResetEvent{})
	s.HandleEvent(ResetEvent{})

	assert.Len(t, s.Events(), 2)
	assert.Equal(t, int64(1), s.Dropped())
}

func TestChannelSink_Close(t *testing.T) {
	s := NewChannelSink(0)
	s.HandleEvent(ResetEvent{})
	s.Close()
	s.Close()
	s.HandleEvent(ResetEvent{})

	var got []Event
	for e := range s.Events() {
		got = append(got, e)
	}
	assert.Len(t, got, 1)
	assert.Equal(t, int64(1), s.Dropped())

	select {
	case <-s.Done():
	default:
		t.Fatal("done not closed")
	}
}

func TestChannelSink_WithParser(t *testing.T) {
	h := newHarness(t)
	s := NewChannelSink(10)
	p := New(s, WithClock(h.clock))
	defer p.Destroy()

	_, _ = p.WriteString("hi\n")
	p.Flush()

	e := <-s.Events()
	assert.Equal(t, EventTypeStateChange, e.Type())
	e = <-s.Events()
	assert.Equal(t, EventTypeMessageStart, e.Type())
}

func TestSinkFunc(t *testing.T) {
	var got EventType
	SinkFunc(func(e Event) { got = e.Type() }).HandleEvent(PauseEvent{})
	assert.Equal(t, EventTypePause, got)

	Discard.HandleEvent(ResetEvent{})
}
