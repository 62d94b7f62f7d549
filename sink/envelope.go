// Package sink provides event consumers for ptyparse: a JSON lines
// writer, a capped replay history, fan-out, and the JSON Schema of the wire
// format.
package sink

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/bazelment/yoloswe/ptystream/ptyparse"
)

// Envelope is the wire form of an event: a sequence number, the event
// type and the event body.
type Envelope struct {
	Event ptyparse.Event     `json:"event"`
	Type  ptyparse.EventType `json:"type"`
	Seq   uint64             `json:"seq"`
}

type rawEnvelope struct {
	Type  ptyparse.EventType `json:"type"`
	Event json.RawMessage    `json:"event"`
	Seq   uint64             `json:"seq"`
}

// UnmarshalJSON decodes the event body into its concrete type.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw rawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ev, err := decodeEvent(raw.Type, raw.Event)
	if err != nil {
		return err
	}
	*e = Envelope{Seq: raw.Seq, Type: raw.Type, Event: ev}
	return nil
}

func decodeEvent(t ptyparse.EventType, body json.RawMessage) (ptyparse.Event, error) {
	switch t {
	case ptyparse.EventTypeStateChange:
		return decodeAs[ptyparse.StateChangeEvent](body)
	case ptyparse.EventTypePrompt:
		return decodeAs[ptyparse.PromptEvent](body)
	case ptyparse.EventTypeUserInput:
		return decodeAs[ptyparse.UserInputEvent](body)
	case ptyparse.EventTypeAssistantChunk:
		return decodeAs[ptyparse.AssistantChunkEvent](body)
	case ptyparse.EventTypeMessageStart:
		return decodeAs[ptyparse.MessageStartEvent](body)
	case ptyparse.EventTypeMessageEnd:
		return decodeAs[ptyparse.MessageEndEvent](body)
	case ptyparse.EventTypeCodeBlock:
		return decodeAs[ptyparse.CodeBlockEvent](body)
	case ptyparse.EventTypeToolCall:
		return decodeAs[ptyparse.ToolCallEvent](body)
	case ptyparse.EventTypeThinking:
		return decodeAs[ptyparse.ThinkingEvent](body)
	case ptyparse.EventTypePause:
		return decodeAs[ptyparse.PauseEvent](body)
	case ptyparse.EventTypeReset:
		return decodeAs[ptyparse.ResetEvent](body)
	}
	return nil, fmt.Errorf("unknown event type %q", t)
}

func decodeAs[T ptyparse.Event](body json.RawMessage) (ptyparse.Event, error) {
	var ev T
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("decode %s event: %w", ev.Type(), err)
	}
	return ev, nil
}

// Sequencer numbers events in arrival order, starting at 1.
type Sequencer struct {
	last atomic.Uint64
}

// Next wraps e in an envelope with the next sequence number.
func (s *Sequencer) Next(e ptyparse.Event) Envelope {
	return Envelope{Seq: s.last.Add(1), Type: e.Type(), Event: e}
}
