package ptyparse

import "time"

// EventType discriminates between event kinds. The values are the names
// used on the wire.
type EventType string

const (
	// EventTypeStateChange fires on every state transition.
	EventTypeStateChange EventType = "stateChange"
	// EventTypePrompt fires for prompt-like lines while idle.
	EventTypePrompt EventType = "prompt"
	// EventTypeUserInput fires for lines typed at a prompt.
	EventTypeUserInput EventType = "userInput"
	// EventTypeAssistantChunk fires for assistant text, complete or partial.
	EventTypeAssistantChunk EventType = "assistantChunk"
	// EventTypeMessageStart fires when an assistant turn begins.
	EventTypeMessageStart EventType = "messageStart"
	// EventTypeMessageEnd fires when an assistant turn ends with content.
	EventTypeMessageEnd EventType = "messageEnd"
	// EventTypeCodeBlock fires when a fenced code block closes.
	EventTypeCodeBlock EventType = "codeBlock"
	// EventTypeToolCall fires when a tool call starts or ends.
	EventTypeToolCall EventType = "toolCall"
	// EventTypeThinking fires when a non-empty thinking block closes.
	EventTypeThinking EventType = "thinking"
	// EventTypePause fires after a quiet period mid-response.
	EventTypePause EventType = "pause"
	// EventTypeReset fires when the parser is reset.
	EventTypeReset EventType = "reset"
)

// EventTypes lists every event type in declaration order.
var EventTypes = []EventType{
	EventTypeStateChange,
	EventTypePrompt,
	EventTypeUserInput,
	EventTypeAssistantChunk,
	EventTypeMessageStart,
	EventTypeMessageEnd,
	EventTypeCodeBlock,
	EventTypeToolCall,
	EventTypeThinking,
	EventTypePause,
	EventTypeReset,
}

// Event is the interface for all events.
type Event interface {
	Type() EventType
	Time() time.Time
}

// StateChangeEvent fires on every state transition.
type StateChangeEvent struct {
	Timestamp time.Time `json:"ts"`
	From      State     `json:"from"`
	To        State     `json:"to"`
}

// PromptEvent fires when a prompt-like line is seen while idle.
type PromptEvent struct {
	Timestamp time.Time `json:"ts"`
	Content   string    `json:"content"`
	Raw       string    `json:"raw"`
}

// UserInputEvent carries a line typed at a prompt.
type UserInputEvent struct {
	Timestamp time.Time `json:"ts"`
	Content   string    `json:"content"`
	Raw       string    `json:"raw"`
}

// AssistantChunkEvent carries assistant text. Partial chunks hold the
// unterminated tail of the current line and are superseded by the
// complete chunk once the line ends.
type AssistantChunkEvent struct {
	Timestamp time.Time `json:"ts"`
	Content   string    `json:"content"`
	Raw       string    `json:"raw"`
	Partial   bool      `json:"partial"`
}

// MessageStartEvent fires when an assistant turn begins.
type MessageStartEvent struct {
	Timestamp time.Time `json:"ts"`
	MessageID string    `json:"messageId"`
}

// MessageEndEvent fires when an assistant turn ends.
type MessageEndEvent struct {
	Timestamp  time.Time `json:"ts"`
	MessageID  string    `json:"messageId"`
	Content    string    `json:"content"`
	DurationMs int64     `json:"duration"`
}

// CodeBlockEvent carries a completed fenced code block.
type CodeBlockEvent struct {
	Timestamp time.Time `json:"ts"`
	Language  string    `json:"language"`
	Code      string    `json:"code"`
}

// ToolCallPhase distinguishes the start and end of a tool call.
type ToolCallPhase string

const (
	ToolCallStart ToolCallPhase = "start"
	ToolCallEnd   ToolCallPhase = "end"
)

// ToolCallEvent fires when a tool call starts and again when it ends.
// Output and DurationMs are only set on the end event.
type ToolCallEvent struct {
	Timestamp  time.Time     `json:"ts"`
	Phase      ToolCallPhase `json:"type" jsonschema:"enum=start,enum=end"`
	Name       string        `json:"name"`
	Details    string        `json:"details"`
	Output     string        `json:"output,omitempty"`
	DurationMs int64         `json:"duration,omitempty"`
}

// ThinkingEvent carries a completed thinking block.
type ThinkingEvent struct {
	Timestamp time.Time `json:"ts"`
	Content   string    `json:"content"`
}

// PauseEvent is an advisory signal that output went quiet mid-response.
// It never ends the message.
type PauseEvent struct {
	Timestamp     time.Time `json:"ts"`
	State         State     `json:"state"`
	ContentLength int       `json:"contentLength"`
}

// ResetEvent fires when the parser discards its state.
type ResetEvent struct {
	Timestamp time.Time `json:"ts"`
}

// Type returns the event type.
func (e StateChangeEvent) Type() EventType { return EventTypeStateChange }

// Type returns the event type.
func (e PromptEvent) Type() EventType { return EventTypePrompt }

// Type returns the event type.
func (e UserInputEvent) Type() EventType { return EventTypeUserInput }

// Type returns the event type.
func (e AssistantChunkEvent) Type() EventType { return EventTypeAssistantChunk }

// Type returns the event type.
func (e MessageStartEvent) Type() EventType { return EventTypeMessageStart }

// Type returns the event type.
func (e MessageEndEvent) Type() EventType { return EventTypeMessageEnd }

// Type returns the event type.
func (e CodeBlockEvent) Type() EventType { return EventTypeCodeBlock }

// Type returns the event type.
func (e ToolCallEvent) Type() EventType { return EventTypeToolCall }

// Type returns the event type.
func (e ThinkingEvent) Type() EventType { return EventTypeThinking }

// Type returns the event type.
func (e PauseEvent) Type() EventType { return EventTypePause }

// Type returns the event type.
func (e ResetEvent) Type() EventType { return EventTypeReset }

func (e StateChangeEvent) Time() time.Time    { return e.Timestamp }
func (e PromptEvent) Time() time.Time         { return e.Timestamp }
func (e UserInputEvent) Time() time.Time      { return e.Timestamp }
func (e AssistantChunkEvent) Time() time.Time { return e.Timestamp }
func (e MessageStartEvent) Time() time.Time   { return e.Timestamp }
func (e MessageEndEvent) Time() time.Time     { return e.Timestamp }
func (e CodeBlockEvent) Time() time.Time      { return e.Timestamp }
func (e ToolCallEvent) Time() time.Time       { return e.Timestamp }
func (e ThinkingEvent) Time() time.Time       { return e.Timestamp }
func (e PauseEvent) Time() time.Time          { return e.Timestamp }
func (e ResetEvent) Time() time.Time          { return e.Timestamp }
