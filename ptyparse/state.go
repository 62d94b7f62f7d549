package ptyparse

// State is the parser's position in the output stream.
type State string

const (
	// StateIdle means no assistant turn is in progress.
	StateIdle State = "idle"
	// StateUserInput means the user is typing at a prompt.
	StateUserInput State = "user_input"
	// StateAssistantResponse means assistant prose is streaming.
	StateAssistantResponse State = "assistant_response"
	// StateCodeBlock means lines are inside a fenced code block.
	StateCodeBlock State = "code_block"
	// StateToolCall means lines are output of a tool invocation.
	StateToolCall State = "tool_call"
	// StateThinking means lines are inside a thinking block.
	StateThinking State = "thinking"
	// StateWaiting is reserved; no classification rule enters it.
	StateWaiting State = "waiting"
)

// String returns the state name.
func (s State) String() string { return string(s) }

// hasMessage reports whether a message is live while in s.
func (s State) hasMessage() bool {
	switch s {
	case StateAssistantResponse, StateCodeBlock, StateToolCall, StateThinking, StateWaiting:
		return true
	}
	return false
}
