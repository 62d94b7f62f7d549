package sink

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/bazelment/yoloswe/ptystream/ptyparse"
)

var eventSamples = map[ptyparse.EventType]ptyparse.Event{
	ptyparse.EventTypeStateChange:    ptyparse.StateChangeEvent{},
	ptyparse.EventTypePrompt:         ptyparse.PromptEvent{},
	ptyparse.EventTypeUserInput:      ptyparse.UserInputEvent{},
	ptyparse.EventTypeAssistantChunk: ptyparse.AssistantChunkEvent{},
	ptyparse.EventTypeMessageStart:   ptyparse.MessageStartEvent{},
	ptyparse.EventTypeMessageEnd:     ptyparse.MessageEndEvent{},
	ptyparse.EventTypeCodeBlock:      ptyparse.CodeBlockEvent{},
	ptyparse.EventTypeToolCall:       ptyparse.ToolCallEvent{},
	ptyparse.EventTypeThinking:       ptyparse.ThinkingEvent{},
	ptyparse.EventTypePause:          ptyparse.PauseEvent{},
	ptyparse.EventTypeReset:          ptyparse.ResetEvent{},
}

// Schema returns the JSON Schema of an envelope: one variant per event
// type, discriminated by the "type" property.
func Schema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}

	root := &jsonschema.Schema{
		Version:     jsonschema.Version,
		ID:          "https://github.com/bazelment/yoloswe/ptystream/envelope",
		Title:       "ptystream event envelope",
		Description: "One parser event as written by the jsonl sink and the websocket server.",
	}
	for _, t := range ptyparse.EventTypes {
		body := reflector.Reflect(eventSamples[t])
		body.Version = ""

		props := jsonschema.NewProperties()
		props.Set("seq", &jsonschema.Schema{Type: "integer", Minimum: json.Number("1")})
		props.Set("type", &jsonschema.Schema{Type: "string", Const: string(t)})
		props.Set("event", body)

		root.OneOf = append(root.OneOf, &jsonschema.Schema{
			Title:                string(t),
			Type:                 "object",
			Properties:           props,
			Required:             []string{"seq", "type", "event"},
			AdditionalProperties: jsonschema.FalseSchema,
		})
	}
	return root
}

// SchemaJSON returns the indented envelope schema.
func SchemaJSON() ([]byte, error) {
	out, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return out, nil
}
