package sink

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazelment/yoloswe/ptystream/ptyparse"
)

func TestSchema(t *testing.T) {
	out, err := SchemaJSON()
	require.NoError(t, err)

	var doc struct {
		OneOf []struct {
			Properties struct {
				Type struct {
					Const string `json:"const"`
				} `json:"type"`
				Event struct {
					Properties map[string]json.RawMessage `json:"properties"`
				} `json:"event"`
			} `json:"properties"`
			Title    string   `json:"title"`
			Required []string `json:"required"`
		} `json:"oneOf"`
		Schema string `json:"$schema"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.NotEmpty(t, doc.Schema)
	require.Len(t, doc.OneOf, len(ptyparse.EventTypes))

	byType := map[string]map[string]json.RawMessage{}
	for _, v := range doc.OneOf {
		assert.Equal(t, v.Title, v.Properties.Type.Const)
		assert.Equal(t, []string{"seq", "type", "event"}, v.Required)
		byType[v.Properties.Type.Const] = v.Properties.Event.Properties
	}

	assert.Contains(t, byType["toolCall"], "details")
	assert.Contains(t, byType["toolCall"], "duration")
	assert.Contains(t, byType["messageEnd"], "messageId")
	assert.Contains(t, byType["pause"], "contentLength")
	assert.Contains(t, byType["reset"], "ts")

	var phase struct {
		Enum []string `json:"enum"`
	}
	require.NoError(t, json.Unmarshal(byType["toolCall"]["type"], &phase))
	assert.Equal(t, []string{"start", "end"}, phase.Enum)
}
