package a2a

import (
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSendMessageRequest_WireShape(t *testing.T) {
	req := NewSendMessageRequest("Research the topic")

	raw, err := json.Marshal(req)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "2.0", m["jsonrpc"])
	assert.Equal(t, MethodSendMessage, m["method"])

	msg := m["params"].(map[string]any)["message"].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{32}$`), msg["messageId"])
	parts := msg["parts"].([]any)
	require.Len(t, parts, 1)
	assert.Equal(t, map[string]any{"kind": "text", "text": "Research the topic"}, parts[0])
}

func TestNewMessageID_Unique(t *testing.T) {
	assert.NotEqual(t, NewMessageID(), NewMessageID())
}

func TestMessage_TextContent(t *testing.T) {
	m := Message{Parts: []Part{TextPart("a"), {Kind: PartKindData, Data: map[string]any{"k": 1}}, TextPart("b")}}

	assert.Equal(t, "a\nb", m.TextContent())
}

func TestAgentCard_Validate(t *testing.T) {
	valid := AgentCard{
		Name:        "Research Analyst Agent",
		Description: "Gathers information.",
		Skills:      []AgentSkill{{ID: "conduct_research", Name: "Conduct Research"}},
	}
	assert.NoError(t, valid.Validate())

	invalid := AgentCard{Skills: []AgentSkill{{Name: "no id"}}}
	err := invalid.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "name is required")
	assert.ErrorContains(t, err, "description is required")
	assert.ErrorContains(t, err, "skill 0")
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "Error: boom", ErrorText(errors.New("boom")))
	assert.Contains(t, ErrorText(nil), ErrorMarker)
}
