package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages_SkipsSystemAndEmpty(t *testing.T) {
	msgs := buildMessages([]core.Content{
		core.NewTextContent(core.RoleSystem, "rules"),
		core.NewUserContent("question"),
		core.NewTextContent(core.RoleAssistant, ""),
		core.NewTextContent(core.RoleAssistant, "answer"),
	})

	require.Len(t, msgs, 2)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
}

func TestSystemBlocks(t *testing.T) {
	blocks := systemBlocks(model.Request{
		Instructions: "You write reports.",
		Contents:     []core.Content{core.NewTextContent(core.RoleSystem, "Be concise.")},
	})

	require.Len(t, blocks, 2)
	assert.Equal(t, "You write reports.", blocks[0].Text)
	assert.Equal(t, "Be concise.", blocks[1].Text)
}

func TestModel_Generate(t *testing.T) {
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-20241022",
			"content": [{"type": "text", "text": "report body"}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 4, "output_tokens": 6}
		}`))
	}))
	defer ts.Close()

	client := anthropic.NewClient(option.WithBaseURL(ts.URL+"/"), option.WithAPIKey("test"), option.WithMaxRetries(0))
	m := NewModelFromClient(&client)

	resp, err := model.Collect(context.Background(), m, model.Request{
		Instructions: "write",
		Contents:     []core.Content{core.NewUserContent("findings")},
	})

	require.NoError(t, err)
	assert.Equal(t, "report body", resp.Content.Text())
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, 10, resp.Usage.TotalTokens)
	assert.NotNil(t, gotBody["system"])
}

func TestModel_Info(t *testing.T) {
	m := NewModel(func(o *Options) { o.APIKey = "test" })

	assert.Equal(t, "anthropic", m.Info().Provider)
	assert.Equal(t, string(anthropic.ModelClaude3_5Sonnet20241022), m.Info().Name)
}
