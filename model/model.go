package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/agentrelay/core"
)

// ErrNoResponse is returned by Collect when a model finishes without
// producing any content.
var ErrNoResponse = errors.New("model produced no response")

// Request captures the normalized model input produced by executors.
type Request struct {
	Instructions string         `json:"instructions"` // System instructions for the model
	Contents     []core.Content `json:"contents"`     // Conversation converted to provider messages
	Stream       bool           `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"` // Indicates if this is a partial response
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", ...
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", ...
}

// Model is the minimal interface required by executors to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Collect drains a Generate call and returns the final response. When a
// provider only emits partial chunks their text is concatenated instead.
func Collect(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final   *Response
		partial strings.Builder
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if r.Partial {
				partial.WriteString(r.Content.Text())
				continue
			}
			rr := r
			final = &rr
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return Response{}, fmt.Errorf("%s generate: %w", m.Info().Provider, err)
			}
		}
	}

	if final != nil {
		return *final, nil
	}
	if partial.Len() == 0 {
		return Response{}, ErrNoResponse
	}
	return Response{
		Content:      core.NewTextContent(core.RoleAssistant, partial.String()),
		FinishReason: "stop",
	}, nil
}

// MockModel is a lightweight in-memory Model useful for tests & demos.
type MockModel struct {
	info      Info
	responses map[string]string
	fallback  func(instructions, input string) string
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// SetFallback installs a function answering prompts without a canned response.
func (m *MockModel) SetFallback(fn func(instructions, input string) string) { m.fallback = fn }

// Generate implements Model; emits optional streaming char chunks then final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)
		if len(req.Contents) == 0 {
			errCh <- fmt.Errorf("no contents provided")
			return
		}
		inputText := req.Contents[len(req.Contents)-1].Text()
		full, ok := m.responses[inputText]
		if !ok {
			if m.fallback != nil {
				full = m.fallback(req.Instructions, inputText)
			} else {
				full = fmt.Sprintf("Mock response to: %s", inputText)
			}
		}
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Content: core.NewTextContent(core.RoleAssistant, string(r)),
				}:
				}
			}
		}
		respCh <- Response{
			Partial:      false,
			Content:      core.NewTextContent(core.RoleAssistant, full),
			FinishReason: "stop",
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
