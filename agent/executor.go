package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentrelay/core"
	"github.com/hupe1980/agentrelay/logging"
	"github.com/hupe1980/agentrelay/model"
)

// ErrEmptyOutput is returned when the model answered with no text.
var ErrEmptyOutput = errors.New("model returned empty output")

// ModelExecutorOptions configures a ModelExecutor instance.
//
// Use functional options with NewModelExecutor to override defaults.
type ModelExecutorOptions struct {
	Instruction Instruction
	Stream      bool
	Logger      logging.Logger
}

// ModelExecutor answers A2A tasks by prompting a language model. It
// satisfies server.Executor, so one ModelExecutor backs one hosted agent.
type ModelExecutor struct {
	name        string
	llm         model.Model
	instruction Instruction
	stream      bool
	logger      logging.Logger
}

// NewModelExecutor creates an executor named name backed by llm.
func NewModelExecutor(name string, llm model.Model, optFns ...func(o *ModelExecutorOptions)) *ModelExecutor {
	opts := ModelExecutorOptions{
		Instruction: NewInstructionFromText("You are {{.Agent}}, a helpful assistant."),
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ModelExecutor{
		name:        name,
		llm:         llm,
		instruction: opts.Instruction,
		stream:      opts.Stream,
		logger:      logging.OrNoOp(opts.Logger),
	}
}

// Name returns the executor name.
func (e *ModelExecutor) Name() string { return e.name }

// Execute resolves the instruction, sends input as a single user turn and
// returns the concatenated text of the final response.
func (e *ModelExecutor) Execute(ctx context.Context, input string) (string, error) {
	instructions, err := e.instruction.Resolve(ctx, e.name, input)
	if err != nil {
		return "", fmt.Errorf("failed to resolve instruction for %s: %w", e.name, err)
	}

	req := model.Request{
		Instructions: instructions,
		Contents:     []core.Content{core.NewUserContent(input)},
		Stream:       e.stream,
	}

	start := time.Now()
	resp, err := model.Collect(ctx, e.llm, req)
	if err != nil {
		e.logger.Error("model call failed", "agent", e.name, "model", e.llm.Info().Name, "error", err)
		return "", err
	}

	out := strings.TrimSpace(resp.Content.Text())
	if out == "" {
		return "", fmt.Errorf("%s: %w", e.name, ErrEmptyOutput)
	}

	args := []any{"agent", e.name, "model", e.llm.Info().Name, "duration", time.Since(start), "chars", len([]rune(out))}
	if resp.Usage != nil {
		args = append(args, "total_tokens", resp.Usage.TotalTokens)
	}
	e.logger.Debug("model call completed", args...)

	return out, nil
}
