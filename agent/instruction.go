package agent

import (
	"context"

	"github.com/hupe1980/agentrelay/internal/util"
)

// Provider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from the incoming task text, environment, etc.
type Provider interface {
	Instruction(ctx context.Context, input string) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(ctx context.Context, input string) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(ctx context.Context, input string) (string, error) { return f(ctx, input) }

// Instruction represents either a static instruction template or a dynamic provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static template. The
// template may reference {{.Agent}} and {{.Input}}.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(ctx context.Context, input string) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static template.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text for agent handling input, invoking
// the provider or rendering the template as needed.
func (i Instruction) Resolve(ctx context.Context, agent, input string) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(ctx, input)
	}
	return util.RenderTemplate(i.text, map[string]any{
		"Agent": agent,
		"Input": input,
	})
}
