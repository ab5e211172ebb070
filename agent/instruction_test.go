package agent

import (
	"context"
	"errors"
	"testing"
)

type mockProvider struct {
	text string
	err  error
}

func (m mockProvider) Instruction(context.Context, string) (string, error) { return m.text, m.err }

func TestInstruction_Static(t *testing.T) {
	inst := NewInstructionFromText("static instruction")
	if !inst.IsStatic() {
		t.Fatalf("expected static instruction")
	}
	got, err := inst.Resolve(context.Background(), "Research Analyst", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "static instruction" {
		t.Fatalf("expected 'static instruction', got %q", got)
	}
}

func TestInstruction_Template(t *testing.T) {
	inst := NewInstructionFromText("You are {{.Agent}}. Task: {{.Input}}")
	got, err := inst.Resolve(context.Background(), "Report Writer", "a <b> & c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "You are Report Writer. Task: a <b> & c" {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestInstruction_BadTemplate(t *testing.T) {
	inst := NewInstructionFromText("{{.Agent")
	if _, err := inst.Resolve(context.Background(), "x", "y"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestInstruction_NewInstructionFromFunc(t *testing.T) {
	inst := NewInstructionFromFunc(func(_ context.Context, input string) (string, error) { return "dynamic: " + input, nil })
	if inst.IsStatic() {
		t.Fatalf("expected dynamic instruction")
	}
	got, err := inst.Resolve(context.Background(), "x", "topic")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "dynamic: topic" {
		t.Fatalf("expected 'dynamic: topic', got %q", got)
	}
}

func TestInstruction_ProviderError(t *testing.T) {
	wantErr := errors.New("boom")
	inst := NewInstructionFromProvider(mockProvider{err: wantErr})
	if _, err := inst.Resolve(context.Background(), "x", "y"); !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}
