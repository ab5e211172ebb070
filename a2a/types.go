package a2a

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// WellKnownCardPath is where an agent publishes its AgentCard, relative to its base URL.
const WellKnownCardPath = "/.well-known/agent.json"

// JSONRPCVersion is the only protocol version spoken on the wire.
const JSONRPCVersion = "2.0"

// JSON-RPC methods.
const (
	MethodSendMessage = "message/send"
	MethodGetTask     = "tasks/get"
)

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeTaskNotFound   = -32001
)

// ErrorMarker prefixes every human-readable failure text produced by agentrelay.
// Pipeline stages are considered failed when their output contains it.
const ErrorMarker = "Error:"

// ErrorText renders err as displayable text carrying the ErrorMarker.
func ErrorText(err error) string {
	if err == nil {
		return ErrorMarker + " unknown error"
	}
	return ErrorMarker + " " + err.Error()
}

// AgentCard is the metadata document an agent publishes at WellKnownCardPath.
type AgentCard struct {
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	URL                string            `json:"url,omitempty"`
	Version            string            `json:"version,omitempty"`
	Capabilities       AgentCapabilities `json:"capabilities"`
	DefaultInputModes  []string          `json:"defaultInputModes,omitempty"`
	DefaultOutputModes []string          `json:"defaultOutputModes,omitempty"`
	Skills             []AgentSkill      `json:"skills"`
}

// AgentCapabilities describes optional protocol features.
type AgentCapabilities struct {
	Streaming         bool `json:"streaming,omitempty"`
	PushNotifications bool `json:"pushNotifications,omitempty"`
}

// AgentSkill describes one capability the agent offers.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// Validate reports schema violations: a card needs a name and a description,
// and every declared skill needs an id and a name.
func (c AgentCard) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if strings.TrimSpace(c.Description) == "" {
		errs = append(errs, errors.New("description is required"))
	}
	for i, s := range c.Skills {
		if s.ID == "" || s.Name == "" {
			errs = append(errs, fmt.Errorf("skill %d: id and name are required", i))
		}
	}
	return errors.Join(errs...)
}

// Role identifies the sender of a Message.
type Role string

// Message roles.
const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// PartKind discriminates Part payloads.
type PartKind string

// Part kinds.
const (
	PartKindText PartKind = "text"
	PartKindData PartKind = "data"
)

// Part is one segment of a Message or Artifact.
type Part struct {
	Kind PartKind       `json:"kind"`
	Text string         `json:"text,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) Part { return Part{Kind: PartKindText, Text: text} }

// Message is one conversational turn.
type Message struct {
	Role      Role   `json:"role"`
	Parts     []Part `json:"parts"`
	MessageID string `json:"messageId"`
	TaskID    string `json:"taskId,omitempty"`
	ContextID string `json:"contextId,omitempty"`
	Kind      string `json:"kind"`
}

// NewMessageID returns a fresh 32 character hex identifier.
func NewMessageID() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:])
}

// NewUserMessage builds a user message with a single text part.
func NewUserMessage(text string) Message {
	return Message{
		Role:      RoleUser,
		Parts:     []Part{TextPart(text)},
		MessageID: NewMessageID(),
		Kind:      "message",
	}
}

// NewAgentMessage builds an agent message with a single text part bound to a task.
func NewAgentMessage(text, contextID, taskID string) Message {
	return Message{
		Role:      RoleAgent,
		Parts:     []Part{TextPart(text)},
		MessageID: NewMessageID(),
		TaskID:    taskID,
		ContextID: contextID,
		Kind:      "message",
	}
}

// TextContent joins the message's text parts with newlines.
func (m Message) TextContent() string {
	texts := make([]string, 0, len(m.Parts))
	for _, p := range m.Parts {
		if p.Kind == PartKindText && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// TaskState is the lifecycle state of a Task.
type TaskState string

// Task states.
const (
	TaskStateSubmitted TaskState = "submitted"
	TaskStateWorking   TaskState = "working"
	TaskStateCompleted TaskState = "completed"
	TaskStateFailed    TaskState = "failed"
	TaskStateCanceled  TaskState = "canceled"
)

// TaskStatus carries the current state and an optional agent message.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
}

// Artifact is a named output produced by a task.
type Artifact struct {
	ArtifactID string `json:"artifactId"`
	Name       string `json:"name,omitempty"`
	Parts      []Part `json:"parts"`
}

// Task is the unit of work an agent executes for one message.
type Task struct {
	ID        string     `json:"id"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	History   []Message  `json:"history,omitempty"`
	Kind      string     `json:"kind"`
}

// Request is a JSON-RPC 2.0 request with undecoded params.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MessageSendParams are the params of MethodSendMessage.
type MessageSendParams struct {
	Message Message `json:"message"`
}

// TaskQueryParams are the params of MethodGetTask.
type TaskQueryParams struct {
	ID string `json:"id"`
}

// SendMessageRequest is the typed request the client puts on the wire.
type SendMessageRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      string            `json:"id"`
	Method  string            `json:"method"`
	Params  MessageSendParams `json:"params"`
}

// NewSendMessageRequest wraps text into a fresh message/send request.
func NewSendMessageRequest(text string) SendMessageRequest {
	return SendMessageRequest{
		JSONRPC: JSONRPCVersion,
		ID:      uuid.NewString(),
		Method:  MethodSendMessage,
		Params:  MessageSendParams{Message: NewUserMessage(text)},
	}
}

// Response is a JSON-RPC 2.0 response. Exactly one of Result and Error is set.
type Response struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements error.
func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}
