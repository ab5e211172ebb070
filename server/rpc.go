package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/agentrelay/a2a"
	"github.com/labstack/echo/v4"
	"github.com/tidwall/gjson"
)

func (s *Server) handleRPC(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return rpcError(c, nil, a2a.CodeParseError, "failed to read request body")
	}

	if !gjson.ValidBytes(body) {
		return rpcError(c, nil, a2a.CodeParseError, "parse error")
	}
	if !gjson.ParseBytes(body).IsObject() {
		return rpcError(c, nil, a2a.CodeInvalidRequest, "request must be a JSON object")
	}

	var req a2a.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return rpcError(c, nil, a2a.CodeInvalidRequest, err.Error())
	}
	if req.JSONRPC != a2a.JSONRPCVersion || req.Method == "" {
		return rpcError(c, req.ID, a2a.CodeInvalidRequest, "invalid JSON-RPC request")
	}

	ctx := c.Request().Context()

	switch req.Method {
	case a2a.MethodSendMessage:
		return s.handleSendMessage(ctx, c, req)
	case a2a.MethodGetTask:
		return s.handleGetTask(c, req)
	default:
		s.logger.Warn("unknown method", "agent", s.card.Name, "method", req.Method)
		return rpcError(c, req.ID, a2a.CodeMethodNotFound, "method not found: "+req.Method)
	}
}

func (s *Server) handleSendMessage(ctx context.Context, c echo.Context, req a2a.Request) error {
	var params a2a.MessageSendParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return rpcError(c, req.ID, a2a.CodeInvalidParams, "invalid params: "+err.Error())
	}

	input := params.Message.TextContent()
	if input == "" {
		return rpcError(c, req.ID, a2a.CodeInvalidParams, "message has no text parts")
	}

	task := a2a.Task{
		ID:        uuid.NewString(),
		ContextID: params.Message.ContextID,
		Kind:      "task",
	}
	if task.ContextID == "" {
		task.ContextID = uuid.NewString()
	}

	userMsg := params.Message
	userMsg.TaskID = task.ID
	userMsg.ContextID = task.ContextID
	task.History = []a2a.Message{
		userMsg,
		a2a.NewAgentMessage(s.opts.StatusMessage, task.ContextID, task.ID),
	}

	s.logger.Info("executing task", "agent", s.card.Name, "task_id", task.ID, "input_chars", len([]rune(input)))
	start := time.Now()

	out, err := s.exec.Execute(ctx, input)
	if err != nil {
		s.logger.Error("task failed", "agent", s.card.Name, "task_id", task.ID, "duration", time.Since(start), "error", err)
		msg := a2a.NewAgentMessage(a2a.ErrorText(err), task.ContextID, task.ID)
		task.Status = a2a.TaskStatus{State: a2a.TaskStateFailed, Message: &msg, Timestamp: timestamp()}
	} else {
		s.logger.Info("task completed", "agent", s.card.Name, "task_id", task.ID, "duration", time.Since(start), "output_chars", len([]rune(out)))
		task.Status = a2a.TaskStatus{State: a2a.TaskStateCompleted, Timestamp: timestamp()}
		task.Artifacts = []a2a.Artifact{{
			ArtifactID: uuid.NewString(),
			Name:       s.opts.ArtifactName,
			Parts:      []a2a.Part{a2a.TextPart(out)},
		}}
	}

	if err := s.store.Save(task); err != nil {
		s.logger.Warn("failed to store task", "task_id", task.ID, "error", err)
	}

	return rpcResult(c, req.ID, task)
}

func (s *Server) handleGetTask(c echo.Context, req a2a.Request) error {
	var params a2a.TaskQueryParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.ID == "" {
		return rpcError(c, req.ID, a2a.CodeInvalidParams, "params.id is required")
	}

	task, err := s.store.Get(params.ID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return rpcError(c, req.ID, a2a.CodeTaskNotFound, "task not found: "+params.ID)
		}
		return rpcError(c, req.ID, a2a.CodeInternalError, err.Error())
	}

	return rpcResult(c, req.ID, task)
}

func rpcResult(c echo.Context, id any, result any) error {
	return c.JSON(http.StatusOK, a2a.Response{
		JSONRPC: a2a.JSONRPCVersion,
		ID:      id,
		Result:  result,
	})
}

// rpcError answers with HTTP 200 and a JSON-RPC error object.
func rpcError(c echo.Context, id any, code int, msg string) error {
	return c.JSON(http.StatusOK, a2a.Response{
		JSONRPC: a2a.JSONRPCVersion,
		ID:      id,
		Error:   &a2a.RPCError{Code: code, Message: msg},
	})
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
