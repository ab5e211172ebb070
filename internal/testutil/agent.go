package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/agentrelay/a2a"
	"github.com/hupe1980/agentrelay/server"
)

// FakeAgentBuilder provides a fluent helper for standing up A2A agents in tests.
// Example:
//
//	agent := NewFakeAgent("Research Agent").Reply("findings").Start(t)
//	client.SendTask(ctx, agent.URL, "topic")
//
// Agents are served by the real server package unless a raw body override is set.
type FakeAgentBuilder struct {
	card       a2a.AgentCard
	exec       server.ExecutorFunc
	artifact   string
	rawCard    *string
	cardStatus int
	cardDelay  time.Duration
	rawTask    *string
	taskStatus int
}

// NewFakeAgent creates a builder for an agent that echoes its input.
func NewFakeAgent(name string) *FakeAgentBuilder {
	return &FakeAgentBuilder{
		card: a2a.AgentCard{
			Name:        name,
			Description: name + " used in tests",
			Version:     "1.0.0",
		},
		exec: func(_ context.Context, in string) (string, error) { return in, nil },
	}
}

// Reply makes every task answer with text (chainable).
func (b *FakeAgentBuilder) Reply(text string) *FakeAgentBuilder {
	b.exec = func(context.Context, string) (string, error) { return text, nil }
	return b
}

// ReplyFunc computes the answer from the incoming text (chainable).
func (b *FakeAgentBuilder) ReplyFunc(fn func(input string) string) *FakeAgentBuilder {
	b.exec = func(_ context.Context, in string) (string, error) { return fn(in), nil }
	return b
}

// Fail makes every task end in the failed state with err (chainable).
func (b *FakeAgentBuilder) Fail(err error) *FakeAgentBuilder {
	b.exec = func(context.Context, string) (string, error) { return "", err }
	return b
}

// Artifact sets the artifact name used for replies (chainable).
func (b *FakeAgentBuilder) Artifact(name string) *FakeAgentBuilder { b.artifact = name; return b }

// RawCard serves body verbatim as the agent card (chainable).
func (b *FakeAgentBuilder) RawCard(body string) *FakeAgentBuilder { b.rawCard = &body; return b }

// CardStatus answers card requests with an empty body and status code (chainable).
func (b *FakeAgentBuilder) CardStatus(code int) *FakeAgentBuilder { b.cardStatus = code; return b }

// CardDelay holds every card response for d before answering (chainable).
func (b *FakeAgentBuilder) CardDelay(d time.Duration) *FakeAgentBuilder { b.cardDelay = d; return b }

// RawTask serves body verbatim as the reply to every task (chainable).
func (b *FakeAgentBuilder) RawTask(body string) *FakeAgentBuilder { b.rawTask = &body; return b }

// TaskStatus answers task requests with an empty body and status code (chainable).
func (b *FakeAgentBuilder) TaskStatus(code int) *FakeAgentBuilder { b.taskStatus = code; return b }

// Start serves the agent on a local httptest server closed at test cleanup.
func (b *FakeAgentBuilder) Start(t testing.TB) *FakeAgent {
	t.Helper()

	fa := &FakeAgent{}
	ts := httptest.NewUnstartedServer(nil)
	fa.URL = "http://" + ts.Listener.Addr().String()

	card := b.card
	card.URL = fa.URL + "/"

	srv := server.New(card, b.exec, func(o *server.Options) {
		if b.artifact != "" {
			o.ArtifactName = b.artifact
		}
	})
	fa.server = srv

	ts.Config.Handler = fa.wrap(b, srv.Handler())
	ts.Start()
	t.Cleanup(ts.Close)

	return fa
}

// FakeAgent is a running test agent that records what it receives.
type FakeAgent struct {
	// URL is the base URL without trailing slash.
	URL string

	server *server.Server

	mu       sync.Mutex
	cardHits int
	taskHits int
	messages []string
}

// Server returns the underlying agent host.
func (a *FakeAgent) Server() *server.Server { return a.server }

// CardRequests reports how often the agent card was fetched.
func (a *FakeAgent) CardRequests() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cardHits
}

// TaskRequests reports how many JSON-RPC requests were received.
func (a *FakeAgent) TaskRequests() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.taskHits
}

// Messages returns the text of every message/send request received so far.
func (a *FakeAgent) Messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}

// LastMessage returns the most recent message text, or "" if none arrived.
func (a *FakeAgent) LastMessage() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.messages) == 0 {
		return ""
	}
	return a.messages[len(a.messages)-1]
}

func (a *FakeAgent) wrap(b *FakeAgentBuilder, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == a2a.WellKnownCardPath:
			a.mu.Lock()
			a.cardHits++
			a.mu.Unlock()
			if b.cardDelay > 0 {
				time.Sleep(b.cardDelay)
			}

			if b.cardStatus != 0 {
				w.WriteHeader(b.cardStatus)
				return
			}
			if b.rawCard != nil {
				writeRaw(w, *b.rawCard)
				return
			}
		case r.Method == http.MethodPost && r.URL.Path == "/":
			body, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))

			var req a2a.SendMessageRequest
			a.mu.Lock()
			a.taskHits++
			if json.Unmarshal(body, &req) == nil && req.Method == a2a.MethodSendMessage {
				a.messages = append(a.messages, req.Params.Message.TextContent())
			}
			a.mu.Unlock()

			if b.taskStatus != 0 {
				w.WriteHeader(b.taskStatus)
				return
			}
			if b.rawTask != nil {
				writeRaw(w, *b.rawTask)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeRaw(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// UnreachableURL returns a base URL on which nothing is listening.
func UnreachableURL(t testing.TB) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return "http://" + addr
}
