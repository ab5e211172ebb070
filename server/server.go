package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/hupe1980/agentrelay/a2a"
	"github.com/hupe1980/agentrelay/logging"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Executor turns the text of an incoming message into the text of the reply.
type Executor interface {
	Execute(ctx context.Context, input string) (string, error)
}

// ExecutorFunc adapts a plain function to Executor.
type ExecutorFunc func(ctx context.Context, input string) (string, error)

// Execute calls f(ctx, input).
func (f ExecutorFunc) Execute(ctx context.Context, input string) (string, error) {
	return f(ctx, input)
}

// Options configures a Server.
type Options struct {
	// ArtifactName names the single artifact attached to completed tasks.
	ArtifactName string

	// StatusMessage is recorded in the task history while the executor runs.
	StatusMessage string

	// BodyLimit caps the size of incoming requests, e.g. "16M" (echo size syntax).
	BodyLimit string

	// Store keeps handled tasks for tasks/get (defaults to an InMemoryTaskStore).
	Store TaskStore

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Server hosts one agent over A2A: it publishes the agent card and answers
// JSON-RPC requests by running the Executor synchronously.
type Server struct {
	card   a2a.AgentCard
	exec   Executor
	opts   Options
	store  TaskStore
	logger logging.Logger
	echo   *echo.Echo
}

// New creates a Server for card backed by exec.
func New(card a2a.AgentCard, exec Executor, optFns ...func(o *Options)) *Server {
	opts := Options{
		ArtifactName:  "response",
		StatusMessage: "Processing request...",
		BodyLimit:     "16M",
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Store == nil {
		opts.Store = NewInMemoryTaskStore()
	}

	s := &Server{
		card:   card,
		exec:   exec,
		opts:   opts,
		store:  opts.Store,
		logger: logging.OrNoOp(opts.Logger),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("request handled", "agent", s.card.Name, "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	s.RegisterRoutes(e)
	s.echo = e

	return s
}

// RegisterRoutes registers the agent routes with an echo server.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET(a2a.WellKnownCardPath, s.handleCard)
	e.POST("/", s.handleRPC)
	e.GET("/health", s.handleHealth)
}

// Card returns the published agent card.
func (s *Server) Card() a2a.AgentCard {
	return s.card
}

// Store returns the task store backing tasks/get.
func (s *Server) Store() TaskStore {
	return s.store
}

// Handler exposes the server as an http.Handler, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr and blocks until the server is shut down.
func (s *Server) Start(addr string) error {
	s.logger.Info("agent listening", "agent", s.card.Name, "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleCard(c echo.Context) error {
	return c.JSON(http.StatusOK, s.card)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"agent":  s.card.Name,
	})
}
