package crew

import (
	"context"
	"time"

	"github.com/hupe1980/agentrelay/agent"
	"github.com/hupe1980/agentrelay/logging"
	"github.com/hupe1980/agentrelay/model"
	"github.com/hupe1980/agentrelay/server"
	"golang.org/x/sync/errgroup"
)

// ServeOptions configures how the crew is hosted.
type ServeOptions struct {
	// Stream requests streamed model output.
	Stream bool

	// ShutdownTimeout bounds graceful shutdown once ctx is done.
	ShutdownTimeout time.Duration

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// NewServer builds the A2A host for m backed by llm.
func (m Member) NewServer(llm model.Model, optFns ...func(o *ServeOptions)) *server.Server {
	opts := serveOptions(optFns)

	exec := agent.NewModelExecutor(m.Name, llm, func(o *agent.ModelExecutorOptions) {
		o.Instruction = agent.NewInstructionFromText(m.Instruction)
		o.Stream = opts.Stream
		o.Logger = opts.Logger
	})

	return server.New(m.Card(), exec, func(o *server.Options) {
		o.ArtifactName = m.ArtifactName
		o.StatusMessage = m.StatusMessage
		o.Logger = opts.Logger
	})
}

// Serve hosts every member until ctx is done or one of the servers fails,
// then shuts all of them down.
func Serve(ctx context.Context, members []Member, llm model.Model, optFns ...func(o *ServeOptions)) error {
	opts := serveOptions(optFns)
	logger := logging.OrNoOp(opts.Logger)

	g, gctx := errgroup.WithContext(ctx)

	servers := make([]*server.Server, len(members))
	for i, m := range members {
		servers[i] = m.NewServer(llm, optFns...)
	}

	for i, m := range members {
		srv, addr := servers[i], m.Addr()
		g.Go(func() error {
			logger.Info("starting agent", "agent", m.Name, "addr", addr)
			return srv.Start(addr)
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()

		for i, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("agent shutdown failed", "agent", members[i].Name, "error", err)
			}
		}
		logger.Info("crew stopped")
		return nil
	})

	return g.Wait()
}

func serveOptions(optFns []func(o *ServeOptions)) ServeOptions {
	opts := ServeOptions{
		ShutdownTimeout: 10 * time.Second,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}
