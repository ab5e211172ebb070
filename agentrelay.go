// Package agentrelay provides a high-level façade over the directory client
// and the workflow orchestrator, enabling a research, processing and
// reporting pipeline across three remote A2A agents. Most applications
// interact with this package by:
//  1. Creating an AgentRelay via New() or NewFromConfig()
//  2. Checking the crew with Status() or Agents()
//  3. Running the pipeline with Run() or RunDetailed()
//
// Hosting the agents themselves is the job of the crew package.
package agentrelay

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentrelay/a2a"
	"github.com/hupe1980/agentrelay/artifact"
	"github.com/hupe1980/agentrelay/config"
	"github.com/hupe1980/agentrelay/crew"
	"github.com/hupe1980/agentrelay/directory"
	"github.com/hupe1980/agentrelay/logging"
	"github.com/hupe1980/agentrelay/model"
	"github.com/hupe1980/agentrelay/model/anthropic"
	"github.com/hupe1980/agentrelay/model/openai"
	"github.com/hupe1980/agentrelay/workflow"
)

// Options configures the AgentRelay instance.
type Options struct {
	// Endpoints of the research, processing and report agents.
	Endpoints workflow.Endpoints

	// Timeouts for outbound task calls.
	Timeouts directory.Timeouts

	// ProbeTimeout bounds agent card fetches during Status and Agents.
	ProbeTimeout time.Duration

	// ResearchCutoff and ContextCutoff bound text forwarded between stages.
	ResearchCutoff int
	ContextCutoff  int

	// Artifacts archives the outputs of every run (optional).
	Artifacts artifact.Store

	// Client overrides the directory client built from Timeouts.
	Client *directory.Client

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentRelay is the high-level façade aggregating the directory client and orchestrator.
type AgentRelay struct {
	opts   Options
	client *directory.Client
	orch   *workflow.Orchestrator
}

// New creates a new AgentRelay with optional overrides.
func New(optFns ...func(o *Options)) *AgentRelay {
	opts := Options{
		Endpoints:      workflow.DefaultEndpoints,
		Timeouts:       directory.DefaultTimeouts,
		ProbeTimeout:   5 * time.Second,
		ResearchCutoff: 2000,
		ContextCutoff:  1500,
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	client := opts.Client
	if client == nil {
		client = directory.New(func(o *directory.Options) {
			o.Timeouts = opts.Timeouts
			o.ProbeTimeout = opts.ProbeTimeout
			o.Logger = opts.Logger
		})
	}

	orch := workflow.New(client, func(o *workflow.Options) {
		o.Endpoints = opts.Endpoints
		o.ResearchCutoff = opts.ResearchCutoff
		o.ContextCutoff = opts.ContextCutoff
		o.Artifacts = opts.Artifacts
		o.Logger = opts.Logger
	})

	return &AgentRelay{opts: opts, client: client, orch: orch}
}

// NewFromConfig creates an AgentRelay from loaded configuration.
func NewFromConfig(cfg *config.Config, logger logging.Logger) *AgentRelay {
	return New(func(o *Options) {
		o.Endpoints = EndpointsFromConfig(cfg)
		o.Timeouts = directory.Timeouts{
			Overall: cfg.Timeouts.Overall,
			Connect: cfg.Timeouts.Connect,
			Write:   cfg.Timeouts.Write,
			Pool:    cfg.Timeouts.Pool,
		}
		o.ProbeTimeout = cfg.Timeouts.Probe
		o.Logger = logger
	})
}

// EndpointsFromConfig derives the crew endpoints on cfg.Host and applies explicit overrides.
func EndpointsFromConfig(cfg *config.Config) workflow.Endpoints {
	ep := crew.Endpoints(cfg.Host)
	if cfg.Endpoints.Research != "" {
		ep.Research = cfg.Endpoints.Research
	}
	if cfg.Endpoints.Processing != "" {
		ep.Processing = cfg.Endpoints.Processing
	}
	if cfg.Endpoints.Report != "" {
		ep.Report = cfg.Endpoints.Report
	}
	return ep
}

// NewModelFromConfig builds the language model selected by cfg.
func NewModelFromConfig(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.APIKey = cfg.OpenAIAPIKey
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = cfg.AnthropicAPIKey
			if cfg.Name != "" {
				o.Model = anthropic.ModelName(cfg.Name)
			}
		}), nil
	case config.ProviderMock, "":
		name := cfg.Name
		if name == "" {
			name = "mock"
		}
		return model.NewMockModel(name, config.ProviderMock), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// Run executes the pipeline for topic and returns the final text.
func (r *AgentRelay) Run(ctx context.Context, topic string) string {
	return r.orch.Run(ctx, topic)
}

// RunDetailed executes the pipeline for topic and returns every stage result.
func (r *AgentRelay) RunDetailed(ctx context.Context, topic string) workflow.Report {
	return r.orch.RunDetailed(ctx, topic)
}

// Status probes the three pipeline agents.
func (r *AgentRelay) Status(ctx context.Context) []workflow.EndpointStatus {
	return r.orch.StatusCheck(ctx)
}

// Agents returns the cards of every reachable known agent.
func (r *AgentRelay) Agents(ctx context.Context) []a2a.AgentCard {
	return r.client.ListKnown(ctx)
}

// Endpoints returns the configured agent endpoints.
func (r *AgentRelay) Endpoints() workflow.Endpoints {
	return r.orch.Endpoints()
}

// Client returns the underlying directory client.
func (r *AgentRelay) Client() *directory.Client {
	return r.client
}
