package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/agentrelay/a2a"
	"github.com/hupe1980/agentrelay/artifact"
	"github.com/hupe1980/agentrelay/logging"
)

// Sender delivers tasks to remote agents. *directory.Client satisfies it.
type Sender interface {
	Register(url string)
	SendTask(ctx context.Context, url, message string) string
	Probe(ctx context.Context, url string) (a2a.AgentCard, error)
}

// State is the position of a run in the pipeline.
type State string

// Pipeline states.
const (
	StateInit        State = "INIT"
	StateResearching State = "RESEARCHING"
	StateProcessing  State = "PROCESSING"
	StateReporting   State = "REPORTING"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

// Stage names one step of the pipeline.
type Stage string

// Pipeline stages in execution order.
const (
	StageResearch   Stage = "research"
	StageProcessing Stage = "processing"
	StageReporting  Stage = "reporting"
)

// Endpoints are the base URLs of the three pipeline agents.
type Endpoints struct {
	Research   string
	Processing string
	Report     string
}

// DefaultEndpoints points at the crew running on localhost.
var DefaultEndpoints = Endpoints{
	Research:   "http://localhost:10031",
	Processing: "http://localhost:10032",
	Report:     "http://localhost:10033",
}

func (e Endpoints) forStage(s Stage) string {
	switch s {
	case StageResearch:
		return e.Research
	case StageProcessing:
		return e.Processing
	default:
		return e.Report
	}
}

// Options configures an Orchestrator.
type Options struct {
	// Endpoints of the research, processing and report agents.
	Endpoints Endpoints

	// ResearchCutoff caps the research text forwarded to the processing agent.
	ResearchCutoff int

	// ContextCutoff caps each section forwarded to the report agent.
	ContextCutoff int

	// Artifacts archives stage outputs and the final text per run (optional).
	Artifacts artifact.Store

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// FinalArtifact names the archived final text of a run.
const FinalArtifact = "final"

// StageResult records one stage of a run.
type StageResult struct {
	Stage    Stage
	Endpoint string
	Input    string
	Output   string
	Failed   bool
	Duration time.Duration
}

// Report is the full outcome of a run.
type Report struct {
	RunID    string
	Topic    string
	State    State
	Stages   []StageResult
	Output   string
	Duration time.Duration
}

// Failed reports whether the run ended in StateFailed.
func (r Report) Failed() bool { return r.State == StateFailed }

// Orchestrator drives the fixed research, processing and reporting pipeline.
// Runs are strictly sequential; each stage waits for the previous reply.
type Orchestrator struct {
	sender Sender
	opts   Options
	logger logging.Logger
}

// New creates an Orchestrator and registers its endpoints with sender.
func New(sender Sender, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Endpoints:      DefaultEndpoints,
		ResearchCutoff: 2000,
		ContextCutoff:  1500,
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	sender.Register(opts.Endpoints.Research)
	sender.Register(opts.Endpoints.Processing)
	sender.Register(opts.Endpoints.Report)

	return &Orchestrator{
		sender: sender,
		opts:   opts,
		logger: logging.OrNoOp(opts.Logger),
	}
}

// Endpoints returns the configured agent endpoints.
func (o *Orchestrator) Endpoints() Endpoints {
	return o.opts.Endpoints
}

// Run executes the pipeline for topic and returns the final text, which is
// either the wrapped report or a failure message naming the failed stage.
func (o *Orchestrator) Run(ctx context.Context, topic string) string {
	return o.RunDetailed(ctx, topic).Output
}

// RunDetailed executes the pipeline for topic and returns every stage result.
func (o *Orchestrator) RunDetailed(ctx context.Context, topic string) Report {
	start := time.Now()
	rep := Report{RunID: uuid.NewString(), Topic: topic, State: StateInit}

	o.logger.Info("workflow started", "run_id", rep.RunID, "topic", topic)

	rep.State = StateResearching
	research, ok := o.runStage(ctx, &rep, StageResearch, researchMessage(topic))
	if !ok {
		return o.finish(rep, start)
	}

	rep.State = StateProcessing
	processed, ok := o.runStage(ctx, &rep, StageProcessing, processingMessage(research, o.opts.ResearchCutoff))
	if !ok {
		return o.finish(rep, start)
	}

	rep.State = StateReporting
	report, ok := o.runStage(ctx, &rep, StageReporting, reportMessage(research, processed, o.opts.ContextCutoff))
	if !ok {
		return o.finish(rep, start)
	}

	rep.State = StateDone
	rep.Output = finalMessage(report)
	return o.finish(rep, start)
}

// runStage sends input to the stage's agent. On failure it moves rep to
// StateFailed and sets the failure output.
func (o *Orchestrator) runStage(ctx context.Context, rep *Report, stage Stage, input string) (string, bool) {
	url := o.opts.Endpoints.forStage(stage)
	start := time.Now()

	var out string
	if err := ctx.Err(); err != nil {
		out = a2a.ErrorText(err)
	} else {
		out = o.sender.SendTask(ctx, url, input)
	}

	res := StageResult{
		Stage:    stage,
		Endpoint: url,
		Input:    input,
		Output:   out,
		Failed:   strings.Contains(out, a2a.ErrorMarker),
		Duration: time.Since(start),
	}
	rep.Stages = append(rep.Stages, res)
	o.logStage(res)
	o.archive(rep.RunID, string(stage), out)

	if res.Failed {
		rep.State = StateFailed
		rep.Output = failureMessage(stage, out)
		return "", false
	}
	return out, true
}

type stageLogger interface {
	LogStage(stage string, chars int, dur time.Duration, success bool)
}

type workflowLogger interface {
	LogWorkflow(steps int, dur time.Duration, success bool, err error)
}

func (o *Orchestrator) logStage(res StageResult) {
	if sl, ok := o.logger.(stageLogger); ok {
		sl.LogStage(string(res.Stage), len([]rune(res.Output)), res.Duration, !res.Failed)
		return
	}
	if res.Failed {
		o.logger.Error("stage failed", "stage", res.Stage, "url", res.Endpoint, "output", res.Output)
		return
	}
	o.logger.Info("stage completed", "stage", res.Stage, "chars", len([]rune(res.Output)), "duration", res.Duration)
}

func (o *Orchestrator) archive(runID, name, text string) {
	if o.opts.Artifacts == nil {
		return
	}
	if err := o.opts.Artifacts.Save(runID, name, []byte(text)); err != nil {
		o.logger.Warn("failed to archive run output", "run_id", runID, "name", name, "error", err)
	}
}

func (o *Orchestrator) finish(rep Report, start time.Time) Report {
	rep.Duration = time.Since(start)
	o.archive(rep.RunID, FinalArtifact, rep.Output)

	if wl, ok := o.logger.(workflowLogger); ok {
		var err error
		if rep.Failed() {
			err = stageError(rep.Output)
		}
		wl.LogWorkflow(len(rep.Stages), rep.Duration, !rep.Failed(), err)
		return rep
	}
	o.logger.Info("workflow finished", "state", rep.State, "stages", len(rep.Stages), "duration", rep.Duration)
	return rep
}

type stageError string

func (e stageError) Error() string { return string(e) }
