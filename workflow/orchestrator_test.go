package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hupe1980/agentrelay/a2a"
	"github.com/hupe1980/agentrelay/artifact"
	"github.com/hupe1980/agentrelay/directory"
	"github.com/hupe1980/agentrelay/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Register(url string) {
	m.Called(url)
}

func (m *MockSender) SendTask(ctx context.Context, url, message string) string {
	args := m.Called(ctx, url, message)
	return args.String(0)
}

func (m *MockSender) Probe(ctx context.Context, url string) (a2a.AgentCard, error) {
	args := m.Called(ctx, url)
	return args.Get(0).(a2a.AgentCard), args.Error(1)
}

func newMockSender() *MockSender {
	m := &MockSender{}
	m.On("Register", mock.Anything).Return()
	return m
}

const (
	researchURL   = "http://localhost:10031"
	processingURL = "http://localhost:10032"
	reportURL     = "http://localhost:10033"
)

func TestNew_RegistersEndpoints(t *testing.T) {
	m := newMockSender()

	New(m)

	m.AssertCalled(t, "Register", researchURL)
	m.AssertCalled(t, "Register", processingURL)
	m.AssertCalled(t, "Register", reportURL)
}

func TestRun_Success(t *testing.T) {
	m := newMockSender()
	m.On("SendTask", mock.Anything, researchURL, "Research the following topic thoroughly: Go").Return("R")
	m.On("SendTask", mock.Anything, processingURL, "Analyze and process this research data: R").Return("P")
	m.On("SendTask", mock.Anything, reportURL, mock.MatchedBy(func(msg string) bool {
		return strings.Contains(msg, "RESEARCH FINDINGS:\nR\n") && strings.Contains(msg, "DATA ANALYSIS:\nP\n")
	})).Return("F")

	rep := New(m).RunDetailed(context.Background(), "Go")

	m.AssertExpectations(t)
	assert.Equal(t, StateDone, rep.State)
	assert.False(t, rep.Failed())
	require.Len(t, rep.Stages, 3)
	assert.Contains(t, rep.Output, "# Workflow Orchestration Complete")
	assert.Contains(t, rep.Output, "## Final Report\nF\n")
	assert.NotContains(t, rep.Output, Ellipsis)
	for _, s := range rep.Stages {
		assert.NotContains(t, s.Input, Ellipsis)
	}
}

func TestRun_ResearchFailure(t *testing.T) {
	m := newMockSender()
	m.On("SendTask", mock.Anything, researchURL, mock.Anything).Return("Error: agent unreachable")

	rep := New(m).RunDetailed(context.Background(), "Go")

	assert.Equal(t, StateFailed, rep.State)
	assert.Equal(t, "Workflow failed at research stage: Error: agent unreachable", rep.Output)
	require.Len(t, rep.Stages, 1)
	m.AssertNotCalled(t, "SendTask", mock.Anything, processingURL, mock.Anything)
	m.AssertNotCalled(t, "SendTask", mock.Anything, reportURL, mock.Anything)
}

func TestRun_ProcessingFailureShortCircuits(t *testing.T) {
	m := newMockSender()
	m.On("SendTask", mock.Anything, researchURL, mock.Anything).Return("R")
	m.On("SendTask", mock.Anything, processingURL, mock.Anything).Return("Error: model offline")

	out := New(m).Run(context.Background(), "Go")

	assert.True(t, strings.HasPrefix(out, "Workflow failed at processing stage:"), out)
	m.AssertNumberOfCalls(t, "SendTask", 2)
	m.AssertNotCalled(t, "SendTask", mock.Anything, reportURL, mock.Anything)
}

func TestRun_ReportingFailure(t *testing.T) {
	m := newMockSender()
	m.On("SendTask", mock.Anything, researchURL, mock.Anything).Return("R")
	m.On("SendTask", mock.Anything, processingURL, mock.Anything).Return("P")
	m.On("SendTask", mock.Anything, reportURL, mock.Anything).Return("partial output then Error: boom")

	rep := New(m).RunDetailed(context.Background(), "Go")

	assert.Equal(t, StateFailed, rep.State)
	assert.True(t, strings.HasPrefix(rep.Output, "Workflow failed at reporting stage:"))
	assert.True(t, rep.Stages[2].Failed)
}

func TestRun_ResearchTruncatedAt2000(t *testing.T) {
	research := strings.Repeat("a", 2000) + "Z"

	m := newMockSender()
	m.On("SendTask", mock.Anything, researchURL, mock.Anything).Return(research)
	m.On("SendTask", mock.Anything, processingURL, mock.Anything).Return("P")
	m.On("SendTask", mock.Anything, reportURL, mock.Anything).Return("F")

	rep := New(m).RunDetailed(context.Background(), "Go")
	require.Len(t, rep.Stages, 3)

	processing := rep.Stages[1].Input
	assert.Equal(t, "Analyze and process this research data: "+strings.Repeat("a", 2000)+Ellipsis, processing)
	assert.NotContains(t, processing, "Z")

	report := rep.Stages[2].Input
	assert.Contains(t, report, "RESEARCH FINDINGS:\n"+strings.Repeat("a", 1500)+Ellipsis+"\n")
	assert.Contains(t, report, "DATA ANALYSIS:\nP\n")
}

func TestRun_CustomEndpointsAndCutoffs(t *testing.T) {
	m := newMockSender()
	m.On("SendTask", mock.Anything, "http://r", mock.Anything).Return("abcdef")
	m.On("SendTask", mock.Anything, "http://p", "Analyze and process this research data: abc...").Return("P")
	m.On("SendTask", mock.Anything, "http://w", mock.Anything).Return("F")

	o := New(m, func(o *Options) {
		o.Endpoints = Endpoints{Research: "http://r", Processing: "http://p", Report: "http://w"}
		o.ResearchCutoff = 3
	})

	assert.Equal(t, StateDone, o.RunDetailed(context.Background(), "x").State)
	m.AssertExpectations(t)
}

func TestRun_ArchivesOutputs(t *testing.T) {
	m := newMockSender()
	m.On("SendTask", mock.Anything, researchURL, mock.Anything).Return("R")
	m.On("SendTask", mock.Anything, processingURL, mock.Anything).Return("Error: down")

	store := artifact.NewInMemoryStore()
	rep := New(m, func(o *Options) { o.Artifacts = store }).RunDetailed(context.Background(), "Go")

	require.NotEmpty(t, rep.RunID)
	names, err := store.List(rep.RunID)
	require.NoError(t, err)
	assert.Equal(t, []string{FinalArtifact, "processing", "research"}, names)

	final, err := store.Get(rep.RunID, FinalArtifact)
	require.NoError(t, err)
	assert.Equal(t, rep.Output, string(final))
}

func TestRun_CancelledContextFailsStage(t *testing.T) {
	m := newMockSender()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := New(m).RunDetailed(ctx, "Go")

	assert.Equal(t, StateFailed, rep.State)
	assert.Contains(t, rep.Output, "research stage: Error: context canceled")
	m.AssertNotCalled(t, "SendTask", mock.Anything, mock.Anything, mock.Anything)
}

func TestStatusCheck(t *testing.T) {
	m := newMockSender()
	m.On("Probe", mock.Anything, researchURL).Return(a2a.AgentCard{Name: "Research Analyst"}, nil)
	m.On("Probe", mock.Anything, processingURL).Return(a2a.AgentCard{}, errors.New("connection refused"))
	m.On("Probe", mock.Anything, reportURL).Return(a2a.AgentCard{Name: "Report Writer"}, nil)

	st := New(m).StatusCheck(context.Background())

	require.Len(t, st, 3)
	assert.Equal(t, StageResearch, st[0].Stage)
	assert.True(t, st[0].Reachable)
	assert.Equal(t, "Research Analyst", st[0].AgentName)
	assert.False(t, st[1].Reachable)
	assert.Contains(t, st[1].Detail, "connection refused")
	assert.Equal(t, "Available - Report Writer", st[2].Detail)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab...", Truncate("abc", 2))
	assert.Equal(t, "abc", Truncate("abc", 0))
	assert.Equal(t, "日本...", Truncate("日本語", 2))
	assert.Equal(t, "", Truncate("", 5))
}

func TestRun_AgainstFakeAgents(t *testing.T) {
	research := testutil.NewFakeAgent("Research Analyst").Reply("R").Start(t)
	processing := testutil.NewFakeAgent("Data Processor").Reply("P").Start(t)
	report := testutil.NewFakeAgent("Report Writer").Reply("F").Start(t)

	o := New(directory.New(), func(o *Options) {
		o.Endpoints = Endpoints{Research: research.URL, Processing: processing.URL, Report: report.URL}
	})

	out := o.Run(context.Background(), "AI trends in 2024")

	assert.Contains(t, out, "## Final Report\nF\n")
	assert.Equal(t, "Research the following topic thoroughly: AI trends in 2024", research.LastMessage())
	assert.Equal(t, "Analyze and process this research data: R", processing.LastMessage())
	assert.Equal(t, 1, report.TaskRequests())

	st := o.StatusCheck(context.Background())
	require.Len(t, st, 3)
	for _, s := range st {
		assert.True(t, s.Reachable, s.Detail)
	}
}

func TestRun_FakeProcessingFailureSkipsReport(t *testing.T) {
	research := testutil.NewFakeAgent("Research Analyst").Reply("R").Start(t)
	processing := testutil.NewFakeAgent("Data Processor").Fail(errors.New("quota exceeded")).Start(t)
	report := testutil.NewFakeAgent("Report Writer").Reply("F").Start(t)

	o := New(directory.New(), func(o *Options) {
		o.Endpoints = Endpoints{Research: research.URL, Processing: processing.URL, Report: report.URL}
	})

	rep := o.RunDetailed(context.Background(), "x")

	assert.Equal(t, StateFailed, rep.State)
	assert.Contains(t, rep.Output, "Workflow failed at processing stage:")
	assert.Contains(t, rep.Output, "quota exceeded")
	assert.Equal(t, 0, report.TaskRequests())
}
