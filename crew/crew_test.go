package crew

import (
	"context"
	"net"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/agentrelay/directory"
	"github.com/hupe1980/agentrelay/model"
	"github.com/hupe1980/agentrelay/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembers(t *testing.T) {
	members := Members("localhost")
	require.Len(t, members, 3)

	ports := []int{members[0].Port, members[1].Port, members[2].Port}
	assert.Equal(t, []int{10031, 10032, 10033}, ports)

	artifacts := []string{members[0].ArtifactName, members[1].ArtifactName, members[2].ArtifactName}
	assert.Equal(t, []string{"research_findings", "processed_data_insights", "compiled_report"}, artifacts)

	for _, m := range members {
		card := m.Card()
		assert.NoError(t, card.Validate(), m.Name)
		assert.True(t, strings.HasSuffix(card.URL, "/"))
		assert.Equal(t, "1.0.0", card.Version)
		assert.Equal(t, []string{"text", "text/plain"}, card.DefaultInputModes)
	}
}

func TestEndpoints(t *testing.T) {
	assert.Equal(t, workflow.DefaultEndpoints, Endpoints("localhost"))

	ep := Endpoints("10.0.0.5")
	assert.Equal(t, "http://10.0.0.5:10032", ep.Processing)
}

func TestMember_NewServer(t *testing.T) {
	llm := model.NewMockModel("mock", "mock")
	llm.SetFallback(func(instructions, input string) string {
		return "[" + strings.SplitN(instructions, ".", 2)[0] + "] " + input
	})

	m := Members("localhost")[2]
	ts := httptest.NewServer(m.NewServer(llm).Handler())
	t.Cleanup(ts.Close)

	c := directory.New()
	res, err := c.Send(context.Background(), ts.URL, "compile")
	require.NoError(t, err)
	assert.Equal(t, "[You are the Report Writer Agent] compile", res.Text())

	card, err := c.Card(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "Report Writer Agent", card.Name)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServe_RunsWorkflowEndToEnd(t *testing.T) {
	members := Members("127.0.0.1")
	for i := range members {
		members[i].Port = freePort(t)
	}

	llm := model.NewMockModel("mock", "mock")
	llm.SetFallback(func(_, input string) string {
		return "answer(" + strconv.Itoa(len([]rune(input))) + ")"
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, members, llm) }()

	ep := workflow.Endpoints{Research: members[0].URL(), Processing: members[1].URL(), Report: members[2].URL()}
	orch := workflow.New(directory.New(), func(o *workflow.Options) { o.Endpoints = ep })

	require.Eventually(t, func() bool {
		for _, s := range orch.StatusCheck(context.Background()) {
			if !s.Reachable {
				return false
			}
		}
		return true
	}, 5*time.Second, 50*time.Millisecond)

	rep := orch.RunDetailed(context.Background(), "AI trends in 2024")
	assert.Equal(t, workflow.StateDone, rep.State)
	assert.Contains(t, rep.Output, "## Final Report\nanswer(")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("crew did not shut down")
	}
}
