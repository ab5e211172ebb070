package workflow

import (
	"context"
)

// EndpointStatus is the reachability of one pipeline agent.
type EndpointStatus struct {
	Stage     Stage
	URL       string
	Reachable bool
	AgentName string
	Detail    string
}

// StatusCheck probes every endpoint's agent card independently, in pipeline
// order. It is diagnostic only and never touches the card cache.
func (o *Orchestrator) StatusCheck(ctx context.Context) []EndpointStatus {
	stages := []Stage{StageResearch, StageProcessing, StageReporting}
	out := make([]EndpointStatus, 0, len(stages))

	for _, stage := range stages {
		url := o.opts.Endpoints.forStage(stage)
		st := EndpointStatus{Stage: stage, URL: url}

		card, err := o.sender.Probe(ctx, url)
		if err != nil {
			st.Detail = "Unreachable - " + err.Error()
			o.logger.Warn("agent unreachable", "stage", stage, "url", url, "error", err)
		} else {
			st.Reachable = true
			st.AgentName = card.Name
			st.Detail = "Available - " + card.Name
		}

		out = append(out, st)
	}

	return out
}
