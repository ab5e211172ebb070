package crew

import (
	"fmt"

	"github.com/hupe1980/agentrelay/a2a"
	"github.com/hupe1980/agentrelay/workflow"
)

// Ports the crew listens on by default.
const (
	ResearchPort   = 10031
	ProcessingPort = 10032
	ReportPort     = 10033
)

// Member describes one specialised agent of the crew.
type Member struct {
	Stage         workflow.Stage
	Name          string
	Description   string
	Host          string
	Port          int
	Skills        []a2a.AgentSkill
	Instruction   string
	ArtifactName  string
	StatusMessage string
}

// URL returns the member's base URL without trailing slash.
func (m Member) URL() string {
	return fmt.Sprintf("http://%s:%d", m.Host, m.Port)
}

// Addr returns the listen address for the member.
func (m Member) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// Card builds the agent card the member publishes.
func (m Member) Card() a2a.AgentCard {
	return a2a.AgentCard{
		Name:               m.Name,
		Description:        m.Description,
		URL:                m.URL() + "/",
		Version:            "1.0.0",
		Capabilities:       a2a.AgentCapabilities{},
		DefaultInputModes:  []string{"text", "text/plain"},
		DefaultOutputModes: []string{"text", "text/plain"},
		Skills:             m.Skills,
	}
}

// Members returns the research, processing and report agents bound to host,
// in pipeline order.
func Members(host string) []Member {
	return []Member{
		{
			Stage:       workflow.StageResearch,
			Name:        "Research Analyst Agent",
			Description: "Gathers information from the web on specified topics.",
			Host:        host,
			Port:        ResearchPort,
			Skills: []a2a.AgentSkill{{
				ID:          "conduct_research",
				Name:        "Conduct Research",
				Description: "Searches the web for articles, studies, and data on a given subject.",
				Tags:        []string{"research", "web search", "information gathering"},
				Examples:    []string{"Find information on quantum computing breakthroughs in 2023."},
			}},
			Instruction: `You are the {{.Agent}}. Research the requested topic and report the key facts,
recent developments, notable sources and open questions as concise bullet points.`,
			ArtifactName:  "research_findings",
			StatusMessage: "Processing request...",
		},
		{
			Stage:       workflow.StageProcessing,
			Name:        "Data Processing Agent",
			Description: "Processes and analyzes data, extracts insights.",
			Host:        host,
			Port:        ProcessingPort,
			Skills: []a2a.AgentSkill{{
				ID:          "process_data",
				Name:        "Process Data",
				Description: "Analyzes provided data to extract key information, trends, or summaries.",
				Tags:        []string{"data analysis", "text processing", "insight extraction"},
				Examples:    []string{"Extract company names from the provided text.", "Summarize these findings: [data]"},
			}},
			Instruction: `You are the {{.Agent}}. Analyze the supplied research, extract trends,
quantitative signals and insights, and summarize them in a structured way.`,
			ArtifactName:  "processed_data_insights",
			StatusMessage: "Processing request...",
		},
		{
			Stage:       workflow.StageReporting,
			Name:        "Report Writer Agent",
			Description: "Compiles information into structured reports.",
			Host:        host,
			Port:        ReportPort,
			Skills: []a2a.AgentSkill{{
				ID:          "write_report",
				Name:        "Write Report",
				Description: "Generates a formatted textual report from provided content and structure.",
				Tags:        []string{"reporting", "text generation", "compilation"},
				Examples:    []string{"Compile a report with sections: Intro, Findings, Conclusion. Content: [data]"},
			}},
			Instruction: `You are the {{.Agent}}. Write a well-structured markdown report with an
introduction, findings, analysis and conclusion from the material you are given.`,
			ArtifactName:  "compiled_report",
			StatusMessage: "Report Writer is drafting...",
		},
	}
}

// Endpoints returns the workflow endpoints of the crew on host.
func Endpoints(host string) workflow.Endpoints {
	var ep workflow.Endpoints
	for _, m := range Members(host) {
		switch m.Stage {
		case workflow.StageResearch:
			ep.Research = m.URL()
		case workflow.StageProcessing:
			ep.Processing = m.URL()
		case workflow.StageReporting:
			ep.Report = m.URL()
		}
	}
	return ep
}
