package workflow

import (
	"fmt"
	"unicode/utf8"
)

// Ellipsis marks text that was cut by Truncate.
const Ellipsis = "..."

// Truncate keeps the first limit characters of text and appends Ellipsis
// when something was cut. Characters are counted as runes. A non-positive
// limit disables truncation.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i] + Ellipsis
		}
		n++
	}
	return text
}

func researchMessage(topic string) string {
	return "Research the following topic thoroughly: " + topic
}

func processingMessage(research string, cutoff int) string {
	return "Analyze and process this research data: " + Truncate(research, cutoff)
}

func reportMessage(research, processed string, cutoff int) string {
	return fmt.Sprintf(`Create a comprehensive report based on the following information:

RESEARCH FINDINGS:
%s

DATA ANALYSIS:
%s

Please create a well-structured report that combines both the research findings and data analysis.`,
		Truncate(research, cutoff), Truncate(processed, cutoff))
}

func finalMessage(report string) string {
	return fmt.Sprintf(`# Workflow Orchestration Complete

## Summary
Successfully coordinated between Research Analyst, Data Processor, and Report Writer agents using A2A protocol.

## Final Report
%s

---
*This report was generated through coordinated work between specialized AI agents using the A2A protocol.*`, report)
}

func failureMessage(stage Stage, text string) string {
	return fmt.Sprintf("Workflow failed at %s stage: %s", stage, text)
}
