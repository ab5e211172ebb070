// Package workflow runs the linear research, processing and reporting
// pipeline across three A2A agents.
//
// Each stage wraps the previous output in a fixed instruction, sends it to
// the stage's agent and waits for the reply. Research text is cut to 2000
// characters before processing, and both sections handed to the report
// agent are cut to 1500. A reply containing "Error:" fails the stage and
// the run stops there, so later agents are never called.
//
//	orch := workflow.New(directory.New())
//	fmt.Println(orch.Run(ctx, "AI trends in 2024"))
package workflow
