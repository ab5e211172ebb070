// Package agent contains the model-backed executor that gives a hosted A2A
// agent its behaviour.
//
// A ModelExecutor pairs a name and an Instruction with a model.Model. Each
// incoming task becomes one request: the resolved instruction as system
// prompt and the task text as the single user turn. Instructions are either
// static templates ({{.Agent}}, {{.Input}}) or dynamic providers.
//
// Model specifics stay in the model package and transport stays in the
// server package, so an executor can be tested without a network.
package agent
