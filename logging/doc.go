// Package logging provides a minimal logging interface and adapters for agentrelay.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the directory client, workflow and agent host use for observability. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - RelayLogger with task, stage and workflow helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	client := directory.New(func(o *directory.Options) { o.Logger = logger })
package logging
