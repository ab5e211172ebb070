// Package artifact archives the text produced by workflow runs.
//
// Every run gets an id; the orchestrator stores each stage output and the
// final text under that id so a run can be inspected after the fact. The
// Store interface keeps the backend swappable; InMemoryStore is the only
// implementation shipped and keeps data for the lifetime of the process.
package artifact
