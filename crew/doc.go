// Package crew defines the three specialised agents the workflow talks to
// (research analyst, data processor and report writer) and hosts them as
// A2A servers backed by a language model.
package crew
