// Package a2a holds the wire types of the agent-to-agent (A2A) protocol as
// spoken by agentrelay: the AgentCard published at WellKnownCardPath, the
// JSON-RPC 2.0 envelopes for message/send and tasks/get, and the Task,
// Message, Part and Artifact payloads.
//
// DecodeResult turns a raw message/send response into a Result, which is
// either StructuredText (the first text part of the first artifact that has
// one) or RawEnvelope (the whole response, pretty printed) when the response
// does not carry artifact text.
package a2a
