// Package testutil contains helpers used across tests to stand up fake A2A
// agents and to obtain endpoints that are guaranteed to refuse connections.
// Fake agents are served by the real server package so tests exercise the
// same wire format production agents speak. They are not intended for
// production usage.
package testutil
