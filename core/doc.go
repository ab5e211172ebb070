// Package core provides the role-based content types shared by the model
// adapters and the executors that host agents behind the A2A protocol.
//
// Content is an ordered list of parts tagged with a conversation role. Part is a
// closed sum type (TextPart, DataPart); callers switch on the concrete type.
package core
