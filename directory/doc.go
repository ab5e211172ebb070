// Package directory implements the client side of the A2A protocol: a
// registry of remote agents keyed by base URL, a lazy agent card cache and
// the message/send call used to hand work to an agent.
//
// Two flavours of the send operation exist. Send returns a typed a2a.Result
// and a classified error (ErrConnectivity, ErrMalformedCard,
// ErrMalformedResponse or ErrRemote). SendTask never fails; it flattens any
// error into a string beginning with "Error:" so that callers which only pass
// text along, such as the workflow orchestrator, can detect failures by
// looking for that marker.
//
//	client := directory.New()
//	client.Register("http://localhost:10031")
//	text := client.SendTask(ctx, "http://localhost:10031", "Research the following topic thoroughly: Go")
package directory
