// Package server hosts a single agent behind the A2A protocol using echo.
//
// A Server publishes its agent card at /.well-known/agent.json and accepts
// JSON-RPC 2.0 requests on /. message/send runs the Executor synchronously
// and replies with a Task that is either completed (one artifact with one
// text part) or failed (status message starting with "Error:"). tasks/get
// returns a previously handled task from the TaskStore.
//
//	srv := server.New(card, server.ExecutorFunc(func(ctx context.Context, in string) (string, error) {
//		return strings.ToUpper(in), nil
//	}))
//	_ = srv.Start(":10031")
package server
