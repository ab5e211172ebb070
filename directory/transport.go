package directory

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"
)

// Timeouts bound the phases of an outbound request.
type Timeouts struct {
	// Overall caps a whole request including reading the body.
	Overall time.Duration
	// Connect caps TCP dial and TLS handshake.
	Connect time.Duration
	// Write caps each write of the request to the connection.
	Write time.Duration
	// Pool caps waiting for a free connection, on top of Connect.
	Pool time.Duration
}

// DefaultTimeouts suit agents that may think for a minute or two before answering.
var DefaultTimeouts = Timeouts{
	Overall: 120 * time.Second,
	Connect: 10 * time.Second,
	Write:   10 * time.Second,
	Pool:    5 * time.Second,
}

// ErrPoolTimeout is the cancellation cause when no connection became available in time.
var ErrPoolTimeout = errors.New("timed out waiting for a connection")

func newHTTPClient(t Timeouts) *http.Client {
	dialer := &net.Dialer{
		Timeout:   t.Connect,
		KeepAlive: 30 * time.Second,
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSHandshakeTimeout = t.Connect
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if t.Write <= 0 {
			return conn, nil
		}
		return &writeDeadlineConn{Conn: conn, timeout: t.Write}, nil
	}

	return &http.Client{
		Timeout:   t.Overall,
		Transport: transport,
	}
}

// writeDeadlineConn arms a fresh write deadline before every Write.
type writeDeadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *writeDeadlineConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}

// acquireDeadline derives a context that is cancelled with ErrPoolTimeout when
// obtaining a connection takes longer than Pool+Connect. The returned func
// must be called once the request is finished.
func (t Timeouts) acquireDeadline(ctx context.Context) (context.Context, func()) {
	limit := t.Pool + t.Connect
	if t.Pool <= 0 || limit <= 0 {
		return ctx, func() {}
	}

	ctx, cancel := context.WithCancelCause(ctx)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
			timer = nil
		}
	}

	trace := &httptrace.ClientTrace{
		GetConn: func(string) {
			mu.Lock()
			defer mu.Unlock()
			if timer == nil {
				timer = time.AfterFunc(limit, func() { cancel(ErrPoolTimeout) })
			}
		},
		GotConn: func(httptrace.GotConnInfo) { stop() },
	}

	return httptrace.WithClientTrace(ctx, trace), func() {
		stop()
		cancel(nil)
	}
}

// causeOf prefers the cancellation cause recorded on ctx over the transport's
// generic "context canceled" error.
func causeOf(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); cause != nil && errors.Is(cause, ErrPoolTimeout) {
		return cause
	}
	return err
}
