package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentrelay/a2a"
	"github.com/hupe1980/agentrelay/logging"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrConnectivity covers unreachable endpoints, timeouts and non-2xx statuses.
	ErrConnectivity = errors.New("agent unreachable")
	// ErrMalformedCard is returned when an agent card is not JSON or fails validation.
	ErrMalformedCard = errors.New("malformed agent card")
	// ErrMalformedResponse is returned when a task response is not a JSON-RPC envelope.
	ErrMalformedResponse = errors.New("malformed task response")
	// ErrRemote is returned when the agent answered with a JSON-RPC error.
	ErrRemote = errors.New("agent returned an error")
)

// maxBodyBytes bounds how much of a card or task response is read.
const maxBodyBytes = 16 << 20

// Options configures a Client.
type Options struct {
	// Timeouts bound outbound requests. When HTTPClient is set only Overall
	// is used, as the bound of card fetches; the client's own transport
	// governs everything else.
	Timeouts Timeouts

	// ProbeTimeout bounds card fetches made by ListKnown and Probe.
	ProbeTimeout time.Duration

	// HTTPClient overrides the transport built from Timeouts.
	HTTPClient *http.Client

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// entry is one tracked endpoint. card stays nil until the first successful fetch.
type entry struct {
	url  string
	card *a2a.AgentCard
}

// Client tracks remote A2A agents by normalized base URL and mediates every
// task sent to them. Agent cards are fetched lazily and cached at most once
// per URL for the lifetime of the Client. It is safe for concurrent use.
type Client struct {
	opts   Options
	http   *http.Client
	logger logging.Logger

	mu      sync.RWMutex
	entries map[string]*entry
	fetches singleflight.Group
}

// New creates a Client. Without options it uses DefaultTimeouts and a 5s probe timeout.
func New(optFns ...func(o *Options)) *Client {
	opts := Options{
		Timeouts:     DefaultTimeouts,
		ProbeTimeout: 5 * time.Second,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(opts.Timeouts)
	}

	return &Client{
		opts:    opts,
		http:    httpClient,
		logger:  logging.OrNoOp(opts.Logger),
		entries: make(map[string]*entry),
	}
}

// NormalizeURL strips trailing slashes so that "http://x:1" and "http://x:1/"
// address the same record.
func NormalizeURL(url string) string {
	return strings.TrimRight(url, "/")
}

// Register starts tracking url. Re-registering a known URL is a no-op.
func (c *Client) Register(url string) {
	u := NormalizeURL(url)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[u]; !ok {
		c.entries[u] = &entry{url: u}
		c.logger.Debug("agent registered", "url", u)
	}
}

// Deregister stops tracking url and drops its cached card. Unknown URLs are ignored.
func (c *Client) Deregister(url string) {
	u := NormalizeURL(url)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[u]; ok {
		delete(c.entries, u)
		c.logger.Debug("agent deregistered", "url", u)
	}
}

// Known returns the normalized URLs of all tracked agents in sorted order.
func (c *Client) Known() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	urls := make([]string, 0, len(c.entries))
	for u := range c.entries {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// ListKnown returns the card of every tracked agent, fetching and caching
// missing ones. Agents whose card cannot be fetched or validated are logged
// and left out; the result is ordered by URL.
func (c *Client) ListKnown(ctx context.Context) []a2a.AgentCard {
	urls := c.Known()
	cards := make([]a2a.AgentCard, 0, len(urls))
	for _, u := range urls {
		card, err := c.ensureCard(ctx, u, c.opts.ProbeTimeout)
		if err != nil {
			c.logger.Warn("failed to fetch agent card", "url", u, "error", err)
			continue
		}
		cards = append(cards, card)
	}
	return cards
}

// Card registers url if needed and returns its (possibly freshly fetched) card.
func (c *Client) Card(ctx context.Context, url string) (a2a.AgentCard, error) {
	u := NormalizeURL(url)
	c.Register(u)
	return c.ensureCard(ctx, u, 0)
}

// Probe fetches the card of url without consulting or updating the cache.
func (c *Client) Probe(ctx context.Context, url string) (a2a.AgentCard, error) {
	return c.fetchCard(ctx, NormalizeURL(url), c.opts.ProbeTimeout)
}

// Send delivers message to the agent at url as a message/send request and
// decodes the reply. Unknown URLs are registered and their card fetched first.
func (c *Client) Send(ctx context.Context, url, message string) (a2a.Result, error) {
	u := NormalizeURL(url)
	c.Register(u)

	if _, err := c.ensureCard(ctx, u, 0); err != nil {
		return nil, err
	}

	body, err := json.Marshal(a2a.NewSendMessageRequest(message))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message/send request: %w", err)
	}

	if c.opts.HTTPClient == nil {
		var done func()
		ctx, done = c.opts.Timeouts.acquireDeadline(ctx)
		defer done()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConnectivity, u, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: sending message to %s: %v", ErrConnectivity, u, causeOf(ctx, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response from %s: %v", ErrConnectivity, u, causeOf(ctx, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d: %s", ErrConnectivity, u, resp.StatusCode, snippet(raw))
	}

	result, err := a2a.DecodeResult(raw)
	if err != nil {
		var rpcErr *a2a.RPCError
		if errors.As(err, &rpcErr) {
			return nil, fmt.Errorf("%w: %s: %w", ErrRemote, u, rpcErr)
		}
		return nil, fmt.Errorf("%w from %s: %v", ErrMalformedResponse, u, err)
	}

	return result, nil
}

// SendTask is Send with every failure rendered as displayable text: it never
// returns an error, and failed calls yield a string starting with a2a.ErrorMarker.
func (c *Client) SendTask(ctx context.Context, url, message string) string {
	start := time.Now()
	result, err := c.Send(ctx, url, message)
	c.logTaskCall(NormalizeURL(url), time.Since(start), err)
	if err != nil {
		return a2a.ErrorText(err)
	}
	return result.Text()
}

type taskCallLogger interface {
	LogTaskCall(url string, dur time.Duration, success bool, err error)
}

func (c *Client) logTaskCall(url string, dur time.Duration, err error) {
	if tl, ok := c.logger.(taskCallLogger); ok {
		tl.LogTaskCall(url, dur, err == nil, err)
		return
	}
	if err != nil {
		c.logger.Error("task call failed", "url", url, "duration", dur, "error", err)
		return
	}
	c.logger.Info("task call completed", "url", url, "duration", dur)
}

// ensureCard returns the cached card for u or fetches, validates and caches
// it. Concurrent fetches of the same URL and timeout share one request that
// runs detached from any single caller's cancellation; each caller still
// stops waiting when its own ctx is done. The first card stored wins and is
// never replaced.
func (c *Client) ensureCard(ctx context.Context, u string, timeout time.Duration) (a2a.AgentCard, error) {
	if card, ok := c.cachedCard(u); ok {
		return card, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	key := u + "|" + timeout.String()

	ch := c.fetches.DoChan(key, func() (any, error) {
		if card, ok := c.cachedCard(u); ok {
			return card, nil
		}

		limit := timeout
		if limit <= 0 {
			limit = c.opts.Timeouts.Overall
		}
		card, err := c.fetchCard(flightCtx, u, limit)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		e, ok := c.entries[u]
		if !ok {
			// Deregistered while fetching; hand the card back without caching it.
			return card, nil
		}
		if e.card == nil {
			e.card = &card
			c.logger.Debug("agent card cached", "url", u, "name", card.Name)
		}
		return *e.card, nil
	})

	select {
	case <-ctx.Done():
		return a2a.AgentCard{}, fmt.Errorf("%w: fetching agent card from %s: %v", ErrConnectivity, u, context.Cause(ctx))
	case res := <-ch:
		if res.Err != nil {
			return a2a.AgentCard{}, res.Err
		}
		return res.Val.(a2a.AgentCard), nil
	}
}

func (c *Client) cachedCard(u string) (a2a.AgentCard, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if e, ok := c.entries[u]; ok && e.card != nil {
		return *e.card, true
	}
	return a2a.AgentCard{}, false
}

// fetchCard GETs and validates the card published under u. A zero timeout
// leaves the request bounded only by ctx and the client's own timeouts.
func (c *Client) fetchCard(ctx context.Context, u string, timeout time.Duration) (a2a.AgentCard, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cardURL := u + a2a.WellKnownCardPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, cardURL, nil)
	if err != nil {
		return a2a.AgentCard{}, fmt.Errorf("%w: %s: %v", ErrConnectivity, cardURL, err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return a2a.AgentCard{}, fmt.Errorf("%w: fetching agent card from %s: %v", ErrConnectivity, u, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return a2a.AgentCard{}, fmt.Errorf("%w: reading agent card from %s: %v", ErrConnectivity, u, err)
	}

	if resp.StatusCode != http.StatusOK {
		return a2a.AgentCard{}, fmt.Errorf("%w: %s returned status %d", ErrConnectivity, cardURL, resp.StatusCode)
	}

	var card a2a.AgentCard
	if err := json.Unmarshal(raw, &card); err != nil {
		return a2a.AgentCard{}, fmt.Errorf("%w from %s: %v", ErrMalformedCard, u, err)
	}
	if err := card.Validate(); err != nil {
		return a2a.AgentCard{}, fmt.Errorf("%w from %s: %v", ErrMalformedCard, u, err)
	}

	return card, nil
}

// snippet shortens a response body for inclusion in an error message.
func snippet(raw []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(raw))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
