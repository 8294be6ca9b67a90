package webhdfs

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Ratio1/webhdfs_sdk_go/internal/httpx"
)

// Client provides access to a WebHDFS NameNode.
type Client struct {
	endpoint   Endpoint
	user       string
	dispatcher *Dispatcher
	closer     func()
}

type settings struct {
	user     string
	httpOpts []httpx.Option
}

// Option configures a Client.
type Option func(*settings)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(s *settings) {
		s.httpOpts = append(s.httpOpts, httpx.WithHTTPClient(h))
	}
}

// WithHeaders adds default headers to every request.
func WithHeaders(h http.Header) Option {
	return func(s *settings) {
		s.httpOpts = append(s.httpOpts, httpx.WithHeaders(h))
	}
}

// WithConnectTimeout overrides the 4 second connect timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.httpOpts = append(s.httpOpts, httpx.WithConnectTimeout(d))
	}
}

// WithRateLimit throttles requests client-side.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *settings) {
		s.httpOpts = append(s.httpOpts, httpx.WithRateLimit(rps, burst))
	}
}

// WithUser sends user.name on every request (WebHDFS pseudo authentication).
func WithUser(user string) Option {
	return func(s *settings) {
		s.user = strings.TrimSpace(user)
	}
}

// New constructs a client for the NameNode at host:port.
func New(host string, port int, opts ...Option) (*Client, error) {
	return NewWithEndpoint(Endpoint{Host: host, Port: port}, opts...)
}

// NewWithEndpoint constructs a client for ep.
func NewWithEndpoint(ep Endpoint, opts ...Option) (*Client, error) {
	if strings.TrimSpace(ep.Host) == "" {
		return nil, fmt.Errorf("webhdfs: host is required")
	}
	if ep.Port <= 0 || ep.Port > 65535 {
		return nil, fmt.Errorf("webhdfs: invalid port %d", ep.Port)
	}
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	cl, err := httpx.NewClient(ep.BaseURL(), s.httpOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{endpoint: ep, user: s.user, dispatcher: NewDispatcher(cl)}, nil
}

// NewFromURL constructs a client from an http://host:port address.
func NewFromURL(rawURL string, opts ...Option) (*Client, error) {
	ep, err := ParseEndpoint(rawURL)
	if err != nil {
		return nil, err
	}
	return NewWithEndpoint(ep, opts...)
}

// ParseEndpoint extracts host and port from an http URL. The port defaults to
// 50070 when absent.
func ParseEndpoint(rawURL string) (Endpoint, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Endpoint{}, fmt.Errorf("webhdfs: invalid URL: %w", err)
	}
	if u.Scheme != "http" || u.Hostname() == "" {
		return Endpoint{}, fmt.Errorf("webhdfs: expected http://host:port, got %q", rawURL)
	}
	ep := Endpoint{Host: u.Hostname(), Port: DefaultEndpoint.Port}
	if p := u.Port(); p != "" {
		ep.Port, err = strconv.Atoi(p)
		if err != nil {
			return Endpoint{}, fmt.Errorf("webhdfs: invalid port in %q", rawURL)
		}
	}
	return ep, nil
}

// Endpoint returns the NameNode address the client targets.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// Close releases resources owned by the client. It only does work for
// clients created by NewFromEnv in mock mode.
func (c *Client) Close() error {
	if c != nil && c.closer != nil {
		c.closer()
		c.closer = nil
	}
	return nil
}

// do builds the request URL for op and hands it to the Dispatcher.
func (c *Client) do(ctx context.Context, op Op, path string, p *params, body []byte) (*Result, error) {
	if c == nil || c.dispatcher == nil {
		return nil, fmt.Errorf("webhdfs: client is nil")
	}
	spec, ok := opTable[op]
	if !ok {
		return nil, fmt.Errorf("webhdfs: unknown op %q", op)
	}
	if c.user != "" {
		p.str("user.name", c.user)
	}
	return c.dispatcher.Dispatch(ctx, spec.strategy, spec.method, c.endpoint.requestURL(path, p.values), body)
}
