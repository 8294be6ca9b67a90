package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/time/rate"
)

var log = logging.Logger("webhdfs/httpx")

// DefaultConnectTimeout bounds how long dialing the remote host may block.
// Transfer time after the connection is established is not bounded here.
const DefaultConnectTimeout = 4 * time.Second

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used by the helper. Its transport,
// jar and timeout are reused; redirect handling is always managed per request.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.base = h
		}
	}
}

// WithHeaders assigns default headers added to every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, values := range h {
			for _, v := range values {
				c.headers.Add(k, v)
			}
		}
	}
}

// WithConnectTimeout overrides DefaultConnectTimeout. It has no effect when a
// custom HTTP client is supplied with WithHTTPClient.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.connectTimeout = d
		}
	}
}

// WithRateLimit throttles outbound requests to rps requests per second with
// the given burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// Client wraps http.Client providing base URL and single-exchange utilities.
// It never retries: every call performs exactly one HTTP exchange (plus any
// redirects the caller explicitly asked to follow).
type Client struct {
	baseURL        *url.URL
	base           *http.Client
	follow         *http.Client
	direct         *http.Client
	headers        http.Header
	limiter        *rate.Limiter
	connectTimeout time.Duration
}

// Request describes a single outbound request.
type Request struct {
	Method string
	// Path and Query are resolved against the base URL. URL, when set, is an
	// absolute target that takes precedence over both.
	Path            string
	Query           url.Values
	URL             string
	Header          http.Header
	Body            []byte
	FollowRedirects bool
}

// Response is a fully captured HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewClient creates a Client for the provided base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("httpx: base URL is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("httpx: invalid base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("httpx: base URL %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:        parsed,
		headers:        make(http.Header),
		connectTimeout: DefaultConnectTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.base == nil {
		c.base = &http.Client{Transport: newTransport(c.connectTimeout)}
	}
	follow := *c.base
	follow.CheckRedirect = nil
	direct := *c.base
	direct.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.follow = &follow
	c.direct = &direct
	return c, nil
}

// Do executes the provided request and returns the captured response. A
// non-2xx status is not an error at this layer; callers interpret it.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("httpx: request is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Method == "" {
		return nil, errors.New("httpx: HTTP method is required")
	}

	fullURL := req.URL
	if fullURL == "" {
		var err error
		fullURL, err = c.buildURL(req.Path, req.Query)
		if err != nil {
			return nil, err
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("httpx: rate limiter: %w", err)
		}
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("httpx: build request: %w", err)
	}
	httpReq.ContentLength = int64(len(req.Body))

	httpReq.Header = cloneHeader(c.headers)
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	hc := c.direct
	if req.FollowRedirects {
		hc = c.follow
	}

	start := time.Now()
	resp, err := hc.Do(httpReq)
	if err != nil {
		log.Debugw("request failed", "method", req.Method, "url", fullURL, "err", err)
		return nil, err
	}
	data, err := ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpx: read response body: %w", err)
	}
	log.Debugw("request done",
		"method", req.Method,
		"url", fullURL,
		"status", resp.StatusCode,
		"bytes", len(data),
		"elapsed", time.Since(start))

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       data,
	}, nil
}

// ReadAllAndClose drains the reader and ensures it is closed.
func ReadAllAndClose(rc io.ReadCloser) ([]byte, error) {
	defer closeBody(rc)
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func newTransport(connectTimeout time.Duration) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

func closeBody(rc io.ReadCloser) {
	if rc != nil {
		_ = rc.Close()
	}
}

func (c *Client) buildURL(path string, q url.Values) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	ref := &url.URL{Path: path}
	if len(q) > 0 {
		ref.RawQuery = q.Encode()
	}
	full := c.baseURL.ResolveReference(ref)
	return full.String(), nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(contentType) == "application/json"
}

func cloneHeader(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for k, values := range src {
		vCopy := make([]string, len(values))
		copy(vCopy, values)
		dst[k] = vCopy
	}
	return dst
}
