package webhdfs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	logging "github.com/ipfs/go-log/v2"

	"github.com/Ratio1/webhdfs_sdk_go/internal/httpx"
	"github.com/Ratio1/webhdfs_sdk_go/internal/webhdfsapi"
)

var log = logging.Logger("webhdfs")

// FailureStatus is reported by WriteWithRedirect when the NameNode does not
// answer the first hop with 307.
const FailureStatus = http.StatusBadRequest

// Result is the strategy-shaped outcome of one dispatch.
//
// StatusOnly and WriteWithRedirect populate StatusCode only. FetchBody sets
// Body (possibly empty, never nil) when the final status was 200. DecodeJSON
// sets Value when the final status was 200; a nil Value is the failure
// sentinel and is distinct from an empty object.
type Result struct {
	Strategy   Strategy
	StatusCode int
	Body       []byte
	Value      map[string]any
	Remote     *RemoteException
}

// Found reports whether a FetchBody dispatch produced a body.
func (r *Result) Found() bool {
	return r != nil && r.Body != nil
}

// Failed reports whether a DecodeJSON dispatch hit the failure sentinel.
func (r *Result) Failed() bool {
	return r == nil || r.Value == nil
}

// Dispatcher executes operation requests. It owns every HTTP exchange the
// client makes.
type Dispatcher struct {
	http *httpx.Client
}

// NewDispatcher wraps an httpx.Client.
func NewDispatcher(c *httpx.Client) *Dispatcher {
	return &Dispatcher{http: c}
}

// Dispatch performs the exchange described by strategy against target.
// body is only transmitted by WriteWithRedirect, on the second hop.
func (d *Dispatcher) Dispatch(ctx context.Context, strategy Strategy, method string, target *url.URL, body []byte) (*Result, error) {
	if d == nil || d.http == nil {
		return nil, errors.New("webhdfs: dispatcher not configured")
	}
	if target == nil {
		return nil, errors.New("webhdfs: target URL is required")
	}
	log.Debugw("dispatch", "strategy", strategy, "method", method, "url", target.String())

	switch strategy {
	case StatusOnly:
		return d.statusOnly(ctx, method, target)
	case FetchBody:
		return d.fetchBody(ctx, method, target)
	case DecodeJSON:
		return d.decodeJSON(ctx, method, target)
	case WriteWithRedirect:
		return d.writeWithRedirect(ctx, method, target, body)
	default:
		return nil, fmt.Errorf("webhdfs: unknown strategy %s", strategy)
	}
}

func (d *Dispatcher) statusOnly(ctx context.Context, method string, target *url.URL) (*Result, error) {
	resp, err := d.http.Do(ctx, &httpx.Request{Method: method, URL: target.String()})
	if err != nil {
		return nil, err
	}
	return &Result{Strategy: StatusOnly, StatusCode: resp.StatusCode}, nil
}

func (d *Dispatcher) fetchBody(ctx context.Context, method string, target *url.URL) (*Result, error) {
	resp, err := d.http.Do(ctx, &httpx.Request{Method: method, URL: target.String(), FollowRedirects: true})
	if err != nil {
		return nil, err
	}
	res := &Result{Strategy: FetchBody, StatusCode: resp.StatusCode}
	if resp.StatusCode != http.StatusOK {
		res.Remote = rejected(target, resp)
		return res, nil
	}
	res.Body = resp.Body
	if res.Body == nil {
		res.Body = []byte{}
	}
	return res, nil
}

func (d *Dispatcher) decodeJSON(ctx context.Context, method string, target *url.URL) (*Result, error) {
	resp, err := d.http.Do(ctx, &httpx.Request{Method: method, URL: target.String(), FollowRedirects: true})
	if err != nil {
		return nil, err
	}
	res := &Result{Strategy: DecodeJSON, StatusCode: resp.StatusCode}
	if resp.StatusCode != http.StatusOK {
		res.Remote = rejected(target, resp)
		return res, nil
	}
	value, err := webhdfsapi.DecodeObject(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	res.Value = value
	return res, nil
}

// writeWithRedirect asks the NameNode where to write, then POSTs the payload
// to the DataNode named in the 307 Location header.
func (d *Dispatcher) writeWithRedirect(ctx context.Context, method string, target *url.URL, body []byte) (*Result, error) {
	first, err := d.http.Do(ctx, &httpx.Request{Method: method, URL: target.String()})
	if err != nil {
		return nil, err
	}
	if first.StatusCode != http.StatusTemporaryRedirect {
		log.Debugw("write not redirected", "url", target.String(), "status", first.StatusCode)
		return &Result{Strategy: WriteWithRedirect, StatusCode: FailureStatus}, nil
	}

	location, err := redirectLocation(first.Header)
	if err != nil {
		return nil, err
	}
	log.Debugw("write redirected", "from", target.String(), "to", location.String(), "bytes", len(body))

	second, err := d.http.Do(ctx, &httpx.Request{
		Method: http.MethodPost,
		URL:    location.String(),
		Header: http.Header{"Content-Type": []string{"application/octet-stream"}},
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	return &Result{Strategy: WriteWithRedirect, StatusCode: second.StatusCode}, nil
}

// rejected logs a non-200 answer and extracts its RemoteException, if any.
func rejected(target *url.URL, resp *httpx.Response) *RemoteException {
	log.Debugw("request rejected", "url", target.String(), "err", httpx.NewHTTPError(resp))
	return webhdfsapi.ExtractRemoteException(resp.Body)
}

// redirectLocation accepts only absolute http(s) URLs with a host.
func redirectLocation(h http.Header) (*url.URL, error) {
	raw := strings.TrimSpace(h.Get("Location"))
	if raw == "" {
		return nil, fmt.Errorf("%w: missing Location header", ErrBadRedirect)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRedirect, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme in %q", ErrBadRedirect, raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: no host in %q", ErrBadRedirect, raw)
	}
	return u, nil
}
