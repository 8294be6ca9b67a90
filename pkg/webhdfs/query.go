package webhdfs

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const apiPrefix = "/webhdfs/v1"

// DefaultPermission is applied by Mkdir when the caller passes none.
const DefaultPermission = "755"

// params accumulates query parameters for one request. All value encoding
// happens here: booleans as true/false, integers in decimal, times as epoch
// milliseconds.
type params struct {
	values url.Values
}

func newParams(op Op) *params {
	return &params{values: url.Values{"op": []string{string(op)}}}
}

func (p *params) str(key, val string) *params {
	p.values.Set(key, val)
	return p
}

func (p *params) optStr(key, val string) *params {
	if val != "" {
		p.values.Set(key, val)
	}
	return p
}

func (p *params) num(key string, n int64) *params {
	p.values.Set(key, strconv.FormatInt(n, 10))
	return p
}

func (p *params) optNum(key string, n int64) *params {
	if n > 0 {
		p.num(key, n)
	}
	return p
}

func (p *params) flag(key string, b bool) *params {
	p.values.Set(key, strconv.FormatBool(b))
	return p
}

func (p *params) optFlag(key string, b *bool) *params {
	if b != nil {
		p.flag(key, *b)
	}
	return p
}

func (p *params) millis(key string, t time.Time) *params {
	if !t.IsZero() {
		p.num(key, t.UnixMilli())
	}
	return p
}

// requestURL renders http://host:port/webhdfs/v1{path}?{query}. The path is
// escaped by url.URL; query values by url.Values.Encode.
func (e Endpoint) requestURL(path string, q url.Values) *url.URL {
	return &url.URL{
		Scheme:   "http",
		Host:     e.String(),
		Path:     apiPrefix + path,
		RawQuery: q.Encode(),
	}
}

func normalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrPathRequired
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path, nil
}

func validPermission(perm string) error {
	if perm == "" {
		return fmt.Errorf("webhdfs: permission is required")
	}
	v, err := strconv.ParseUint(perm, 8, 32)
	if err != nil || v > 0o1777 {
		return fmt.Errorf("webhdfs: invalid octal permission %q", perm)
	}
	return nil
}

func createParams(opts *CreateOptions) (*params, error) {
	p := newParams(OpCreate)
	if opts == nil {
		return p, nil
	}
	if opts.Permission != "" {
		if err := validPermission(opts.Permission); err != nil {
			return nil, err
		}
	}
	p.optFlag("overwrite", opts.Overwrite).
		optNum("blocksize", opts.BlockSize).
		optNum("replication", int64(opts.Replication)).
		optStr("permission", opts.Permission).
		optNum("buffersize", int64(opts.BufferSize))
	return p, nil
}

func openParams(opts *OpenOptions) *params {
	p := newParams(OpOpen)
	if opts == nil {
		return p
	}
	return p.optNum("offset", opts.Offset).
		optNum("length", opts.Length).
		optNum("buffersize", int64(opts.BufferSize))
}

func touchParams(opts *TouchOptions) *params {
	p := newParams(OpSetTimes)
	if opts == nil {
		return p
	}
	return p.millis("modificationtime", opts.ModificationTime).
		millis("accesstime", opts.AccessTime)
}
