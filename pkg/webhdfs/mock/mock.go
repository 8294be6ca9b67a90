// Package mock implements an in-memory WebHDFS cluster as an http.Handler.
//
// The handler plays both roles: requests under /webhdfs/v1 are answered as a
// NameNode, and CREATE/APPEND/OPEN are redirected with 307 to DataNode URLs
// under /datanode on the same host.
package mock

import (
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"

	"github.com/Ratio1/webhdfs_sdk_go/internal/devseed"
)

var log = logging.Logger("webhdfs/mock")

const (
	apiPrefix      = "/webhdfs/v1"
	dataNodePrefix = "/datanode/"

	defaultUser        = "webuser"
	defaultGroup       = "supergroup"
	defaultFilePerm    = "644"
	defaultDirPerm     = "755"
	defaultReplication = 3
	defaultBlockSize   = 128 << 20
)

type node struct {
	dir         bool
	data        []byte
	owner       string
	group       string
	permission  string
	replication int
	blockSize   int64
	modTime     time.Time
	accessTime  time.Time
}

// ticket is a pending DataNode write issued by the NameNode redirect.
type ticket struct {
	op          string
	path        string
	user        string
	overwrite   bool
	permission  string
	replication int
	blockSize   int64
}

// RecordedRequest is one request observed by the mock.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
}

// Mock is an in-memory NameNode and DataNode.
type Mock struct {
	mu       sync.Mutex
	nodes    map[string]*node
	tickets  map[string]ticket
	requests []RecordedRequest
	user     string
	now      func() time.Time
}

// Option configures a Mock.
type Option func(*Mock)

// WithDefaultUser sets the user assumed when a request carries no user.name.
func WithDefaultUser(user string) Option {
	return func(m *Mock) {
		if strings.TrimSpace(user) != "" {
			m.user = user
		}
	}
}

// WithClock overrides the time source used for modification times.
func WithClock(now func() time.Time) Option {
	return func(m *Mock) {
		if now != nil {
			m.now = now
		}
	}
}

// New constructs a namespace holding / and the default user's home directory.
func New(opts ...Option) *Mock {
	m := &Mock{
		nodes:   make(map[string]*node),
		tickets: make(map[string]ticket),
		user:    defaultUser,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.nodes["/"] = m.newDir("hdfs", defaultDirPerm)
	m.mkdirAll(homeDir(m.user), m.user, defaultDirPerm)
	return m
}

// Seed loads files and directories from seed entries.
func (m *Mock) Seed(entries []devseed.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		p := cleanPath(e.Path)
		owner := e.Owner
		if owner == "" {
			owner = m.user
		}
		if e.Dir {
			perm := e.Permission
			if perm == "" {
				perm = defaultDirPerm
			}
			if err := m.mkdirAll(p, owner, perm); err != nil {
				return fmt.Errorf("mock webhdfs: seed %s: %w", p, err)
			}
			continue
		}
		data, err := e.Data()
		if err != nil {
			return err
		}
		if err := m.mkdirAll(path.Dir(p), owner, defaultDirPerm); err != nil {
			return fmt.Errorf("mock webhdfs: seed %s: %w", p, err)
		}
		n := m.newFile(owner, e.Permission, e.Replication, 0)
		n.data = append([]byte(nil), data...)
		if e.Group != "" {
			n.group = e.Group
		}
		if e.ModTime != nil {
			n.modTime = e.ModTime.UTC()
			n.accessTime = n.modTime
		}
		m.nodes[p] = n
	}
	return nil
}

// Requests returns a copy of every request observed so far.
func (m *Mock) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// ReadFile returns the stored contents of a file.
func (m *Mock) ReadFile(p string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[cleanPath(p)]
	if !ok || n.dir {
		return nil, false
	}
	return append([]byte(nil), n.data...), true
}

// Exists reports whether p names a file or directory.
func (m *Mock) Exists(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.nodes[cleanPath(p)]
	return ok
}

// ServeHTTP dispatches NameNode and DataNode requests.
func (m *Mock) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
	})
	m.mu.Unlock()
	log.Debugw("request", "method", r.Method, "url", r.URL.String())

	switch {
	case r.URL.Path == apiPrefix || strings.HasPrefix(r.URL.Path, apiPrefix+"/"):
		m.serveNameNode(w, r)
	case strings.HasPrefix(r.URL.Path, dataNodePrefix):
		m.serveDataNode(w, r)
	default:
		writeException(w, http.StatusNotFound, "FileNotFoundException", "no such endpoint: "+r.URL.Path)
	}
}

func (m *Mock) newDir(owner, perm string) *node {
	now := m.now()
	return &node{
		dir:        true,
		owner:      owner,
		group:      defaultGroup,
		permission: perm,
		modTime:    now,
		accessTime: now,
	}
}

func (m *Mock) newFile(owner, perm string, replication int, blockSize int64) *node {
	if perm == "" {
		perm = defaultFilePerm
	}
	if replication <= 0 {
		replication = defaultReplication
	}
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	now := m.now()
	return &node{
		owner:       owner,
		group:       defaultGroup,
		permission:  perm,
		replication: replication,
		blockSize:   blockSize,
		modTime:     now,
		accessTime:  now,
	}
}

// mkdirAll creates p and its parents. Callers hold m.mu.
func (m *Mock) mkdirAll(p, owner, perm string) error {
	if n, ok := m.nodes[p]; ok {
		if !n.dir {
			return fmt.Errorf("%s is a file", p)
		}
		return nil
	}
	if p != "/" {
		if err := m.mkdirAll(path.Dir(p), owner, defaultDirPerm); err != nil {
			return err
		}
	}
	m.nodes[p] = m.newDir(owner, perm)
	return nil
}

// children returns the sorted direct children of dir. Callers hold m.mu.
func (m *Mock) children(dir string) []string {
	prefix := dir
	if prefix != "/" {
		prefix += "/"
	}
	var out []string
	for p := range m.nodes {
		if p == dir || !strings.HasPrefix(p, prefix) {
			continue
		}
		if !strings.Contains(strings.TrimPrefix(p, prefix), "/") {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// subtree returns dir and every path beneath it. Callers hold m.mu.
func (m *Mock) subtree(dir string) []string {
	prefix := dir + "/"
	if dir == "/" {
		prefix = "/"
	}
	out := []string{dir}
	for p := range m.nodes {
		if p != dir && strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func (m *Mock) issueTicket(t ticket) string {
	id := uuid.New().String()
	m.tickets[id] = t
	return id
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func homeDir(user string) string {
	return "/user/" + user
}
