package webhdfs

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/Ratio1/webhdfs_sdk_go/internal/webhdfsapi"
)

// Endpoint identifies the NameNode serving the WebHDFS API.
type Endpoint struct {
	Host string
	Port int
}

// DefaultEndpoint is the NameNode HTTP address of a stock Hadoop 1.x install.
var DefaultEndpoint = Endpoint{Host: "localhost", Port: 50070}

// BaseURL returns http://host:port.
func (e Endpoint) BaseURL() string {
	return "http://" + net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// CreateOptions control CREATE. Zero values are omitted from the request so
// the NameNode applies its own defaults.
type CreateOptions struct {
	Overwrite   *bool
	BlockSize   int64
	Replication int
	Permission  string
	BufferSize  int
}

// OpenOptions control OPEN.
type OpenOptions struct {
	Offset     int64
	Length     int64
	BufferSize int
}

// TouchOptions control SETTIMES. Zero times are not sent and leave the
// corresponding timestamp unchanged.
type TouchOptions struct {
	ModificationTime time.Time
	AccessTime       time.Time
}

// FileStatus mirrors the WebHDFS FileStatus JSON object.
type FileStatus struct {
	AccessTime       int64  `json:"accessTime"`
	BlockSize        int64  `json:"blockSize"`
	Group            string `json:"group"`
	Length           int64  `json:"length"`
	ModificationTime int64  `json:"modificationTime"`
	Owner            string `json:"owner"`
	PathSuffix       string `json:"pathSuffix"`
	Permission       string `json:"permission"`
	Replication      int    `json:"replication"`
	Type             string `json:"type"` // FILE or DIRECTORY
}

// IsDir reports whether the status describes a directory.
func (s FileStatus) IsDir() bool { return s.Type == "DIRECTORY" }

// ModTime converts ModificationTime (epoch milliseconds) to a time.Time.
func (s FileStatus) ModTime() time.Time { return time.UnixMilli(s.ModificationTime) }

// ContentSummary mirrors the WebHDFS ContentSummary JSON object.
type ContentSummary struct {
	DirectoryCount int64 `json:"directoryCount"`
	FileCount      int64 `json:"fileCount"`
	Length         int64 `json:"length"`
	Quota          int64 `json:"quota"`
	SpaceConsumed  int64 `json:"spaceConsumed"`
	SpaceQuota     int64 `json:"spaceQuota"`
}

// FileChecksum mirrors the WebHDFS FileChecksum JSON object.
type FileChecksum struct {
	Algorithm string `json:"algorithm"`
	Bytes     string `json:"bytes"`
	Length    int64  `json:"length"`
}

// RemoteException is the error document returned by the NameNode.
type RemoteException = webhdfsapi.RemoteException

var (
	// ErrRequestFailed indicates the service answered with a non-success status.
	ErrRequestFailed = errors.New("webhdfs: request failed")
	// ErrBadRedirect indicates a 307 whose Location header is missing or unusable.
	ErrBadRedirect = errors.New("webhdfs: bad redirect location")
	// ErrDecode indicates a success response whose body could not be decoded.
	ErrDecode = errors.New("webhdfs: decode response")
	// ErrPathRequired indicates an empty path argument.
	ErrPathRequired = errors.New("webhdfs: path is required")
)

// OpError describes a failed pass-through operation.
type OpError struct {
	Op         Op
	Path       string
	StatusCode int
	Remote     *RemoteException
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("webhdfs: %s %s: status %d", e.Op, e.Path, e.StatusCode)
	if e.Remote != nil {
		msg += ": " + e.Remote.Error()
	}
	return msg
}

// Unwrap lets errors.Is match ErrRequestFailed.
func (e *OpError) Unwrap() error { return ErrRequestFailed }
