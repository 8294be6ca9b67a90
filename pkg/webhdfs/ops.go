package webhdfs

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Ratio1/webhdfs_sdk_go/internal/webhdfsapi"
)

// Create writes data to a new file through the two-phase write. It reports
// true iff the DataNode answered 201 Created.
func (c *Client) Create(ctx context.Context, path string, data []byte, opts *CreateOptions) (bool, error) {
	path, err := normalizePath(path)
	if err != nil {
		return false, err
	}
	p, err := createParams(opts)
	if err != nil {
		return false, err
	}
	res, err := c.do(ctx, OpCreate, path, p, data)
	if err != nil {
		return false, err
	}
	return res.StatusCode == http.StatusCreated, nil
}

// Append adds data to the end of an existing file. A non-positive bufferSize
// is replaced by len(data). It reports true iff the DataNode answered 200.
func (c *Client) Append(ctx context.Context, path string, data []byte, bufferSize int) (bool, error) {
	path, err := normalizePath(path)
	if err != nil {
		return false, err
	}
	if bufferSize <= 0 {
		bufferSize = len(data)
	}
	p := newParams(OpAppend).num("buffersize", int64(bufferSize))
	res, err := c.do(ctx, OpAppend, path, p, data)
	if err != nil {
		return false, err
	}
	return res.StatusCode == http.StatusOK, nil
}

// Open reads a file. A non-200 answer yields an *OpError wrapping
// ErrRequestFailed.
func (c *Client) Open(ctx context.Context, path string, opts *OpenOptions) ([]byte, error) {
	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}
	res, err := c.do(ctx, OpOpen, path, openParams(opts), nil)
	if err != nil {
		return nil, err
	}
	if !res.Found() {
		return nil, &OpError{Op: OpOpen, Path: path, StatusCode: res.StatusCode, Remote: res.Remote}
	}
	return res.Body, nil
}

// Mkdir creates path and any missing parents. An empty permission means 755.
func (c *Client) Mkdir(ctx context.Context, path string, permission string) (bool, error) {
	path, err := normalizePath(path)
	if err != nil {
		return false, err
	}
	if permission == "" {
		permission = DefaultPermission
	}
	if err := validPermission(permission); err != nil {
		return false, err
	}
	return c.booleanOp(ctx, OpMkdirs, path, newParams(OpMkdirs).str("permission", permission))
}

// Rename moves path to dest.
func (c *Client) Rename(ctx context.Context, path, dest string) (bool, error) {
	path, err := normalizePath(path)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(dest) == "" {
		return false, fmt.Errorf("webhdfs: destination is required")
	}
	return c.booleanOp(ctx, OpRename, path, newParams(OpRename).str("destination", dest))
}

// Delete removes path. Non-empty directories require recursive.
func (c *Client) Delete(ctx context.Context, path string, recursive bool) (bool, error) {
	path, err := normalizePath(path)
	if err != nil {
		return false, err
	}
	return c.booleanOp(ctx, OpDelete, path, newParams(OpDelete).flag("recursive", recursive))
}

// Stat returns the decoded GETFILESTATUS document.
func (c *Client) Stat(ctx context.Context, path string) (map[string]any, error) {
	return c.objectOp(ctx, OpGetFileStatus, path)
}

// List returns the decoded LISTSTATUS document.
func (c *Client) List(ctx context.Context, path string) (map[string]any, error) {
	return c.objectOp(ctx, OpListStatus, path)
}

// Summary returns the decoded GETCONTENTSUMMARY document.
func (c *Client) Summary(ctx context.Context, path string) (map[string]any, error) {
	return c.objectOp(ctx, OpGetContentSummary, path)
}

// Checksum returns the decoded GETFILECHECKSUM document.
func (c *Client) Checksum(ctx context.Context, path string) (map[string]any, error) {
	return c.objectOp(ctx, OpGetFileChecksum, path)
}

// HomeDir returns the caller's home directory, or "" when the NameNode does
// not report one.
func (c *Client) HomeDir(ctx context.Context) (string, error) {
	res, err := c.do(ctx, OpGetHomeDirectory, "", newParams(OpGetHomeDirectory), nil)
	if err != nil {
		return "", err
	}
	return webhdfsapi.String(res.Value, "Path"), nil
}

// Chmod sets the octal permission of path.
func (c *Client) Chmod(ctx context.Context, path string, mode string) (bool, error) {
	if err := validPermission(mode); err != nil {
		return false, err
	}
	return c.statusOp(ctx, OpSetPermission, path, newParams(OpSetPermission).str("permission", mode))
}

// Chown sets the owner of path, and its group when group is non-empty.
func (c *Client) Chown(ctx context.Context, path, owner, group string) (bool, error) {
	if strings.TrimSpace(owner) == "" {
		return false, fmt.Errorf("webhdfs: owner is required")
	}
	return c.statusOp(ctx, OpSetOwner, path, newParams(OpSetOwner).str("owner", owner).optStr("group", group))
}

// SetReplication sets the replication factor of a file.
func (c *Client) SetReplication(ctx context.Context, path string, replication int) (bool, error) {
	if replication <= 0 {
		return false, fmt.Errorf("webhdfs: invalid replication %d", replication)
	}
	return c.statusOp(ctx, OpSetReplication, path, newParams(OpSetReplication).num("replication", int64(replication)))
}

// Touch sets modification and access times. With nil opts (or zero times)
// only op=SETTIMES is sent.
func (c *Client) Touch(ctx context.Context, path string, opts *TouchOptions) (bool, error) {
	return c.statusOp(ctx, OpSetTimes, path, touchParams(opts))
}

// Put is Create with default options.
func (c *Client) Put(ctx context.Context, path string, data []byte) (bool, error) {
	return c.Create(ctx, path, data, nil)
}

// Cat is Open with default options.
func (c *Client) Cat(ctx context.Context, path string) ([]byte, error) {
	return c.Open(ctx, path, nil)
}

// Mv is Rename.
func (c *Client) Mv(ctx context.Context, path, dest string) (bool, error) {
	return c.Rename(ctx, path, dest)
}

// Rm is a non-recursive Delete.
func (c *Client) Rm(ctx context.Context, path string) (bool, error) {
	return c.Delete(ctx, path, false)
}

// Ls is List.
func (c *Client) Ls(ctx context.Context, path string) (map[string]any, error) {
	return c.List(ctx, path)
}

func (c *Client) booleanOp(ctx context.Context, op Op, path string, p *params) (bool, error) {
	res, err := c.do(ctx, op, path, p, nil)
	if err != nil {
		return false, err
	}
	if res.Failed() {
		return false, nil
	}
	return webhdfsapi.Boolean(res.Value), nil
}

func (c *Client) objectOp(ctx context.Context, op Op, path string) (map[string]any, error) {
	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}
	res, err := c.do(ctx, op, path, newParams(op), nil)
	if err != nil {
		return nil, err
	}
	if res.Failed() {
		return nil, &OpError{Op: op, Path: path, StatusCode: res.StatusCode, Remote: res.Remote}
	}
	return res.Value, nil
}

func (c *Client) statusOp(ctx context.Context, op Op, path string, p *params) (bool, error) {
	path, err := normalizePath(path)
	if err != nil {
		return false, err
	}
	res, err := c.do(ctx, op, path, p, nil)
	if err != nil {
		return false, err
	}
	return res.StatusCode == http.StatusOK, nil
}
