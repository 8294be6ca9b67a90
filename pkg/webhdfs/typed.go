package webhdfs

import (
	"context"
	"fmt"

	"github.com/Ratio1/webhdfs_sdk_go/internal/webhdfsapi"
)

// FileStatus returns the typed status of path.
func (c *Client) FileStatus(ctx context.Context, path string) (*FileStatus, error) {
	obj, err := c.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	var st FileStatus
	if err := decodeKey(obj, "FileStatus", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// ListStatus returns the typed entries of a directory. Each entry's
// PathSuffix is relative to path.
func (c *Client) ListStatus(ctx context.Context, path string) ([]FileStatus, error) {
	obj, err := c.List(ctx, path)
	if err != nil {
		return nil, err
	}
	var listing struct {
		FileStatus []FileStatus `json:"FileStatus"`
	}
	if err := decodeKey(obj, "FileStatuses", &listing); err != nil {
		return nil, err
	}
	return listing.FileStatus, nil
}

// ContentSummary returns the typed content summary of path.
func (c *Client) ContentSummary(ctx context.Context, path string) (*ContentSummary, error) {
	obj, err := c.Summary(ctx, path)
	if err != nil {
		return nil, err
	}
	var cs ContentSummary
	if err := decodeKey(obj, "ContentSummary", &cs); err != nil {
		return nil, err
	}
	return &cs, nil
}

// FileChecksum returns the typed checksum of a file.
func (c *Client) FileChecksum(ctx context.Context, path string) (*FileChecksum, error) {
	obj, err := c.Checksum(ctx, path)
	if err != nil {
		return nil, err
	}
	var sum FileChecksum
	if err := decodeKey(obj, "FileChecksum", &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

func decodeKey(obj map[string]any, key string, out any) error {
	found, err := webhdfsapi.DecodeField(obj, key, out)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if !found {
		return fmt.Errorf("%w: missing %s", ErrDecode, key)
	}
	return nil
}
