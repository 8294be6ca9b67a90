package webhdfs

import (
	"fmt"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"

	"github.com/Ratio1/webhdfs_sdk_go/internal/devseed"
	"github.com/Ratio1/webhdfs_sdk_go/pkg/webhdfs/mock"
)

const (
	envMode     = "WEBHDFS_MODE"
	envHost     = "WEBHDFS_HOST"
	envPort     = "WEBHDFS_PORT"
	envUser     = "WEBHDFS_USER"
	envMockSeed = "WEBHDFS_MOCK_SEED"

	ModeAuto = "auto"
	ModeHTTP = "http"
	ModeMock = "mock"
)

// NewFromEnv initialises a Client from environment variables and returns the
// resolved mode ("http" or "mock").
//
// WEBHDFS_MODE selects the mode. In auto mode (the default) the client talks
// HTTP when WEBHDFS_HOST is set and falls back to an in-process mock
// otherwise. HTTP mode reads WEBHDFS_HOST and WEBHDFS_PORT, defaulting to
// DefaultEndpoint. Mock mode seeds the namespace from WEBHDFS_MOCK_SEED when
// set. WEBHDFS_USER applies to both. Call Close to release a mock server.
func NewFromEnv(opts ...Option) (*Client, string, error) {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv(envMode)))
	host := strings.TrimSpace(os.Getenv(envHost))
	if user := strings.TrimSpace(os.Getenv(envUser)); user != "" {
		opts = append([]Option{WithUser(user)}, opts...)
	}

	switch mode {
	case "", ModeAuto:
		if host != "" {
			return newHTTPClient(opts)
		}
		return newMockClient(opts)
	case ModeHTTP:
		return newHTTPClient(opts)
	case ModeMock:
		return newMockClient(opts)
	default:
		return nil, "", fmt.Errorf("webhdfs: unsupported %s value %q", envMode, mode)
	}
}

func newHTTPClient(opts []Option) (*Client, string, error) {
	ep, err := endpointFromEnv()
	if err != nil {
		return nil, "", err
	}
	client, err := NewWithEndpoint(ep, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("webhdfs: init HTTP client: %w", err)
	}
	return client, ModeHTTP, nil
}

func newMockClient(opts []Option) (*Client, string, error) {
	fs := mock.New()
	if path := strings.TrimSpace(os.Getenv(envMockSeed)); path != "" {
		entries, err := devseed.Load(path)
		if err != nil {
			return nil, "", fmt.Errorf("webhdfs: load mock seed: %w", err)
		}
		if err := fs.Seed(entries); err != nil {
			return nil, "", fmt.Errorf("webhdfs: apply mock seed: %w", err)
		}
	}

	srv := httptest.NewServer(fs)
	client, err := NewFromURL(srv.URL, opts...)
	if err != nil {
		srv.Close()
		return nil, "", fmt.Errorf("webhdfs: init mock client: %w", err)
	}
	client.closer = srv.Close
	return client, ModeMock, nil
}

func endpointFromEnv() (Endpoint, error) {
	ep := DefaultEndpoint
	if host := strings.TrimSpace(os.Getenv(envHost)); host != "" {
		ep.Host = host
	}
	if raw := strings.TrimSpace(os.Getenv(envPort)); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return Endpoint{}, fmt.Errorf("webhdfs: invalid %s value %q", envPort, raw)
		}
		ep.Port = port
	}
	return ep, nil
}
