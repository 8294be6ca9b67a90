package webhdfs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Ratio1/webhdfs_sdk_go/pkg/webhdfs"
)

func TestNewFromEnvHTTPMode(t *testing.T) {
	t.Setenv("WEBHDFS_MODE", "http")
	t.Setenv("WEBHDFS_HOST", "namenode.local")
	t.Setenv("WEBHDFS_PORT", "9870")
	t.Setenv("WEBHDFS_USER", "")

	client, mode, err := webhdfs.NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	defer client.Close()
	if mode != webhdfs.ModeHTTP {
		t.Fatalf("expected http mode, got %q", mode)
	}
	if got := client.Endpoint(); got != (webhdfs.Endpoint{Host: "namenode.local", Port: 9870}) {
		t.Fatalf("unexpected endpoint %v", got)
	}
}

func TestNewFromEnvHTTPDefaults(t *testing.T) {
	t.Setenv("WEBHDFS_MODE", "http")
	t.Setenv("WEBHDFS_HOST", "")
	t.Setenv("WEBHDFS_PORT", "")

	client, _, err := webhdfs.NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if client.Endpoint() != webhdfs.DefaultEndpoint {
		t.Fatalf("expected default endpoint, got %v", client.Endpoint())
	}
}

func TestNewFromEnvInvalidValues(t *testing.T) {
	t.Setenv("WEBHDFS_MODE", "http")
	t.Setenv("WEBHDFS_PORT", "not-a-port")
	if _, _, err := webhdfs.NewFromEnv(); err == nil {
		t.Fatalf("expected error for invalid port")
	}

	t.Setenv("WEBHDFS_MODE", "bogus")
	if _, _, err := webhdfs.NewFromEnv(); err == nil {
		t.Fatalf("expected error for unsupported mode")
	}
}

func TestNewFromEnvMockAutoFallback(t *testing.T) {
	t.Setenv("WEBHDFS_MODE", "")
	t.Setenv("WEBHDFS_HOST", "")
	t.Setenv("WEBHDFS_USER", "dana")

	client, mode, err := webhdfs.NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	defer client.Close()
	if mode != webhdfs.ModeMock {
		t.Fatalf("expected mock mode, got %q", mode)
	}

	ctx := context.Background()
	if ok, err := client.Put(ctx, "/k.txt", []byte("v")); err != nil || !ok {
		t.Fatalf("mock Put: ok=%v err=%v", ok, err)
	}
	home, err := client.HomeDir(ctx)
	if err != nil || home != "/user/dana" {
		t.Fatalf("unexpected home %q err=%v", home, err)
	}
}

func TestNewFromEnvSeed(t *testing.T) {
	seed := "- path: /seed/hello.txt\n  content: seed-data\n"
	file := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(file, []byte(seed), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	t.Setenv("WEBHDFS_MODE", "mock")
	t.Setenv("WEBHDFS_MOCK_SEED", file)

	client, _, err := webhdfs.NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	defer client.Close()

	data, err := client.Cat(context.Background(), "/seed/hello.txt")
	if err != nil {
		t.Fatalf("Cat: %v", err)
	}
	if string(data) != "seed-data" {
		t.Fatalf("unexpected data %q", data)
	}
}

func TestNewFromEnvMissingSeed(t *testing.T) {
	t.Setenv("WEBHDFS_MODE", "mock")
	t.Setenv("WEBHDFS_MOCK_SEED", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, _, err := webhdfs.NewFromEnv(); err == nil {
		t.Fatalf("expected error for missing seed file")
	}
}
