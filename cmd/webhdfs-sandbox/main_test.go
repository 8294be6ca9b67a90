package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Ratio1/webhdfs_sdk_go/pkg/webhdfs/mock"
)

func TestParseFailConfig(t *testing.T) {
	cfg, err := parseFailConfig("rate=0.5, code=503, op=create|Open")
	if err != nil {
		t.Fatalf("parseFailConfig: %v", err)
	}
	if cfg.rate != 0.5 || cfg.code != 503 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !cfg.applies("CREATE") || !cfg.applies("OPEN") || cfg.applies("DELETE") {
		t.Fatalf("unexpected op filter %+v", cfg.ops)
	}

	empty, err := parseFailConfig("")
	if err != nil || empty.applies("CREATE") {
		t.Fatalf("empty config should never fail requests: %+v err=%v", empty, err)
	}

	for _, bad := range []string{"rate", "rate=abc", "rate=2", "code=x", "colour=red"} {
		if _, err := parseFailConfig(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestMiddlewareInjectsRemoteException(t *testing.T) {
	cfg := failConfig{rate: 1, code: http.StatusServiceUnavailable, ops: map[string]bool{"MKDIRS": true}}
	srv := httptest.NewServer(withMiddleware(0, cfg, mock.New()))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/webhdfs/v1/a?op=MKDIRS", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("MKDIRS: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected injected 503, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		t.Fatalf("expected JSON error body")
	}

	resp, err = http.Get(srv.URL + "/webhdfs/v1/?op=GETHOMEDIRECTORY")
	if err != nil {
		t.Fatalf("GETHOMEDIRECTORY: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected unfiltered op to pass, got %d", resp.StatusCode)
	}
}

func TestMiddlewareLatency(t *testing.T) {
	srv := httptest.NewServer(withMiddleware(20*time.Millisecond, failConfig{}, mock.New()))
	defer srv.Close()

	start := time.Now()
	resp, err := http.Get(srv.URL + "/webhdfs/v1/?op=GETHOMEDIRECTORY")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if time.Since(start) < 20*time.Millisecond {
		t.Fatalf("expected injected latency")
	}
}
