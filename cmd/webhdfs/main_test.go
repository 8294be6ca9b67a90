package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Ratio1/webhdfs_sdk_go/internal/devseed"
	"github.com/Ratio1/webhdfs_sdk_go/pkg/webhdfs"
	"github.com/Ratio1/webhdfs_sdk_go/pkg/webhdfs/mock"
)

type harness struct {
	t       *testing.T
	mock    *mock.Mock
	profile string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	m := mock.New()
	srv := httptest.NewServer(m)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	t.Setenv("WEBHDFS_HOST", "")
	t.Setenv("WEBHDFS_PORT", "")
	t.Setenv("WEBHDFS_USER", "")
	profile := filepath.Join(t.TempDir(), "profile.yaml")
	doc := "host: " + u.Hostname() + "\nport: " + u.Port() + "\nuser: erin\nconnect_timeout: 2s\n"
	require.NoError(t, os.WriteFile(profile, []byte(doc), 0o600))
	return &harness{t: t, mock: m, profile: profile}
}

func (h *harness) run(stdin string, args ...string) (int, string, string) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	c := cli{stdin: strings.NewReader(stdin), stdout: &stdout, stderr: &stderr}
	code := c.run(context.Background(), append([]string{"-profile", h.profile}, args...))
	return code, stdout.String(), stderr.String()
}

func TestPutCatRoundTrip(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run("sample1\tsample2\n", "put", "-", "/tmp/webhdfs_test")
	require.Equal(t, 0, code, stderr)

	code, stdout, _ := h.run("", "cat", "/tmp/webhdfs_test")
	require.Equal(t, 0, code)
	require.Equal(t, "sample1\tsample2\n", stdout)

	code, _, _ = h.run("more\n", "append", "-", "/tmp/webhdfs_test")
	require.Equal(t, 0, code)
	code, stdout, _ = h.run("", "cat", "-offset", "8", "/tmp/webhdfs_test")
	require.Equal(t, 0, code)
	require.Equal(t, "sample2\nmore\n", stdout)

	code, _, stderr = h.run("again", "put", "-", "/tmp/webhdfs_test")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "request failed")

	code, _, stderr = h.run("again", "put", "-overwrite", "-", "/tmp/webhdfs_test")
	require.Equal(t, 0, code, stderr)
}

func TestPutFromLocalFile(t *testing.T) {
	h := newHarness(t)
	local := filepath.Join(t.TempDir(), "in.bin")
	require.NoError(t, os.WriteFile(local, []byte{0, 1, 2}, 0o600))

	code, _, stderr := h.run("", "put", "-permission", "600", local, "/data/in.bin")
	require.Equal(t, 0, code, stderr)
	data, ok := h.mock.ReadFile("/data/in.bin")
	require.True(t, ok)
	require.Equal(t, []byte{0, 1, 2}, data)
}

func TestNamespaceCommands(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mock.Seed([]devseed.Entry{{Path: "/d/f.txt", Content: "hello"}}))

	code, _, _ := h.run("", "mkdir", "/d/sub")
	require.Equal(t, 0, code)

	code, stdout, _ := h.run("", "ls", "/d")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "NAME")
	require.Contains(t, stdout, "f.txt")
	require.Contains(t, stdout, "sub")
	require.Contains(t, stdout, "drwxr-xr-x")

	code, stdout, _ = h.run("", "ls", "-json", "/d")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, `"FileStatuses"`)

	code, stdout, _ = h.run("", "stat", "/d/f.txt")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "FILE")
	require.Contains(t, stdout, "5 B")

	code, stdout, _ = h.run("", "summary", "/d")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "none")

	code, stdout, _ = h.run("", "checksum", "/d/f.txt")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "MD5")

	code, _, _ = h.run("", "mv", "/d/f.txt", "/d/g.txt")
	require.Equal(t, 0, code)
	require.True(t, h.mock.Exists("/d/g.txt"))

	code, _, _ = h.run("", "rm", "/d")
	require.Equal(t, 1, code)
	code, _, _ = h.run("", "rm", "-r", "/d")
	require.Equal(t, 0, code)
	require.False(t, h.mock.Exists("/d"))

	code, _, stderr := h.run("", "stat", "/d")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "FileNotFoundException")
}

func TestSetterCommands(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mock.Seed([]devseed.Entry{{Path: "/f", Content: "x"}}))

	for _, args := range [][]string{
		{"chmod", "640", "/f"},
		{"chown", "hdfs:staff", "/f"},
		{"setrep", "2", "/f"},
		{"touch", "-m", "2024-01-02T03:04:05Z", "/f"},
	} {
		code, _, stderr := h.run("", args...)
		require.Equal(t, 0, code, "%v: %s", args, stderr)
	}

	client, err := webhdfs.NewFromURL("http://" + endpointOf(t, h))
	require.NoError(t, err)
	st, err := client.FileStatus(context.Background(), "/f")
	require.NoError(t, err)
	require.Equal(t, "640", st.Permission)
	require.Equal(t, "hdfs", st.Owner)
	require.Equal(t, "staff", st.Group)
	require.Equal(t, 2, st.Replication)
	require.True(t, st.ModTime().Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))

	code, _, _ := h.run("", "setrep", "many", "/f")
	require.Equal(t, 1, code)
	code, _, _ = h.run("", "touch", "-m", "yesterday", "/f")
	require.Equal(t, 1, code)
}

func TestHomeUsesProfileUser(t *testing.T) {
	h := newHarness(t)
	code, stdout, _ := h.run("", "home")
	require.Equal(t, 0, code)
	require.Equal(t, "/user/erin\n", stdout)

	code, stdout, _ = h.run("", "-user", "frank", "home")
	require.Equal(t, 0, code)
	require.Equal(t, "/user/frank\n", stdout)

	t.Setenv("WEBHDFS_USER", "gina")
	code, stdout, _ = h.run("", "home")
	require.Equal(t, 0, code)
	require.Equal(t, "/user/gina\n", stdout)
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run("")
	require.Equal(t, 2, code)
	require.Contains(t, stderr, "commands:")

	code, _, stderr = h.run("", "frobnicate")
	require.Equal(t, 2, code)
	require.Contains(t, stderr, "unknown command")

	code, _, stderr = h.run("", "mv", "/only-one")
	require.Equal(t, 2, code)
	require.Contains(t, stderr, "usage: webhdfs mv <src> <dst>")

	var stderrBuf bytes.Buffer
	c := cli{stdin: strings.NewReader(""), stdout: &bytes.Buffer{}, stderr: &stderrBuf}
	code = c.run(context.Background(), []string{"-profile", filepath.Join(t.TempDir(), "missing.yaml"), "home"})
	require.Equal(t, 1, code)
	require.Contains(t, stderrBuf.String(), "read profile")
}

func TestModeString(t *testing.T) {
	cases := map[string]webhdfs.FileStatus{
		"drwxr-xr-x": {Type: "DIRECTORY", Permission: "755"},
		"-rw-r-----": {Type: "FILE", Permission: "640"},
		"drwxrwxrwt": {Type: "DIRECTORY", Permission: "1777"},
		"-bogus":     {Type: "FILE", Permission: "bogus"},
	}
	for want, st := range cases {
		require.Equal(t, want, modeString(st))
	}
}

func endpointOf(t *testing.T, h *harness) string {
	t.Helper()
	prof, err := loadProfile(h.profile)
	require.NoError(t, err)
	return prof.endpoint().String()
}
