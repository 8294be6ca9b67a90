package webhdfs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ratio1/webhdfs_sdk_go/internal/httpx"
)

func newTestDispatcher(t *testing.T, h http.Handler) (*Dispatcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cl, err := httpx.NewClient(srv.URL)
	require.NoError(t, err)
	return NewDispatcher(cl), srv
}

func target(t *testing.T, srv *httptest.Server, rel string) *url.URL {
	t.Helper()
	u, err := url.Parse(srv.URL + rel)
	require.NoError(t, err)
	return u
}

func TestWriteWithRedirectSecondHop(t *testing.T) {
	var gotMethod, gotType string
	var gotLength int64
	var gotBody []byte
	mux := http.NewServeMux()
	mux.HandleFunc("/webhdfs/v1/f", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "http://"+r.Host+"/dn/f")
		w.WriteHeader(http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/dn/f", func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		gotLength = r.ContentLength
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	})
	d, srv := newTestDispatcher(t, mux)

	res, err := d.Dispatch(context.Background(), WriteWithRedirect, http.MethodPut, target(t, srv, "/webhdfs/v1/f?op=CREATE"), []byte("abc"))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, "application/octet-stream", gotType)
	require.Equal(t, int64(3), gotLength)
	require.Equal(t, "abc", string(gotBody))
}

func TestWriteWithRedirectWithoutRedirect(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusCreated, http.StatusForbidden, http.StatusFound} {
		var hits atomic.Int32
		d, srv := newTestDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.Header().Set("Location", "http://"+r.Host+"/elsewhere")
			w.WriteHeader(status)
		}))

		res, err := d.Dispatch(context.Background(), WriteWithRedirect, http.MethodPut, target(t, srv, "/webhdfs/v1/f?op=CREATE"), []byte("x"))
		require.NoError(t, err)
		require.Equal(t, FailureStatus, res.StatusCode, "status %d", status)
		require.Equal(t, int32(1), hits.Load(), "status %d must not trigger a second hop", status)
	}
}

func TestWriteWithRedirectBadLocation(t *testing.T) {
	cases := map[string]string{
		"missing":  "",
		"relative": "/datanode/x",
		"scheme":   "ftp://dn/x",
		"no host":  "http:///x",
	}
	for name, loc := range cases {
		var hits atomic.Int32
		d, srv := newTestDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			if loc != "" {
				w.Header().Set("Location", loc)
			}
			w.WriteHeader(http.StatusTemporaryRedirect)
		}))

		_, err := d.Dispatch(context.Background(), WriteWithRedirect, http.MethodPost, target(t, srv, "/webhdfs/v1/f?op=APPEND"), []byte("x"))
		require.ErrorIs(t, err, ErrBadRedirect, name)
		require.Equal(t, int32(1), hits.Load(), name)
	}
}

func TestStatusOnlyDoesNotFollow(t *testing.T) {
	var hits atomic.Int32
	d, srv := newTestDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Location", "/other")
		w.WriteHeader(http.StatusTemporaryRedirect)
	}))

	res, err := d.Dispatch(context.Background(), StatusOnly, http.MethodPut, target(t, srv, "/webhdfs/v1/f?op=SETTIMES"), nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusTemporaryRedirect, res.StatusCode)
	require.Equal(t, int32(1), hits.Load())
}

func TestFetchBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhdfs/v1/f", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dn/f", http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/dn/f", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("contents"))
	})
	mux.HandleFunc("/webhdfs/v1/missing", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"RemoteException":{"exception":"FileNotFoundException","message":"gone"}}`))
	})
	d, srv := newTestDispatcher(t, mux)

	res, err := d.Dispatch(context.Background(), FetchBody, http.MethodGet, target(t, srv, "/webhdfs/v1/f?op=OPEN"), nil)
	require.NoError(t, err)
	require.True(t, res.Found())
	require.Equal(t, "contents", string(res.Body))

	res, err = d.Dispatch(context.Background(), FetchBody, http.MethodGet, target(t, srv, "/webhdfs/v1/missing?op=OPEN"), nil)
	require.NoError(t, err)
	require.False(t, res.Found())
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	require.NotNil(t, res.Remote)
	require.Equal(t, "gone", res.Remote.Message)
}

func TestDecodeJSON(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"boolean":true}`))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/garbage", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})
	mux.HandleFunc("/array", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[1,2]`))
	})
	mux.HandleFunc("/fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"boolean":true}`))
	})
	d, srv := newTestDispatcher(t, mux)
	ctx := context.Background()

	res, err := d.Dispatch(ctx, DecodeJSON, http.MethodGet, target(t, srv, "/ok"), nil)
	require.NoError(t, err)
	require.False(t, res.Failed())
	require.Equal(t, true, res.Value["boolean"])

	res, err = d.Dispatch(ctx, DecodeJSON, http.MethodGet, target(t, srv, "/empty"), nil)
	require.NoError(t, err)
	require.False(t, res.Failed(), "empty object is not the failure sentinel")
	require.Empty(t, res.Value)

	_, err = d.Dispatch(ctx, DecodeJSON, http.MethodGet, target(t, srv, "/garbage"), nil)
	require.ErrorIs(t, err, ErrDecode)
	_, err = d.Dispatch(ctx, DecodeJSON, http.MethodGet, target(t, srv, "/array"), nil)
	require.ErrorIs(t, err, ErrDecode)

	res, err = d.Dispatch(ctx, DecodeJSON, http.MethodGet, target(t, srv, "/fail"), nil)
	require.NoError(t, err)
	require.True(t, res.Failed())
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
}

func TestDispatchRejectsUnknownStrategy(t *testing.T) {
	d, srv := newTestDispatcher(t, http.NotFoundHandler())
	_, err := d.Dispatch(context.Background(), Strategy(42), http.MethodGet, target(t, srv, "/"), nil)
	require.Error(t, err)
	require.Equal(t, "Strategy(42)", Strategy(42).String())
}

func TestOpTable(t *testing.T) {
	cases := []struct {
		op       Op
		method   string
		strategy Strategy
	}{
		{OpCreate, http.MethodPut, WriteWithRedirect},
		{OpAppend, http.MethodPost, WriteWithRedirect},
		{OpOpen, http.MethodGet, FetchBody},
		{OpMkdirs, http.MethodPut, DecodeJSON},
		{OpRename, http.MethodPut, DecodeJSON},
		{OpDelete, http.MethodDelete, DecodeJSON},
		{OpGetFileStatus, http.MethodGet, DecodeJSON},
		{OpListStatus, http.MethodGet, DecodeJSON},
		{OpGetContentSummary, http.MethodGet, DecodeJSON},
		{OpGetFileChecksum, http.MethodGet, DecodeJSON},
		{OpGetHomeDirectory, http.MethodGet, DecodeJSON},
		{OpSetPermission, http.MethodPut, StatusOnly},
		{OpSetOwner, http.MethodPut, StatusOnly},
		{OpSetReplication, http.MethodPut, StatusOnly},
		{OpSetTimes, http.MethodPut, StatusOnly},
	}
	require.Len(t, opTable, len(cases))
	for _, tc := range cases {
		require.Equal(t, tc.method, tc.op.Method(), string(tc.op))
		require.Equal(t, tc.strategy, tc.op.Strategy(), string(tc.op))
	}
}
