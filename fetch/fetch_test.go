package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/figura/internal/pdftest"
)

func samplePDF() []byte {
	d := pdftest.NewDoc()
	d.AddPage(pdftest.Page{Content: "0 0 1 rg 100 100 200 150 re f"})
	d.AddPage(pdftest.Page{})
	return d.Bytes()
}

func newFetcher(opts ...Option) *Fetcher {
	return New(append([]Option{WithRetryInterval(time.Millisecond)}, opts...)...)
}

func TestDownload(t *testing.T) {
	body := samplePDF()
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(body)
	}))
	defer srv.Close()

	dir := t.TempDir()
	info, err := newFetcher(WithUserAgent("test-agent")).Download(context.Background(), srv.URL+"/paper.pdf", dir)
	require.NoError(t, err)

	assert.Equal(t, "test-agent", ua)
	assert.Equal(t, 2, info.Pages)
	assert.Equal(t, int64(len(body)), info.Size)
	assert.NotEmpty(t, info.HumanSize)
	assert.Equal(t, dir, filepath.Dir(info.Path))

	got, err := os.ReadFile(info.Path)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestDownload_HTMLLandingPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("<!DOCTYPE html><html><body>Please log in</body></html>"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, err := newFetcher().Download(context.Background(), srv.URL, dir)
	assert.ErrorIs(t, err, ErrNotPDF)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "rejected downloads must not leave files behind")
}

func TestDownload_TooLarge(t *testing.T) {
	body := samplePDF()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	_, err := newFetcher(WithMaxSize(100)).Download(context.Background(), srv.URL, t.TempDir())
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDownload_RetriesServerErrors(t *testing.T) {
	body := samplePDF()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(body)
	}))
	defer srv.Close()

	info, err := newFetcher().Download(context.Background(), srv.URL, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2, info.Pages)
}

func TestDownload_NotFoundIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newFetcher().Download(context.Background(), srv.URL, t.TempDir())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Length", "2048")
	}))
	defer srv.Close()

	info, err := newFetcher().Probe(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(2048), info.Size)
	assert.Equal(t, "2.0 kB", info.HumanSize)
	assert.False(t, info.Unverified)
}

func TestProbe_UnknownTypeUnverified(t *testing.T) {
	for _, ct := range []string{"application/octet-stream", ""} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ct != "" {
				w.Header().Set("Content-Type", ct)
			}
			w.Header().Set("Content-Length", "2048")
		}))

		info, err := newFetcher().Probe(context.Background(), srv.URL)
		srv.Close()
		require.NoError(t, err, ct)
		assert.True(t, info.Unverified, ct)
	}
}

func TestProbe_FallsBackToRangedGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		assert.Equal(t, "bytes=0-0", r.Header.Get("Range"))
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Range", "bytes 0-0/"+strconv.Itoa(5_000_000))
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte("%"))
	}))
	defer srv.Close()

	info, err := newFetcher().Probe(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000), info.Size)
	assert.Equal(t, "5.0 MB", info.HumanSize)
}

func TestProbe_RejectsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}))
	defer srv.Close()

	info, err := newFetcher().Probe(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrNotPDF)
	require.NotNil(t, info)
	assert.Equal(t, "text/html; charset=utf-8", info.ContentType)
}

func TestDownload_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newFetcher().Download(ctx, srv.URL, t.TempDir())
	assert.Error(t, err)
}
