package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/tsawler/figura/format"
	"github.com/tsawler/figura/reader"
)

var (
	// ErrNotPDF is returned when the server answers with something other
	// than a PDF, usually an HTML landing or login page.
	ErrNotPDF = errors.New("fetch: response is not a PDF")

	// ErrTooLarge is returned when the body exceeds the size limit.
	ErrTooLarge = errors.New("fetch: document exceeds size limit")
)

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: %s: unexpected status %d %s", e.URL, e.Status, http.StatusText(e.Status))
}

// Info describes a remote or downloaded document.
type Info struct {
	URL         string
	ContentType string
	// Size is the byte count, or -1 when the server did not say.
	Size      int64
	HumanSize string
	// Unverified is set by Probe when the content type names no known
	// format, so only the body can tell whether it is a PDF.
	Unverified bool
	// Path and Pages are set by Download.
	Path  string
	Pages int
}

// Fetcher downloads PDFs over HTTP.
type Fetcher struct {
	client     *http.Client
	ua         string
	maxSize    int64
	maxRetries uint64
	interval   time.Duration
	logger     zerolog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets a custom HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.ua = ua }
}

// WithLogger sets a custom logger.
func WithLogger(l zerolog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithMaxSize caps the number of bytes Download will accept.
func WithMaxSize(n int64) Option {
	return func(f *Fetcher) { f.maxSize = n }
}

// WithMaxRetries sets how many times a failed download is retried.
func WithMaxRetries(n uint64) Option {
	return func(f *Fetcher) { f.maxRetries = n }
}

// WithRetryInterval sets the first wait between retries.
func WithRetryInterval(d time.Duration) Option {
	return func(f *Fetcher) { f.interval = d }
}

// New creates a Fetcher with sensible defaults.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:     &http.Client{Timeout: 2 * time.Minute},
		ua:         "figura/1.0",
		maxSize:    200 << 20,
		maxRetries: 2,
		interval:   500 * time.Millisecond,
		logger:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Probe asks the server about url without downloading the body. Servers
// that reject HEAD get a one-byte ranged GET instead. A content type of
// another known format fails with ErrNotPDF; one that names nothing known
// is accepted with Info.Unverified set.
func (f *Fetcher) Probe(ctx context.Context, url string) (*Info, error) {
	resp, err := f.do(ctx, http.MethodHead, url, nil)
	if err == nil && resp.StatusCode == http.StatusMethodNotAllowed {
		resp.Body.Close()
		err = &StatusError{URL: url, Status: resp.StatusCode}
	}
	if err != nil {
		resp, err = f.do(ctx, http.MethodGet, url, map[string]string{"Range": "bytes=0-0"})
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{URL: url, Status: resp.StatusCode}
	}

	info := &Info{
		URL:         url,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}
	if resp.StatusCode == http.StatusPartialContent {
		info.Size = sizeFromContentRange(resp.Header.Get("Content-Range"))
	}
	info.HumanSize = humanSize(info.Size)

	switch format.FromContentType(info.ContentType) {
	case format.PDF:
	case format.Unknown:
		info.Unverified = true
	default:
		return info, fmt.Errorf("%w: content type %q", ErrNotPDF, info.ContentType)
	}

	f.logger.Debug().
		Str("url", url).
		Str("content_type", info.ContentType).
		Str("size", info.HumanSize).
		Bool("unverified", info.Unverified).
		Msg("probed")
	return info, nil
}

// Download fetches url into a new file in dir and checks that it opens as
// a PDF. The caller owns the returned file. Network failures and 5xx
// responses are retried with exponential backoff.
func (f *Fetcher) Download(ctx context.Context, url, dir string) (*Info, error) {
	var info *Info
	op := func() error {
		var err error
		info, err = f.download(ctx, url, dir)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !transient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = f.interval
	b := backoff.WithContext(backoff.WithMaxRetries(eb, f.maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		f.logger.Warn().Err(err).Str("url", url).Dur("retry_in", wait).Msg("download failed, retrying")
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}
	return info, nil
}

func (f *Fetcher) download(ctx context.Context, url, dir string) (*Info, error) {
	resp, err := f.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, Status: resp.StatusCode}
	}
	if f.maxSize > 0 && resp.ContentLength > f.maxSize {
		return nil, fmt.Errorf("%w: %s > %s", ErrTooLarge, humanSize(resp.ContentLength), humanSize(f.maxSize))
	}

	tmp, err := os.CreateTemp(dir, "figura-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("fetch: create file: %w", err)
	}
	path := tmp.Name()
	keep := false
	defer func() {
		if !keep {
			os.Remove(path)
		}
	}()

	body := io.Reader(resp.Body)
	if f.maxSize > 0 {
		body = io.LimitReader(resp.Body, f.maxSize+1)
	}
	n, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}
	if f.maxSize > 0 && n > f.maxSize {
		return nil, fmt.Errorf("%w: more than %s", ErrTooLarge, humanSize(f.maxSize))
	}

	if err := checkMagic(path); err != nil {
		return nil, err
	}

	doc, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	pages := doc.PageCount()
	doc.Close()

	keep = true
	info := &Info{
		URL:         url,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        n,
		HumanSize:   humanSize(n),
		Path:        path,
		Pages:       pages,
	}
	f.logger.Info().
		Str("url", url).
		Str("path", path).
		Str("size", info.HumanSize).
		Int("pages", pages).
		Msg("downloaded")
	return info, nil
}

func (f *Fetcher) do(ctx context.Context, method, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: new request: %w", err)
	}
	req.Header.Set("User-Agent", f.ua)
	req.Header.Set("Accept", "application/pdf,*/*;q=0.5")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %s %s: %w", method, url, err)
	}
	return resp, nil
}

func checkMagic(path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer fh.Close()

	head := make([]byte, 1024)
	n, err := io.ReadFull(fh, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("fetch: %w", err)
	}
	if got := format.DetectFromMagic(head[:n]); got != format.PDF {
		return fmt.Errorf("%w: body looks like %s", ErrNotPDF, got)
	}
	return nil
}

func transient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status >= 500 || se.Status == http.StatusTooManyRequests || se.Status == http.StatusRequestTimeout
	}
	return !errors.Is(err, ErrNotPDF) && !errors.Is(err, ErrTooLarge) && !errors.Is(err, os.ErrNotExist) &&
		!errors.Is(err, os.ErrPermission)
}

// sizeFromContentRange reads the total from "bytes 0-0/12345".
func sizeFromContentRange(v string) int64 {
	var start, end, total int64
	if _, err := fmt.Sscanf(v, "bytes %d-%d/%d", &start, &end, &total); err != nil {
		return -1
	}
	return total
}

func humanSize(n int64) string {
	if n < 0 {
		return "unknown"
	}
	return humanize.Bytes(uint64(n))
}
