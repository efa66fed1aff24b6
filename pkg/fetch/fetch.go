package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/somerandev/rpgmaker-site/pkg/transport"
	"github.com/wlynxg/chardet"
	"github.com/wlynxg/chardet/consts"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DefaultMaxBodyBytes caps response bodies when no explicit limit is configured.
const DefaultMaxBodyBytes = 20 * 1024 * 1024

// Response is a fully read HTTP response.
type Response struct {
	// URL is the final URL after redirects.
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Text returns the body as UTF-8. Bodies that are not valid UTF-8 are assumed to be a
// legacy single-byte western encoding and transcoded.
func (r *Response) Text() string {
	if utf8.Valid(r.Body) {
		return string(r.Body)
	}

	decoder := charmap.Windows1252.NewDecoder()
	if chardet.Detect(r.Body).Encoding == consts.ISO88591 {
		decoder = charmap.ISO8859_1.NewDecoder()
	}
	b, _, err := transform.Bytes(decoder, r.Body)
	if err != nil {
		return string(r.Body)
	}
	return string(b)
}

// Fetcher retrieves documents over HTTP.
type Fetcher interface {
	// Get fetches url and returns the response once its body is fully read.
	// A non-2xx status is returned as an *Error of KindStatus.
	Get(ctx context.Context, url string) (*Response, error)
}

// Observer is notified once per Get with the outcome: "ok" or an ErrorKind.
type Observer func(ctx context.Context, url string, result string)

// Option configures a Fetcher.
type Option func(*fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *fetcher) { f.httpClient = c }
}

// WithMaxBodyBytes limits the size of response bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(f *fetcher) {
		if n > 0 {
			f.maxBodyBytes = n
		}
	}
}

// WithObserver registers an outcome callback.
func WithObserver(o Observer) Option {
	return func(f *fetcher) { f.observer = o }
}

// NewClient builds the HTTP client used against the legacy site and GitHub.
// Every request carries userAgent and requests are spaced by at least interval.
func NewClient(userAgent string, timeout, interval time.Duration) *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 10
	t.MaxConnsPerHost = 10
	t.MaxIdleConnsPerHost = 10

	var rt http.RoundTripper = transport.NewModifyHeadersRoundTripper(t,
		transport.WithUserAgent(userAgent),
		transport.WithAcceptLanguage("en-US,en;q=0.9"),
	)
	if interval > 0 {
		rt = transport.NewThrottleRoundTripper(rt, interval)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: rt,
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) Fetcher {
	f := &fetcher{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type fetcher struct {
	httpClient   *http.Client
	maxBodyBytes int64
	observer     Observer
}

// Get fetches url and returns the response once its body is fully read.
func (f *fetcher) Get(ctx context.Context, url string) (*Response, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "fetch.Fetcher.Get")
	defer span.End()
	span.SetAttributes(attribute.String("http.url", url))

	res, err := f.get(ctx, url)
	result := "ok"
	if err != nil {
		result = string(KindOf(err))
		span.RecordError(err)
	}
	if f.observer != nil {
		f.observer(ctx, url, result)
	}
	return res, err
}

func (f *fetcher) get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: KindIntegrity, URL: url, Err: fmt.Errorf("failed to http.NewRequestWithContext: %w", err)}
	}

	res, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URL: url, Err: fmt.Errorf("failed to http.Client.Do: %w", err)}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64*1024))
		return nil, &Error{Kind: KindStatus, URL: url, StatusCode: res.StatusCode, Status: res.Status}
	}

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, LimitBody(res.Body, f.maxBodyBytes)); err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			return nil, &Error{Kind: KindIntegrity, URL: url, Err: err}
		}
		return nil, &Error{Kind: KindNetwork, URL: url, Err: fmt.Errorf("failed to io.Copy: %w", err)}
	}

	return &Response{
		URL:        res.Request.URL.String(),
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       buf.Bytes(),
	}, nil
}
