// Package download saves the plugin files a corpus links to.
package download

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	bufra "github.com/avvmoto/buf-readerat"
	"github.com/snabb/httpreaderat"
	"github.com/somerandev/rpgmaker-site/pkg/corpus"
	"github.com/somerandev/rpgmaker-site/pkg/fetch"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const zipBufferSize = 1024 * 1024

// Target is one file to download.
type Target struct {
	Name     string
	URL      string
	Filename string
}

// Targets lists the downloadable entries of a corpus. Entries missing a URL or a file name are left out,
// plugins without scraped data are returned separately.
func Targets(entries []corpus.Entry) (targets []Target, unscraped []string) {
	for _, entry := range entries {
		var t Target
		switch {
		case entry.Plugin != nil:
			if entry.Plugin.ScrapedData == nil {
				unscraped = append(unscraped, entry.Plugin.Name)
				continue
			}
			t = Target{entry.Plugin.Name, entry.Plugin.ScrapedData.DownloadURL, entry.Plugin.ScrapedData.Filename}
		case entry.DirectDownload != nil:
			t = Target{entry.DirectDownload.Name, entry.DirectDownload.DownloadURL, entry.DirectDownload.Filename}
		default:
			continue
		}
		if t.URL == "" || t.Filename == "" {
			continue
		}
		targets = append(targets, t)
	}
	return targets, unscraped
}

// Report summarizes a download run.
type Report struct {
	Downloaded int
	Failed     int
	Skipped    int
}

// Downloader saves plugin files to a folder.
type Downloader interface {
	// Run downloads every target of entries into dir. Failed downloads are logged and skipped, never retried.
	Run(ctx context.Context, entries []corpus.Entry, dir string) (*Report, error)
}

// Option configures a Downloader.
type Option func(*downloader)

// WithHTTPClient sets the client used for range reads of zip archives.
func WithHTTPClient(c *http.Client) Option {
	return func(d *downloader) { d.httpClient = c }
}

// WithMaxBodyBytes limits the size of a single extracted file.
func WithMaxBodyBytes(n int64) Option {
	return func(d *downloader) {
		if n > 0 {
			d.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *downloader) { d.log = l }
}

// NewDownloader creates a Downloader fetching files with f.
func NewDownloader(f fetch.Fetcher, opts ...Option) Downloader {
	d := &downloader{
		fetcher:      f,
		httpClient:   http.DefaultClient,
		maxBodyBytes: fetch.DefaultMaxBodyBytes,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type downloader struct {
	fetcher      fetch.Fetcher
	httpClient   *http.Client
	maxBodyBytes int64
	log          *slog.Logger
}

// Run downloads every target of entries into dir.
func (d *downloader) Run(ctx context.Context, entries []corpus.Entry, dir string) (*Report, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "download.Downloader.Run")
	defer span.End()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to os.MkdirAll: %w", err)
	}

	targets, unscraped := Targets(entries)
	report := &Report{Skipped: len(unscraped)}
	for _, name := range unscraped {
		d.log.WarnContext(ctx, "scraped data does not exist, skipping", "plugin", name)
	}

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		var written []string
		var err error
		if isZip(t.URL) {
			written, err = d.extractZip(ctx, t.URL, dir)
		} else {
			written, err = d.download(ctx, t, dir)
		}
		if err != nil {
			if code, ok := fetch.IsStatus(err); ok {
				d.log.ErrorContext(ctx, "failed to download", "url", t.URL, "code", code, "status", http.StatusText(code))
			} else {
				d.log.ErrorContext(ctx, "failed to download", "url", t.URL, "err", err)
			}
			report.Failed++
			continue
		}
		for _, p := range written {
			d.log.InfoContext(ctx, "downloaded", "path", p)
		}
		report.Downloaded++
	}

	span.SetAttributes(attribute.Int("download.downloaded", report.Downloaded), attribute.Int("download.failed", report.Failed))
	return report, nil
}

func isZip(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(path.Ext(u.Path), ".zip")
}

func (d *downloader) download(ctx context.Context, t Target, dir string) ([]string, error) {
	res, err := d.fetcher.Get(ctx, t.URL)
	if err != nil {
		return nil, err
	}
	dest := filepath.Join(dir, filepath.Base(t.Filename))
	if err := os.WriteFile(dest, res.Body, 0o644); err != nil {
		return nil, fmt.Errorf("failed to os.WriteFile: %w", err)
	}
	return []string{dest}, nil
}

// extractZip reads the archive at rawURL through range requests and writes its .js members to dir.
func (d *downloader) extractZip(ctx context.Context, rawURL, dir string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to http.NewRequestWithContext: %w", err)
	}

	ra, err := httpreaderat.New(d.httpClient, req, nil)
	if err != nil {
		return nil, &fetch.Error{Kind: fetch.KindNetwork, URL: rawURL, Err: fmt.Errorf("failed to httpreaderat.New: %w", err)}
	}

	zr, err := zip.NewReader(bufra.NewBufReaderAt(ra, zipBufferSize), ra.Size())
	if err != nil {
		return nil, &fetch.Error{Kind: fetch.KindParse, URL: rawURL, Err: fmt.Errorf("failed to zip.NewReader: %w", err)}
	}

	var written []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(path.Ext(f.Name), ".js") {
			continue
		}
		dest := filepath.Join(dir, path.Base(f.Name))
		if err := d.writeMember(f, dest); err != nil {
			return written, &fetch.Error{Kind: fetch.KindIntegrity, URL: rawURL, Err: err}
		}
		written = append(written, dest)
	}
	if len(written) == 0 {
		return nil, &fetch.Error{Kind: fetch.KindIntegrity, URL: rawURL, Err: fmt.Errorf("archive holds no .js files")}
	}
	return written, nil
}

func (d *downloader) writeMember(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to zip.File.Open: %w", err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to os.Create: %w", err)
	}
	if _, err := io.Copy(out, fetch.LimitBody(rc, d.maxBodyBytes)); err != nil {
		out.Close()
		return fmt.Errorf("failed to io.Copy %s: %w", f.Name, err)
	}
	return out.Close()
}
