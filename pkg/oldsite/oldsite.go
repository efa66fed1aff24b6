// Package oldsite scrapes plugin pages of the legacy sumrndm.site WordPress site.
package oldsite

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/somerandev/rpgmaker-site/pkg/corpus"
	"github.com/somerandev/rpgmaker-site/pkg/fetch"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

// DefaultSiteURL is the root of the legacy site.
const DefaultSiteURL = "http://sumrndm.site/"

// DefaultArchiveBaseURL is where the archived copy of the legacy site is served from.
const DefaultArchiveBaseURL = "https://raw.githubusercontent.com/SomeRanDev/sumrndm.site-archive/refs/heads/main/sumrndm.site"

// DefaultDenylist holds the basenames of the banners and buttons shared by every legacy page.
var DefaultDenylist = []string{
	"PatreonButton.png",
	"TwitterButton.png",
	"KoFiButton.png",
	"YouTubeButton.png",
	"Hudell.png",
	"Triacontane.png",
	"Galv.png",
	"yanflymoe.png",
	"banner_fungamemake.png",
	"SRDBanner.png",
	"SRDSiteBannerSmall-2.png",
}

// Scraper extracts data from legacy plugin pages.
type Scraper interface {
	// Scrape fetches a plugin page and extracts its metadata.
	Scrape(ctx context.Context, pageURL string) (*corpus.ScrapeResult, error)
	// Screenshots fetches a plugin page and returns its screenshots as archive URLs.
	Screenshots(ctx context.Context, pageURL string) ([]string, error)
}

// Option configures a Scraper.
type Option func(*scraper)

// WithArchiveRewriter replaces the screenshot filter.
func WithArchiveRewriter(r ArchiveRewriter) Option {
	return func(s *scraper) { s.rewriter = r }
}

// NewScraper creates a Scraper fetching pages with f.
func NewScraper(f fetch.Fetcher, opts ...Option) Scraper {
	s := &scraper{
		fetcher:  f,
		rewriter: DefaultArchiveRewriter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type scraper struct {
	fetcher  fetch.Fetcher
	rewriter ArchiveRewriter
}

// Scrape fetches a plugin page and extracts its metadata.
func (s *scraper) Scrape(ctx context.Context, pageURL string) (*corpus.ScrapeResult, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "oldsite.Scraper.Scrape")
	defer span.End()
	span.SetAttributes(attribute.String("page.url", pageURL))

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, &fetch.Error{Kind: fetch.KindIntegrity, URL: pageURL, Err: fmt.Errorf("failed to url.Parse: %w", err)}
	}

	res, err := s.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch.Fetcher.Get: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.Text()))
	if err != nil {
		return nil, &fetch.Error{Kind: fetch.KindParse, URL: pageURL, Err: fmt.Errorf("failed to goquery.NewDocumentFromReader: %w", err)}
	}

	return extract(doc, base), nil
}

func extract(doc *goquery.Document, base *url.URL) *corpus.ScrapeResult {
	result := &corpus.ScrapeResult{
		Path:        strings.ReplaceAll(base.Path, "/", ""),
		Title:       strings.TrimSpace(doc.Find(".entry-title").Text()),
		Date:        strings.TrimSpace(doc.Find("time.entry-date").Text()),
		Tags:        texts(doc.Find(".entry-meta-tags a")),
		Categories:  texts(doc.Find(".entry-meta-categories a")),
		Description: strings.TrimSpace(doc.Find(".entry-content p").Eq(1).Text()),
	}

	if src, ok := doc.Find("iframe[src*='youtube'], iframe[src*='youtu']").First().Attr("src"); ok {
		if src = strings.TrimSpace(src); src != "" {
			result.YoutubeURL = &src
		}
	}

	result.DownloadURL, result.Filename = downloadLink(doc, base)
	return result
}

func texts(sel *goquery.Selection) []string {
	return sel.Map(func(_ int, s *goquery.Selection) string {
		return strings.TrimSpace(s.Text())
	})
}

// downloadLink finds the first anchor pointing at a .js file or labelled "[download]".
func downloadLink(doc *goquery.Document, base *url.URL) (string, string) {
	anchor := doc.Find("a").FilterFunction(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if ok && strings.HasSuffix(href, ".js") {
			return true
		}
		return strings.ToLower(strings.TrimSpace(s.Text())) == "[download]"
	}).First()
	if anchor.Length() == 0 {
		return "", ""
	}

	href := strings.TrimSpace(anchor.AttrOr("href", ""))
	if href == "" {
		return "", ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", ""
	}

	downloadURL := base.ResolveReference(ref).String()
	return downloadURL, FileNameFromURL(downloadURL)
}

// FileNameFromURL returns the last path segment of rawURL, or "" when rawURL is not a URL.
func FileNameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p := u.Path
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	return p
}

// Screenshots fetches a plugin page and returns its screenshots as archive URLs.
func (s *scraper) Screenshots(ctx context.Context, pageURL string) ([]string, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "oldsite.Scraper.Screenshots")
	defer span.End()
	span.SetAttributes(attribute.String("page.url", pageURL))

	res, err := s.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch.Fetcher.Get: %w", err)
	}

	images := s.rewriter.Filter(imageSources(res.Body, s.rewriter.SiteURL))
	span.SetAttributes(attribute.Int("screenshots.count", len(images)))
	return images, nil
}

// imageSources tokenizes an HTML document and returns the distinct <img> sources under siteURL, in document order.
func imageSources(body []byte, siteURL string) []string {
	seen := make(map[string]struct{})
	var sources []string

	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		token := tokenizer.Token()
		if token.Data != "img" {
			continue
		}
		for _, attr := range token.Attr {
			if attr.Key != "src" || !strings.HasPrefix(attr.Val, siteURL) {
				continue
			}
			if _, ok := seen[attr.Val]; ok {
				continue
			}
			seen[attr.Val] = struct{}{}
			sources = append(sources, attr.Val)
		}
	}
	return sources
}

// ArchiveRewriter filters legacy image URLs down to real screenshots and maps them to the archive mirror.
type ArchiveRewriter struct {
	// SiteURL is the legacy site root, with a trailing slash.
	SiteURL string
	// UploadsPrefix is the URL prefix every screenshot lives under.
	UploadsPrefix string
	// ArchiveBaseURL replaces SiteURL in the rewritten URLs.
	ArchiveBaseURL string
	// Denylist holds image basenames to drop.
	Denylist []string
}

// DefaultArchiveRewriter returns the rewriter for sumrndm.site.
func DefaultArchiveRewriter() ArchiveRewriter {
	return NewArchiveRewriter(DefaultSiteURL, DefaultArchiveBaseURL)
}

// NewArchiveRewriter returns a rewriter for the given legacy site root and archive base.
func NewArchiveRewriter(siteURL, archiveBaseURL string) ArchiveRewriter {
	if !strings.HasSuffix(siteURL, "/") {
		siteURL += "/"
	}
	return ArchiveRewriter{
		SiteURL:        siteURL,
		UploadsPrefix:  siteURL + "wp-content/uploads",
		ArchiveBaseURL: strings.TrimSuffix(archiveBaseURL, "/"),
		Denylist:       DefaultDenylist,
	}
}

// Filter keeps the URLs under UploadsPrefix whose basename is not denylisted and rewrites them to the archive.
// The relative order of the kept URLs is preserved.
func (r ArchiveRewriter) Filter(urls []string) []string {
	denied := make(map[string]struct{}, len(r.Denylist))
	for _, name := range r.Denylist {
		denied[name] = struct{}{}
	}

	out := make([]string, 0, len(urls))
	for _, link := range urls {
		if !strings.HasPrefix(link, r.UploadsPrefix) {
			continue
		}
		u, err := url.Parse(link)
		if err != nil {
			continue
		}
		if _, ok := denied[path.Base(u.Path)]; ok {
			continue
		}
		out = append(out, r.ArchiveBaseURL+"/"+strings.TrimPrefix(link, r.SiteURL))
	}
	return out
}

// FilterScreenshots applies the default sumrndm.site rewriter to urls.
func FilterScreenshots(urls []string) []string {
	return DefaultArchiveRewriter().Filter(urls)
}
