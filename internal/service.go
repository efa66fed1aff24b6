package internal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/somerandev/rpgmaker-site/internal/cache"
	"github.com/somerandev/rpgmaker-site/internal/common"
	"github.com/somerandev/rpgmaker-site/internal/config"
	"github.com/somerandev/rpgmaker-site/pkg/corpus"
	"github.com/somerandev/rpgmaker-site/pkg/download"
	"github.com/somerandev/rpgmaker-site/pkg/fetch"
	"github.com/somerandev/rpgmaker-site/pkg/oldsite"
	"github.com/somerandev/rpgmaker-site/pkg/redirect"
	"github.com/somerandev/rpgmaker-site/pkg/site"
	"github.com/somerandev/rpgmaker-site/pkg/transfer"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SiteService runs the stages of the catalog pipeline. Every stage reads or writes a corpus file on disk.
type SiteService interface {
	// Transfer builds the corpus at output from plain-text input files, scraping every plugin page.
	Transfer(ctx context.Context, output string, inputs []transfer.Input) (*transfer.Report, error)
	// Scrape scrapes a single legacy plugin page.
	Scrape(ctx context.Context, pageURL string) (*corpus.ScrapeResult, error)
	// Screenshots reads the corpus at input, fills in plugin screenshots and writes it to output.
	Screenshots(ctx context.Context, input, output string) (*transfer.EnrichReport, error)
	// Build renders the corpus at corpusPath into outDir using the two template files.
	Build(ctx context.Context, corpusPath, pluginTemplate, listTemplate, outDir string) (*site.Report, error)
	// Download saves every plugin file of the corpus at corpusPath into dir.
	Download(ctx context.Context, corpusPath, dir string) (*download.Report, error)
	// Redirects writes the legacy URL redirect pages of the corpus at corpusPath into outDir.
	Redirects(ctx context.Context, corpusPath, outDir string) (int, error)
}

type siteService struct {
	cfg        *config.Config
	httpClient *http.Client
	fetcher    fetch.Fetcher
	scraper    oldsite.Scraper
}

// NewSiteService creates a SiteService from cfg. Legacy page scrapes are memoized in c unless c is nil.
func NewSiteService(cfg *config.Config, c *cache.Cache) SiteService {
	httpClient := fetch.NewClient(cfg.UserAgent, cfg.HTTPTimeout.Duration, cfg.RequestInterval.Duration)

	fetcher := fetch.NewFetcher(
		fetch.WithHTTPClient(httpClient),
		fetch.WithMaxBodyBytes(cfg.MaxBodyBytes),
		fetch.WithObserver(func(ctx context.Context, url string, result string) {
			common.FetchesTotalIncr(ctx, result)
		}),
	)

	var scraper oldsite.Scraper = oldsite.NewScraper(fetcher,
		oldsite.WithArchiveRewriter(oldsite.NewArchiveRewriter(cfg.LegacySiteURL, cfg.ArchiveBaseURL)))
	if c != nil {
		scraper = &cachedScraper{next: scraper, cache: c, ttl: cfg.CacheTTL.Duration}
	}

	return &siteService{
		cfg:        cfg,
		httpClient: httpClient,
		fetcher:    fetcher,
		scraper:    scraper,
	}
}

func (s *siteService) Transfer(ctx context.Context, output string, inputs []transfer.Input) (*transfer.Report, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "internal.SiteService.Transfer")
	defer span.End()

	t := transfer.NewTransferer(s.scraper,
		transfer.WithConcurrency(s.cfg.Concurrency),
		transfer.WithLogger(common.Log))

	report, err := t.Transfer(ctx, output, inputs)
	if report != nil {
		common.EntriesSkippedTotalAdd(ctx, "transfer", report.SkippedGroups+report.ScrapeFailures)
		span.SetAttributes(attribute.Int("transfer.entries", report.Entries))
	}
	if err != nil {
		span.RecordError(err)
		return report, err
	}

	return report, nil
}

func (s *siteService) Scrape(ctx context.Context, pageURL string) (*corpus.ScrapeResult, error) {
	return s.scraper.Scrape(ctx, pageURL)
}

func (s *siteService) Screenshots(ctx context.Context, input, output string) (*transfer.EnrichReport, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "internal.SiteService.Screenshots")
	defer span.End()

	entries, err := corpus.Load(input)
	if err != nil {
		return nil, fmt.Errorf("failed to corpus.Load: %w", err)
	}

	e := transfer.NewEnricher(s.scraper,
		transfer.WithDelay(s.cfg.RequestDelay.Duration),
		transfer.WithEnricherLogger(common.Log))

	report, err := e.Enrich(ctx, entries)
	if err != nil {
		span.RecordError(err)
		return report, err
	}
	common.EntriesSkippedTotalAdd(ctx, "screenshots", report.Failed)

	if err := corpus.Save(output, entries); err != nil {
		return report, fmt.Errorf("failed to corpus.Save: %w", err)
	}

	return report, nil
}

func (s *siteService) Build(ctx context.Context, corpusPath, pluginTemplate, listTemplate, outDir string) (*site.Report, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "internal.SiteService.Build")
	defer span.End()

	templates, err := site.LoadTemplates(pluginTemplate, listTemplate)
	if err != nil {
		return nil, err
	}

	entries, err := corpus.Load(corpusPath)
	if err != nil {
		return nil, fmt.Errorf("failed to corpus.Load: %w", err)
	}

	b := site.NewBuilder(s.fetcher, templates,
		site.WithRawRepoBaseURL(s.cfg.RawRepoBaseURL),
		site.WithGithubRepoURL(s.cfg.GithubRepoURL),
		site.WithConcurrency(s.cfg.Concurrency),
		site.WithLogger(common.Log))

	report, err := b.Build(ctx, entries, outDir)
	if report != nil {
		common.PagesWrittenTotalAdd(ctx, "plugin", report.Pages)
		common.PagesWrittenTotalAdd(ctx, "listing", report.Listings)
		common.EntriesSkippedTotalAdd(ctx, "build", report.Skipped)
	}
	if err != nil {
		span.RecordError(err)
		return report, err
	}

	return report, nil
}

func (s *siteService) Download(ctx context.Context, corpusPath, dir string) (*download.Report, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "internal.SiteService.Download")
	defer span.End()

	entries, err := corpus.Load(corpusPath)
	if err != nil {
		return nil, fmt.Errorf("failed to corpus.Load: %w", err)
	}

	d := download.NewDownloader(s.fetcher,
		download.WithHTTPClient(s.httpClient),
		download.WithMaxBodyBytes(s.cfg.MaxBodyBytes),
		download.WithLogger(common.Log))

	report, err := d.Run(ctx, entries, dir)
	if report != nil {
		common.EntriesSkippedTotalAdd(ctx, "download", report.Skipped+report.Failed)
	}
	if err != nil {
		span.RecordError(err)
		return report, err
	}

	return report, nil
}

func (s *siteService) Redirects(ctx context.Context, corpusPath, outDir string) (int, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "internal.SiteService.Redirects")
	defer span.End()

	entries, err := corpus.Load(corpusPath)
	if err != nil {
		return 0, fmt.Errorf("failed to corpus.Load: %w", err)
	}

	n, err := redirect.Generate(ctx, entries, outDir, redirect.Options{
		SiteBaseURL: s.cfg.SiteBaseURL,
		Logger:      common.Log,
	})
	if err != nil {
		span.RecordError(err)
		return n, err
	}
	common.PagesWrittenTotalAdd(ctx, "redirect", n)

	return n, nil
}

// cachedScraper memoizes legacy page scrapes. Failures are never cached.
type cachedScraper struct {
	next  oldsite.Scraper
	cache *cache.Cache
	ttl   time.Duration
}

func (s *cachedScraper) Scrape(ctx context.Context, pageURL string) (*corpus.ScrapeResult, error) {
	span := trace.SpanFromContext(ctx)

	cacheResult := "hit"
	cacheKey := fmt.Sprintf("oldsite.scrape : %s", pageURL)
	result, err := cache.Memoize[corpus.ScrapeResult](s.cache, cacheKey, s.ttl, func(string) (*corpus.ScrapeResult, error) {

		cacheResult = "miss"
		return s.next.Scrape(ctx, pageURL)
	})
	span.SetAttributes(attribute.String("cache.oldsite.scrape.result", cacheResult))
	common.CacheGetsTotalIncr(ctx, "oldsite.scrape", cacheResult)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *cachedScraper) Screenshots(ctx context.Context, pageURL string) ([]string, error) {
	span := trace.SpanFromContext(ctx)

	cacheResult := "hit"
	cacheKey := fmt.Sprintf("oldsite.screenshots : %s", pageURL)
	images, err := cache.Memoize[[]string](s.cache, cacheKey, s.ttl, func(string) (*[]string, error) {

		cacheResult = "miss"
		images, err := s.next.Screenshots(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		return &images, nil
	})
	span.SetAttributes(attribute.String("cache.oldsite.screenshots.result", cacheResult))
	common.CacheGetsTotalIncr(ctx, "oldsite.screenshots", cacheResult)
	if err != nil {
		return nil, err
	}

	return *images, nil
}
