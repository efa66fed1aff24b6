package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/somerandev/rpgmaker-site/pkg/corpus"
	"github.com/somerandev/rpgmaker-site/pkg/pipeline"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PageScraper extracts metadata from a legacy plugin page.
type PageScraper interface {
	Scrape(ctx context.Context, pageURL string) (*corpus.ScrapeResult, error)
}

// Report summarizes a transfer run.
type Report struct {
	Files          int
	Entries        int
	SkippedFiles   int
	SkippedGroups  int
	ScrapeFailures int
}

// Transferer builds a corpus file from plain-text input files.
type Transferer interface {
	// Transfer parses every input in order, scrapes their plugins and rewrites output after each input.
	Transfer(ctx context.Context, output string, inputs []Input) (*Report, error)
}

// Option configures a Transferer.
type Option func(*transferer)

// WithConcurrency sets how many plugin pages are scraped at once.
func WithConcurrency(n int) Option {
	return func(t *transferer) { t.concurrency = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *transferer) { t.log = l }
}

// NewTransferer creates a Transferer scraping plugin pages with scraper.
func NewTransferer(scraper PageScraper, opts ...Option) Transferer {
	t := &transferer{
		scraper:     scraper,
		concurrency: 1,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type transferer struct {
	scraper     PageScraper
	concurrency int
	log         *slog.Logger
}

// Transfer parses every input in order, scrapes their plugins and rewrites output after each input.
func (t *transferer) Transfer(ctx context.Context, output string, inputs []Input) (*Report, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "transfer.Transferer.Transfer")
	defer span.End()

	report := &Report{}
	var result []corpus.Entry

	for _, input := range inputs {
		contents, err := os.ReadFile(input.Path)
		if err != nil {
			return report, fmt.Errorf("failed to os.ReadFile: %w", err)
		}

		groups := SplitGroups(string(contents))
		if len(groups) == 0 {
			t.log.WarnContext(ctx, "input file is empty, skipping", "file", input.Path)
			report.SkippedFiles++
			continue
		}

		for _, group := range groups {
			entries, err := ParseGroup(group, input.Engine)
			if err != nil {
				t.log.WarnContext(ctx, "skipping group", "file", input.Path, "err", err, "group", group)
				report.SkippedGroups++
				continue
			}
			report.ScrapeFailures += t.scrapeAll(ctx, entries)
			result = append(result, entries...)
		}

		if err := corpus.Save(output, result); err != nil {
			return report, fmt.Errorf("failed to corpus.Save: %w", err)
		}
		report.Files++
		report.Entries = len(result)
		t.log.InfoContext(ctx, "transferred input file", "file", input.Path, "engine", input.Engine, "entries", len(result))

		if err := ctx.Err(); err != nil {
			return report, err
		}
	}

	span.SetAttributes(attribute.Int("transfer.entries", report.Entries))
	return report, nil
}

// scrapeAll fills in the scraped data of the plugins among entries and returns the number of failures.
// A plugin that could not be scraped keeps nil scraped data.
func (t *transferer) scrapeAll(ctx context.Context, entries []corpus.Entry) int {
	plugins := corpus.Plugins(entries)

	results := pipeline.Run(ctx, plugins, t.concurrency, func(ctx context.Context, p *corpus.Plugin) (*corpus.ScrapeResult, error) {
		return t.scraper.Scrape(ctx, p.URL)
	})

	for i, r := range results {
		if r.Err != nil {
			if !errors.Is(r.Err, context.Canceled) {
				t.log.ErrorContext(ctx, "could not scrape plugin", "name", plugins[i].Name, "url", plugins[i].URL, "err", r.Err)
			}
			continue
		}
		plugins[i].ScrapedData = r.Value
	}
	return pipeline.Failed(results)
}
