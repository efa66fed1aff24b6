package transfer

import (
	"context"
	"log/slog"
	"time"

	"github.com/somerandev/rpgmaker-site/pkg/corpus"
	"github.com/somerandev/rpgmaker-site/pkg/pipeline"
	"go.opentelemetry.io/otel/trace"
)

// DefaultDelay separates requests to the legacy site during the screenshot pass.
const DefaultDelay = 500 * time.Millisecond

// ScreenshotSource lists the screenshots of a legacy plugin page.
type ScreenshotSource interface {
	Screenshots(ctx context.Context, pageURL string) ([]string, error)
}

// EnrichReport summarizes a screenshot pass.
type EnrichReport struct {
	WithScreenshots int
	Without         int
	Failed          int
}

// Enricher adds screenshots to the plugins of a corpus.
type Enricher struct {
	source ScreenshotSource
	delay  time.Duration
	log    *slog.Logger
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithDelay sets the pause between two page requests.
func WithDelay(d time.Duration) EnricherOption {
	return func(e *Enricher) { e.delay = d }
}

// WithEnricherLogger sets the logger.
func WithEnricherLogger(l *slog.Logger) EnricherOption {
	return func(e *Enricher) { e.log = l }
}

// NewEnricher creates an Enricher reading screenshots from source.
func NewEnricher(source ScreenshotSource, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		source: source,
		delay:  DefaultDelay,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich stores the screenshots of every plugin page in its entry. Categories and entries
// without a page URL are left alone, as are entries whose page could not be read.
// It stops early, keeping what it found so far, when ctx is cancelled.
func (e *Enricher) Enrich(ctx context.Context, entries []corpus.Entry) (*EnrichReport, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "transfer.Enricher.Enrich")
	defer span.End()

	report := &EnrichReport{}
	first := true
	for _, entry := range entries {
		p := entry.Plugin
		if p == nil || p.URL == "" {
			continue
		}

		if !first {
			if err := pipeline.Sleep(ctx, e.delay); err != nil {
				return report, err
			}
		}
		first = false

		images, err := e.source.Screenshots(ctx, p.URL)
		if err != nil {
			e.log.ErrorContext(ctx, "could not read screenshots", "url", p.URL, "err", err)
			report.Failed++
			continue
		}

		p.Screenshots = images
		if len(images) > 0 {
			e.log.InfoContext(ctx, "found screenshots", "url", p.URL, "screenshots", images)
			report.WithScreenshots++
		} else {
			e.log.InfoContext(ctx, "found no screenshots", "url", p.URL)
			report.Without++
		}
	}
	return report, nil
}
