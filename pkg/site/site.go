// Package site renders a corpus into the static plugin pages and per-engine plugin listings.
package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/somerandev/rpgmaker-site/pkg/corpus"
	"github.com/somerandev/rpgmaker-site/pkg/fetch"
	"github.com/somerandev/rpgmaker-site/pkg/header"
	"github.com/somerandev/rpgmaker-site/pkg/highlight"
	"github.com/somerandev/rpgmaker-site/pkg/pipeline"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultRawRepoBaseURL serves the current source of every plugin, by engine folder.
	DefaultRawRepoBaseURL = "https://raw.githubusercontent.com/SomeRanDev/RPGMakerPlugins/refs/heads/master"
	// DefaultGithubRepoURL is the repository plugin pages link to.
	DefaultGithubRepoURL = "https://github.com/SomeRanDev/RPGMakerPlugins"
	// DefaultEngine is assumed until a plugin says otherwise.
	DefaultEngine = "mv"
)

// Templates are the page skeletons tokens are substituted into.
type Templates struct {
	Plugin string
	List   string
}

// LoadTemplates reads the plugin page and plugin list templates.
func LoadTemplates(pluginPath, listPath string) (Templates, error) {
	plugin, err := os.ReadFile(pluginPath)
	if err != nil {
		return Templates{}, fmt.Errorf("failed to os.ReadFile: %w", err)
	}
	list, err := os.ReadFile(listPath)
	if err != nil {
		return Templates{}, fmt.Errorf("failed to os.ReadFile: %w", err)
	}
	return Templates{Plugin: string(plugin), List: string(list)}, nil
}

// Report summarizes a build.
type Report struct {
	Pages    int
	Listings int
	Skipped  int
}

// Builder renders corpora into an output folder.
type Builder interface {
	// Build writes one page per usable plugin and one listing per engine below outDir.
	// Plugins that cannot be rendered are logged and skipped.
	Build(ctx context.Context, entries []corpus.Entry, outDir string) (*Report, error)
}

// Option configures a Builder.
type Option func(*builder)

// WithRawRepoBaseURL sets where plugin sources are fetched from.
func WithRawRepoBaseURL(u string) Option {
	return func(b *builder) { b.rawRepoBaseURL = strings.TrimSuffix(u, "/") }
}

// WithGithubRepoURL sets the repository plugin pages link to.
func WithGithubRepoURL(u string) Option {
	return func(b *builder) { b.githubRepoURL = strings.TrimSuffix(u, "/") }
}

// WithConcurrency sets how many plugin sources are fetched at once.
func WithConcurrency(n int) Option {
	return func(b *builder) { b.concurrency = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *builder) { b.log = l }
}

// NewBuilder creates a Builder fetching plugin sources with f.
func NewBuilder(f fetch.Fetcher, templates Templates, opts ...Option) Builder {
	b := &builder{
		fetcher:        f,
		templates:      templates,
		rawRepoBaseURL: DefaultRawRepoBaseURL,
		githubRepoURL:  DefaultGithubRepoURL,
		concurrency:    1,
		log:            slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type builder struct {
	fetcher        fetch.Fetcher
	templates      Templates
	rawRepoBaseURL string
	githubRepoURL  string
	concurrency    int
	log            *slog.Logger
}

// rendered is a plugin page ready to be written.
type rendered struct {
	plugin  *corpus.Plugin
	engine  string
	version string
	html    string
}

// bucket is one category of a listing and the entries rendered under it.
type bucket struct {
	category corpus.Category
	entries  []string
}

var errSkipped = errors.New("plugin skipped")

// Build writes one page per usable plugin and one listing per engine below outDir.
func (b *builder) Build(ctx context.Context, entries []corpus.Entry, outDir string) (*Report, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "site.Builder.Build")
	defer span.End()

	report := &Report{}

	var usable []int
	for i, entry := range entries {
		if p := entry.Plugin; p != nil {
			if p.ScrapedData == nil {
				b.log.WarnContext(ctx, "scraped data does not exist, skipping", "plugin", p.Name)
				report.Skipped++
				continue
			}
			usable = append(usable, i)
		}
	}

	results := pipeline.Run(ctx, usable, b.concurrency, func(ctx context.Context, i int) (*rendered, error) {
		return b.render(ctx, entries[i].Plugin)
	})
	pages := make(map[int]pipeline.Result[*rendered], len(results))
	for k, r := range results {
		pages[usable[k]] = r
	}

	listings := make(map[string][]*bucket)
	var engines []string
	addBucket := func(engine string, c corpus.Category) {
		if _, ok := listings[engine]; !ok {
			engines = append(engines, engine)
		}
		listings[engine] = append(listings[engine], &bucket{category: c})
	}

	lastEngine := DefaultEngine
	for i, entry := range entries {
		switch {
		case entry.Category != nil:
			addBucket(categoryEngine(entries, i, lastEngine), *entry.Category)

		case entry.Plugin != nil:
			r, ok := pages[i]
			if !ok {
				continue
			}
			lastEngine = engineOf(entry.Plugin)
			if r.Err != nil {
				if !errors.Is(r.Err, errSkipped) {
					b.log.ErrorContext(ctx, "could not build plugin page", "plugin", entry.Plugin.Name, "err", r.Err)
				}
				report.Skipped++
				continue
			}

			page := r.Value
			if _, ok := listings[page.engine]; !ok {
				addBucket(page.engine, corpus.Category{
					Name:        "Unknown",
					Description: "There is no category here.",
				})
			}
			buckets := listings[page.engine]
			last := buckets[len(buckets)-1]
			sd := page.plugin.ScrapedData
			last.entries = append(last.entries, listEntryHTML(sd.Filename, "", page.plugin.Name, sd.Description, page.version, sd.Date))

			path := filepath.Join(outDir, page.engine, strings.ReplaceAll(sd.Filename, ":", ""), "index.html")
			if err := writeFile(path, page.html); err != nil {
				return report, err
			}
			report.Pages++
		}
	}

	for _, engine := range engines {
		var categories []string
		for _, bk := range listings[engine] {
			if len(bk.entries) > 0 {
				categories = append(categories, categoryHTML(bk.category, strings.Join(bk.entries, "\n\n")))
			}
		}
		if len(categories) == 0 {
			continue
		}

		html := Substitute(b.templates.List, map[string]string{
			"PLUGINS":       strings.Join(categories, "\n\n"),
			"PLUGIN_ENGINE": EngineLabel(engine),
		})
		if err := writeFile(filepath.Join(outDir, engine, "index.html"), html); err != nil {
			return report, err
		}
		report.Listings++
	}

	span.SetAttributes(
		attribute.Int("site.pages", report.Pages),
		attribute.Int("site.listings", report.Listings),
		attribute.Int("site.skipped", report.Skipped),
	)
	return report, nil
}

// categoryEngine decides which engine listing the category at index i opens a bucket in.
// An explicit engine wins, then the engine of a directly following plugin, then the engine of
// the last plugin seen.
func categoryEngine(entries []corpus.Entry, i int, lastEngine string) string {
	if engine := corpus.NormalizeEngine(entries[i].Category.Engine); engine != "" {
		return engine
	}
	if i+1 < len(entries) {
		if next := entries[i+1].Plugin; next != nil {
			return engineOf(next)
		}
	}
	return lastEngine
}

func engineOf(p *corpus.Plugin) string {
	if engine := corpus.NormalizeEngine(p.Engine); engine != "" {
		return engine
	}
	return DefaultEngine
}

func (b *builder) render(ctx context.Context, p *corpus.Plugin) (*rendered, error) {

	ctx, span := trace.SpanFromContext(ctx).TracerProvider().Tracer("").Start(ctx, "site.Builder.render")
	defer span.End()
	span.SetAttributes(attribute.String("plugin.name", p.Name))

	sd := p.ScrapedData
	engine := engineOf(p)
	name := sd.Filename
	if name == "" {
		b.log.ErrorContext(ctx, "plugin has no file name", "plugin", p.Name)
		return nil, errSkipped
	}

	source, ok := b.source(ctx, engine, sd)
	if !ok {
		return nil, errSkipped
	}

	parsed, err := header.Parse(source)
	if err != nil {
		b.log.ErrorContext(ctx, "could not get plugin data", "plugin", name, "err", err)
		return nil, errSkipped
	}
	if len(parsed.Warnings) > 0 {
		b.log.ErrorContext(ctx, "there were errors parsing the header", "plugin", name, "warnings", parsed.Warnings)
		return nil, errSkipped
	}

	def := parsed.Data[header.DefaultLanguage]
	if def == nil {
		b.log.ErrorContext(ctx, "plugin does not have a default header", "plugin", name)
		return nil, errSkipped
	}

	version := DefaultVersion
	if def.Help != "" {
		version = ExtractVersion(def.Help)
	} else {
		b.log.WarnContext(ctx, "plugin does not have a help section", "plugin", name)
	}

	code, err := highlight.CodeBlock(parsed.RemainingContent)
	if err != nil {
		return nil, fmt.Errorf("failed to highlight.CodeBlock: %w", err)
	}

	html := Substitute(b.templates.Plugin, b.tokens(p, engine, version, def, code))
	return &rendered{plugin: p, engine: engine, version: version, html: html}, nil
}

// source fetches the plugin code from the repository, falling back to the legacy download link.
func (b *builder) source(ctx context.Context, engine string, sd *corpus.ScrapeResult) (string, bool) {
	res, err := b.fetcher.Get(ctx, b.rawRepoBaseURL+"/"+engine+"/"+sd.Filename)
	if err == nil {
		return res.Text(), true
	}
	if sd.DownloadURL == "" {
		b.log.ErrorContext(ctx, "could not fetch code", "plugin", sd.Filename, "err", err)
		return "", false
	}

	b.log.ErrorContext(ctx, "could not fetch code, attempting download url", "plugin", sd.Filename, "err", err)
	res, err = b.fetcher.Get(ctx, sd.DownloadURL)
	if err != nil {
		b.log.ErrorContext(ctx, "could not fetch code using download url", "plugin", sd.Filename, "url", sd.DownloadURL, "err", err)
		return "", false
	}
	return res.Text(), true
}

func (b *builder) tokens(p *corpus.Plugin, engine, version string, def *header.Header, code string) map[string]string {
	sd := p.ScrapedData
	githubLink := fmt.Sprintf("%s/blob/master/%s/%s", b.githubRepoURL, engine, sd.Filename)
	label := EngineLabel(engine)

	downloadCode := fmt.Sprintf(`downloadGithubLink("%s", "%s")`, githubLink, sd.Filename)
	if p.OverrideDownloadURL != "" {
		downloadCode = fmt.Sprintf(`window.open("%s")`, p.OverrideDownloadURL)
	}

	var requires, youtube, metaImage, metaImageTwitter string
	if p.RequiredPlugin != "" {
		requires = fmt.Sprintf(`<div class="meta-item"><strong>Requires:</strong> %s</div>`, p.RequiredPlugin)
	}
	if sd.YoutubeURL != nil {
		youtube = youtubeHTML(*sd.YoutubeURL)
		if id, ok := YouTubeID(*sd.YoutubeURL); ok {
			metaImage = fmt.Sprintf(`<meta property="og:image" content="https://img.youtube.com/vi/%s/0.jpg">`, id)
			metaImageTwitter = fmt.Sprintf(`<meta property="twitter:image" content="https://img.youtube.com/vi/%s/0.jpg">`, id)
		}
	}

	return map[string]string{
		"PLUGIN_DOWNLOAD_CODE":      downloadCode,
		"PLUGIN_NAME":               p.Name,
		"PLUGIN_RELEASE_DATE":       sd.Date,
		"PLUGIN_ENGINE":             "RPG Maker " + label,
		"PLUGIN_DESCRIPTION":        brLines(sd.Description),
		"PLUGIN_YOUTUBE":            youtube,
		"PLUGIN_VERSION":            version,
		"PLUGIN_FILENAME":           sd.Filename,
		"PLUGIN_SCREENSHOTS":        screenshotsHTML(p.Name, p.Screenshots),
		"REQUIRES_PLUGIN":           requires,
		"PLUGIN_CODE":               code,
		"PLUGIN_PARAMS":             paramsHTML(def.Params),
		"PLUGIN_HELP":               brLines(def.Help),
		"PLUGIN_GITHUB_LINK":        githubLink,
		"PLUGIN_TAGS":               tagsHTML(sd.Tags),
		"PLUGIN_REPORT_BUG_LINK":    fmt.Sprintf("%s/issues/new?template=bug.yaml&engine=%%22RPG%%20Maker%%20%s%%22&plugin_name=%s", b.githubRepoURL, label, sd.Filename),
		"PLUGIN_META_IMAGE":         metaImage,
		"PLUGIN_META_IMAGE_TWITTER": metaImageTwitter,
	}
}

func writeFile(path, contents string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to os.MkdirAll: %w", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("failed to os.WriteFile: %w", err)
	}
	return nil
}
