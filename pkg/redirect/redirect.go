// Package redirect writes the pages that forward legacy site URLs to their new location.
package redirect

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/somerandev/rpgmaker-site/pkg/corpus"
)

// DefaultSiteBaseURL is the root every redirect points below.
const DefaultSiteBaseURL = "https://someran.dev/rpgmaker"

var legacyPath = regexp.MustCompile(`http://sumrndm\.site/([\w\d\-]+)/?`)

// Seed returns the redirects of the legacy pages that are not plugins.
func Seed() map[string]string {
	return map[string]string{
		"":             "",
		"mv-plugins":   "plugins/mv",
		"mz-plugins":   "plugins/mz",
		"report-bug":   "bug",
		"terms-of-use": "terms",
		"contact-me":   "",
		"discord":      "discord",
	}
}

// Options configures Generate.
type Options struct {
	// SiteBaseURL is the new site root. Defaults to DefaultSiteBaseURL.
	SiteBaseURL string
	Logger      *slog.Logger
}

// Map returns the seed redirects plus one redirect per scraped plugin whose URL is a legacy page.
func Map(entries []corpus.Entry) map[string]string {
	redirects := Seed()
	for _, p := range corpus.Plugins(entries) {
		if p.ScrapedData == nil {
			continue
		}
		m := legacyPath.FindStringSubmatch(p.URL)
		if m == nil {
			continue
		}
		redirects[m[1]] = fmt.Sprintf("plugins/%s/%s", strings.ToLower(p.Engine), p.ScrapedData.Filename)
	}
	return redirects
}

// Generate writes <outDir>/<legacy path>/index.html for every redirect, in sorted path order,
// and returns how many it wrote.
func Generate(ctx context.Context, entries []corpus.Entry, outDir string, opts Options) (int, error) {
	base := strings.TrimSuffix(opts.SiteBaseURL, "/")
	if base == "" {
		base = DefaultSiteBaseURL
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	for _, p := range corpus.Plugins(entries) {
		if p.ScrapedData == nil {
			log.WarnContext(ctx, "scraped data does not exist, no redirect", "plugin", p.Name)
		}
	}

	redirects := Map(entries)
	count := 0
	for _, from := range slices.Sorted(maps.Keys(redirects)) {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		folder := outDir
		if from != "" {
			folder = filepath.Join(outDir, from)
		}
		if err := os.MkdirAll(folder, 0o755); err != nil {
			return count, fmt.Errorf("failed to os.MkdirAll: %w", err)
		}

		page := fmt.Sprintf(`<meta http-equiv="Refresh" content="0; url='%s/%s'" />`, base, redirects[from])
		if err := os.WriteFile(filepath.Join(folder, "index.html"), []byte(page), 0o644); err != nil {
			return count, fmt.Errorf("failed to os.WriteFile: %w", err)
		}
		count++
	}

	log.InfoContext(ctx, "generated redirects", "count", count)
	return count, nil
}
