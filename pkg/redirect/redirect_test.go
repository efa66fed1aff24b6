package redirect_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/somerandev/rpgmaker-site/pkg/corpus"
	"github.com/somerandev/rpgmaker-site/pkg/redirect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var entries = []corpus.Entry{
	corpus.NewCategory(corpus.Category{Name: "Core"}),
	corpus.NewPlugin(corpus.Plugin{Name: "Scroll", URL: "http://sumrndm.site/map-scroll/", Engine: "MV",
		ScrapedData: &corpus.ScrapeResult{Filename: "SRD_MapScroll.js"}}),
	corpus.NewPlugin(corpus.Plugin{Name: "Unscraped", URL: "http://sumrndm.site/unscraped/", Engine: "mv"}),
	corpus.NewPlugin(corpus.Plugin{Name: "Elsewhere", URL: "https://example.com/x/", Engine: "mz",
		ScrapedData: &corpus.ScrapeResult{Filename: "X.js"}}),
}

func TestMap(t *testing.T) {
	m := redirect.Map(entries)
	assert.Len(t, m, len(redirect.Seed())+1)
	assert.Equal(t, "plugins/mv/SRD_MapScroll.js", m["map-scroll"])
	assert.NotContains(t, m, "unscraped")
	assert.Equal(t, "plugins/mz", m["mz-plugins"])
}

func TestGenerate(t *testing.T) {
	out := t.TempDir()

	n, err := redirect.Generate(context.Background(), entries, out, redirect.Options{
		SiteBaseURL: "https://new.example/rpg/",
		Logger:      slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	page, err := os.ReadFile(filepath.Join(out, "map-scroll", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, `<meta http-equiv="Refresh" content="0; url='https://new.example/rpg/plugins/mv/SRD_MapScroll.js'" />`, string(page))

	root, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, `<meta http-equiv="Refresh" content="0; url='https://new.example/rpg/'" />`, string(root))

	assert.FileExists(t, filepath.Join(out, "contact-me", "index.html"))
}

func TestGenerateDefaultBase(t *testing.T) {
	out := t.TempDir()

	_, err := redirect.Generate(context.Background(), nil, out, redirect.Options{})
	require.NoError(t, err)

	page, err := os.ReadFile(filepath.Join(out, "report-bug", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "url='https://someran.dev/rpgmaker/bug'")
}
