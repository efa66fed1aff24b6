package transfer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/somerandev/rpgmaker-site/pkg/corpus"
	"github.com/somerandev/rpgmaker-site/pkg/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScraper struct {
	mu          sync.Mutex
	calls       []string
	failing     map[string]bool
	screenshots map[string][]string
}

func (f *fakeScraper) Scrape(_ context.Context, pageURL string) (*corpus.ScrapeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, pageURL)
	if f.failing[pageURL] {
		return nil, errors.New("boom")
	}
	return &corpus.ScrapeResult{Path: pageURL, Filename: "SRD_" + pageURL + ".js"}, nil
}

func (f *fakeScraper) Screenshots(_ context.Context, pageURL string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, pageURL)
	if f.failing[pageURL] {
		return nil, errors.New("boom")
	}
	return f.screenshots[pageURL], nil
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestTransfer(t *testing.T) {
	dir := t.TempDir()
	mv := writeFile(t, dir, "MVPlugins.txt",
		"Category: Core\r\nhttp://img/core.png\r\nA\r\na\r\nB\r\nb\r\nCore plugins\r\n\r\nbroken\r\npair\r\nodd\r\nwith\r\n\r\nC (Direct Download)\r\nhttp://x/files/C.js\r\nC desc\r\n")
	empty := writeFile(t, dir, "Empty.txt", "\n\n")
	mz := writeFile(t, dir, "more.txt", "D\nd\nE\ne\nMZ plugins")
	output := filepath.Join(dir, "out.json")

	scraper := &fakeScraper{failing: map[string]bool{"b": true}}
	tr := transfer.NewTransferer(scraper, transfer.WithConcurrency(2))

	report, err := tr.Transfer(context.Background(), output, []transfer.Input{
		transfer.ParseInput(mv),
		transfer.ParseInput(empty),
		transfer.ParseInput(mz + "=mz"),
	})
	require.NoError(t, err)
	assert.Equal(t, &transfer.Report{
		Files:          2,
		Entries:        6,
		SkippedFiles:   1,
		SkippedGroups:  1,
		ScrapeFailures: 1,
	}, report)
	assert.ElementsMatch(t, []string{"a", "b", "d", "e"}, scraper.calls)

	entries, err := corpus.Load(output)
	require.NoError(t, err)
	require.Len(t, entries, 6)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	assert.Equal(t, []string{"Core", "A", "B", "C", "D", "E"}, names)

	assert.Equal(t, "mv", entries[0].Category.Engine)
	require.NotNil(t, entries[1].Plugin.ScrapedData)
	assert.Equal(t, "SRD_a.js", entries[1].Plugin.ScrapedData.Filename)
	assert.Nil(t, entries[2].Plugin.ScrapedData)
	assert.Equal(t, corpus.KindDirectDownloadPlugin, entries[3].Kind)
	assert.Equal(t, "mz", entries[4].Plugin.Engine)
	assert.Equal(t, "mz", entries[5].Plugin.Engine)
}

func TestTransferWritesAfterEachFile(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "MVPlugins.txt", "A\na\nfirst")
	output := filepath.Join(dir, "out.json")

	tr := transfer.NewTransferer(&fakeScraper{})
	_, err := tr.Transfer(context.Background(), output, []transfer.Input{
		transfer.ParseInput(first),
		transfer.ParseInput(filepath.Join(dir, "missing.txt")),
	})
	require.Error(t, err)

	entries, err := corpus.Load(output)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEnrich(t *testing.T) {
	entries := []corpus.Entry{
		corpus.NewCategory(corpus.Category{Name: "Core"}),
		corpus.NewPlugin(corpus.Plugin{Name: "A", URL: "a"}),
		corpus.NewPlugin(corpus.Plugin{Name: "B", URL: "b"}),
		corpus.NewPlugin(corpus.Plugin{Name: "C", URL: "c", Screenshots: []string{"kept"}}),
		corpus.NewPlugin(corpus.Plugin{Name: "NoURL"}),
		corpus.NewDirectDownload(corpus.DirectDownload{Name: "D", DownloadURL: "d"}),
	}
	source := &fakeScraper{
		failing:     map[string]bool{"c": true},
		screenshots: map[string][]string{"a": {"https://archive/a.png"}},
	}

	report, err := transfer.NewEnricher(source, transfer.WithDelay(0)).Enrich(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, &transfer.EnrichReport{WithScreenshots: 1, Without: 1, Failed: 1}, report)
	assert.Equal(t, []string{"a", "b", "c"}, source.calls)

	assert.Equal(t, []string{"https://archive/a.png"}, entries[1].Plugin.Screenshots)
	assert.Empty(t, entries[2].Plugin.Screenshots)
	assert.Equal(t, []string{"kept"}, entries[3].Plugin.Screenshots)
}

func TestEnrichCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries := []corpus.Entry{
		corpus.NewPlugin(corpus.Plugin{Name: "A", URL: "a"}),
		corpus.NewPlugin(corpus.Plugin{Name: "B", URL: "b"}),
	}
	source := &fakeScraper{}

	_, err := transfer.NewEnricher(source).Enrich(ctx, entries)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a"}, source.calls)
}
