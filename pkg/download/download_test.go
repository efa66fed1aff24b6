package download_test

import (
	"archive/zip"
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/somerandev/rpgmaker-site/pkg/corpus"
	"github.com/somerandev/rpgmaker-site/pkg/download"
	"github.com/somerandev/rpgmaker-site/pkg/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, contents := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestRun(t *testing.T) {
	bundle := zipArchive(t, map[string]string{
		"Bundle/SRD_One.js":  "one",
		"Bundle/SRD_Two.js":  "two",
		"Bundle/readme.txt":  "ignored",
		"Bundle/img/pic.png": "ignored",
	})
	empty := zipArchive(t, map[string]string{"readme.txt": "nothing"})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/SRD_Scroll.js":
			_, _ = w.Write([]byte("scroll"))
		case "/files/Direct.js":
			_, _ = w.Write([]byte("direct"))
		case "/bundle.zip":
			http.ServeContent(w, r, "bundle.zip", time.Time{}, bytes.NewReader(bundle))
		case "/empty.zip":
			http.ServeContent(w, r, "empty.zip", time.Time{}, bytes.NewReader(empty))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	entries := []corpus.Entry{
		corpus.NewCategory(corpus.Category{Name: "Core"}),
		corpus.NewPlugin(corpus.Plugin{Name: "Scroll", ScrapedData: &corpus.ScrapeResult{DownloadURL: server.URL + "/SRD_Scroll.js", Filename: "SRD_Scroll.js"}}),
		corpus.NewPlugin(corpus.Plugin{Name: "Unscraped"}),
		corpus.NewPlugin(corpus.Plugin{Name: "NoLink", ScrapedData: &corpus.ScrapeResult{}}),
		corpus.NewPlugin(corpus.Plugin{Name: "Gone", ScrapedData: &corpus.ScrapeResult{DownloadURL: server.URL + "/gone.js", Filename: "gone.js"}}),
		corpus.NewDirectDownload(corpus.DirectDownload{Name: "Direct", DownloadURL: server.URL + "/files/Direct.js", Filename: "Direct.js"}),
		corpus.NewDirectDownload(corpus.DirectDownload{Name: "Bundle", DownloadURL: server.URL + "/bundle.zip", Filename: "bundle.zip"}),
		corpus.NewDirectDownload(corpus.DirectDownload{Name: "Empty", DownloadURL: server.URL + "/empty.zip", Filename: "empty.zip"}),
	}

	dir := filepath.Join(t.TempDir(), "plugins")
	d := download.NewDownloader(fetch.NewFetcher(), download.WithLogger(slog.New(slog.DiscardHandler)))
	report, err := d.Run(context.Background(), entries, dir)
	require.NoError(t, err)
	assert.Equal(t, &download.Report{Downloaded: 3, Failed: 2, Skipped: 1}, report)

	for name, want := range map[string]string{
		"SRD_Scroll.js": "scroll",
		"Direct.js":     "direct",
		"SRD_One.js":    "one",
		"SRD_Two.js":    "two",
	} {
		got, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, want, string(got))
	}
	assert.NoFileExists(t, filepath.Join(dir, "bundle.zip"))
	assert.NoFileExists(t, filepath.Join(dir, "readme.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "gone.js"))
}

func TestTargets(t *testing.T) {
	targets, unscraped := download.Targets([]corpus.Entry{
		corpus.NewPlugin(corpus.Plugin{Name: "A", ScrapedData: &corpus.ScrapeResult{DownloadURL: "http://x/A.js", Filename: "A.js"}}),
		corpus.NewPlugin(corpus.Plugin{Name: "B"}),
		corpus.NewDirectDownload(corpus.DirectDownload{Name: "C", DownloadURL: "http://x/C.js"}),
	})
	assert.Equal(t, []download.Target{{Name: "A", URL: "http://x/A.js", Filename: "A.js"}}, targets)
	assert.Equal(t, []string{"B"}, unscraped)
}
