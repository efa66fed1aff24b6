package internal_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/somerandev/rpgmaker-site/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "mz", "SRD_Scroll"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mz", "SRD_Scroll", "index.html"), []byte("<h1>Scroll</h1>"), 0o644))

	app, err := internal.NewApp(dir)
	require.NoError(t, err)

	server := httptest.NewServer(app.Router())
	defer server.Close()

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantBody string
	}{
		{"health", "/healthz", http.StatusOK, "ok"},
		{"plugin page", "/mz/SRD_Scroll/", http.StatusOK, "<h1>Scroll</h1>"},
		{"missing", "/mv/Nope/", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := http.Get(server.URL + tt.path)
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, tt.wantCode, res.StatusCode)
			if tt.wantBody != "" {
				body, err := io.ReadAll(res.Body)
				require.NoError(t, err)
				assert.Equal(t, tt.wantBody, string(body))
			}
		})
	}

	t.Run("cors", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, server.URL+"/healthz", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://localhost:8080")
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestNewApp(t *testing.T) {
	_, err := internal.NewApp(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = internal.NewApp(file)
	assert.Error(t, err)
}
