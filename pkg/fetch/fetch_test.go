package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/somerandev/rpgmaker-site/pkg/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcherGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "TestAgent", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte("<html>hello</html>"))
		case "/missing":
			http.NotFound(w, r)
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 100)))
		case "/latin1":
			// "Café très élégant" encoded as ISO-8859-1
			_, _ = w.Write([]byte("<p>Caf\xe9 tr\xe8s \xe9l\xe9gant, d\xe9j\xe0 vu, na\xefve fa\xe7ade</p>"))
		default:
			t.Fatalf("unexpected request %v", r)
		}
	}))
	defer server.Close()

	var results []string
	f := fetch.NewFetcher(
		fetch.WithHTTPClient(fetch.NewClient("TestAgent", 5*time.Second, 0)),
		fetch.WithMaxBodyBytes(50),
		fetch.WithObserver(func(_ context.Context, _ string, result string) {
			results = append(results, result)
		}),
	)

	t.Run("OK", func(t *testing.T) {
		res, err := f.Get(context.Background(), server.URL+"/ok")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "<html>hello</html>", res.Text())
		assert.Equal(t, server.URL+"/ok", res.URL)
	})

	t.Run("Not Found", func(t *testing.T) {
		_, err := f.Get(context.Background(), server.URL+"/missing")
		require.Error(t, err)
		code, ok := fetch.IsStatus(err)
		assert.True(t, ok)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, fetch.KindStatus, fetch.KindOf(err))
	})

	t.Run("Body Too Large", func(t *testing.T) {
		_, err := f.Get(context.Background(), server.URL+"/big")
		assert.ErrorIs(t, err, fetch.ErrBodyTooLarge)
		assert.Equal(t, fetch.KindIntegrity, fetch.KindOf(err))
	})

	t.Run("Network", func(t *testing.T) {
		_, err := f.Get(context.Background(), "http://127.0.0.1:1/unreachable")
		assert.Equal(t, fetch.KindNetwork, fetch.KindOf(err))
	})

	t.Run("Latin1", func(t *testing.T) {
		res, err := f.Get(context.Background(), server.URL+"/latin1")
		require.NoError(t, err)
		assert.Contains(t, res.Text(), "Café")
	})

	assert.Equal(t, []string{"ok", "status", "integrity", "network", "ok"}, results)
}

func TestErrorMessage(t *testing.T) {
	err := &fetch.Error{Kind: fetch.KindStatus, URL: "http://x", StatusCode: 500, Status: "500 Internal Server Error"}
	assert.Equal(t, "status: http://x returned 500 Internal Server Error", err.Error())

	_, ok := fetch.IsStatus(assert.AnError)
	assert.False(t, ok)
	assert.Equal(t, fetch.ErrorKind(""), fetch.KindOf(assert.AnError))
}
