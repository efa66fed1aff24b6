package cache_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/somerandev/rpgmaker-site/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

func openCache(t *testing.T, dir string) *cache.Cache {
	t.Helper()
	c, err := cache.Open(dir, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return c
}

func TestMemoize(t *testing.T) {
	c := openCache(t, "")
	defer c.Close()

	calls := 0
	fn := func(key string) (*page, error) {
		calls++
		return &page{Title: key, Tags: []string{"a", "b"}}, nil
	}

	first, err := cache.Memoize(c, "scrape : x", time.Hour, fn)
	require.NoError(t, err)
	second, err := cache.Memoize(c, "scrape : x", time.Hour, fn)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Equal(t, &page{Title: "scrape : x", Tags: []string{"a", "b"}}, second)

	_, err = cache.Memoize(c, "scrape : y", time.Hour, fn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestMemoizeError(t *testing.T) {
	c := openCache(t, "")
	defer c.Close()

	boom := errors.New("boom")
	_, err := cache.Memoize(c, "k", time.Hour, func(string) (*page, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	// failures are not cached
	got, err := cache.Memoize(c, "k", time.Hour, func(string) (*page, error) { return &page{Title: "ok"}, nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Title)
}

func TestMemoizeExpired(t *testing.T) {
	c := openCache(t, "")
	defer c.Close()

	calls := 0
	fn := func(string) (*page, error) {
		calls++
		return &page{}, nil
	}

	_, err := cache.Memoize(c, "k", time.Second, fn)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	_, err = cache.Memoize(c, "k", time.Second, fn)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()

	c := openCache(t, dir)
	_, err := cache.Memoize(c, "k", time.Hour, func(string) (*[]string, error) {
		return &[]string{"one.png"}, nil
	})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c = openCache(t, dir)
	defer c.Close()
	got, err := cache.Memoize(c, "k", time.Hour, func(string) (*[]string, error) {
		t.Fatal("value should come from disk")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one.png"}, *got)
}
