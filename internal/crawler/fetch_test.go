package crawler

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/newsharvester/pkg/errors"
)

func TestGuardedFetcherBlocksAfterRateLimit(t *testing.T) {
	mockCache := NewMockCacheService()
	f := newMockFetcher()
	limited := testOrigin + "/bong-da"
	f.errs[limited] = errors.NewRateLimit(limited, "120")
	f.pages[testOrigin+"/kinh-doanh"] = "<html></html>"

	g := NewGuardedFetcher(f, mockCache, 300*time.Second)

	_, err := g.Fetch(context.Background(), limited)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeRateLimit))

	// The host is now blocked for every path
	_, ok := mockCache.cache["rate_limited:site.example"]
	require.True(t, ok)
	assert.Equal(t, 300*time.Second, mockCache.ttl["rate_limited:site.example"])

	_, err = g.Fetch(context.Background(), testOrigin+"/kinh-doanh")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeRateLimit))
	assert.Equal(t, 1, f.calls())
}

func TestGuardedFetcherPassesThrough(t *testing.T) {
	mockCache := NewMockCacheService()
	f := newMockFetcher()
	f.pages[testOrigin+"/a"] = "<p>ok</p>"
	f.errs[testOrigin+"/b"] = errors.NewNetwork(testOrigin+"/b", "unexpected status code: 500", nil)

	g := NewGuardedFetcher(f, mockCache, time.Minute)

	body, err := g.Fetch(context.Background(), testOrigin+"/a")
	require.NoError(t, err)
	assert.Equal(t, "<p>ok</p>", body)

	// Plain network errors do not block the host
	_, err = g.Fetch(context.Background(), testOrigin+"/b")
	require.Error(t, err)
	assert.Empty(t, mockCache.cache)

	_, err = g.Fetch(context.Background(), testOrigin+"/a")
	assert.NoError(t, err)
}

func TestGuardedFetcherWithoutCache(t *testing.T) {
	f := newMockFetcher()
	f.pages[testOrigin+"/a"] = "ok"

	body, err := NewGuardedFetcher(f, nil, time.Minute).Fetch(context.Background(), testOrigin+"/a")
	require.NoError(t, err)
	assert.Equal(t, "ok", body)
}

// unreachableCache fails every call with a transport error
type unreachableCache struct{}

func (unreachableCache) Get(string) ([]byte, error) { return nil, stderrors.New("connection refused") }
func (unreachableCache) Set(string, []byte, time.Duration) error {
	return stderrors.New("connection refused")
}
func (unreachableCache) Delete(string) error { return stderrors.New("connection refused") }

func TestGuardedFetcherCacheDown(t *testing.T) {
	f := newMockFetcher()
	f.pages[testOrigin+"/a"] = "ok"
	limited := testOrigin + "/b"
	f.errs[limited] = errors.NewRateLimit(limited, "")

	g := NewGuardedFetcher(f, unreachableCache{}, time.Minute)

	// A broken cache neither blocks nor fails the fetch
	body, err := g.Fetch(context.Background(), testOrigin+"/a")
	require.NoError(t, err)
	assert.Equal(t, "ok", body)

	_, err = g.Fetch(context.Background(), limited)
	assert.True(t, errors.IsType(err, errors.ErrorTypeRateLimit))
	assert.Equal(t, 2, f.calls())
}
