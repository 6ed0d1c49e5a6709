package crawler

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"time"

	"sjsage522/newsharvester/helpers"
	"sjsage522/newsharvester/logger"
	"sjsage522/newsharvester/pkg/errors"
	"sjsage522/newsharvester/services/cache"
)

// GuardedFetcher stops talking to a host for BlockTime once it answered
// with a rate-limit status. The block marker lives in the cache so every
// process sharing the cache honors it.
type GuardedFetcher struct {
	Fetcher   helpers.HTMLFetcher
	CacheSvc  cache.CacheService
	BlockTime time.Duration
}

// Ensure GuardedFetcher implements HTMLFetcher
var _ helpers.HTMLFetcher = (*GuardedFetcher)(nil)

// NewGuardedFetcher wraps fetcher with a cache-backed rate-limit block
func NewGuardedFetcher(fetcher helpers.HTMLFetcher, cacheSvc cache.CacheService, blockTime time.Duration) *GuardedFetcher {
	return &GuardedFetcher{
		Fetcher:   fetcher,
		CacheSvc:  cacheSvc,
		BlockTime: blockTime,
	}
}

// Fetch fetches rawURL unless its host is currently blocked
func (g *GuardedFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	key := blockKey(rawURL)

	// Check if the host is rate limited
	if g.CacheSvc != nil && key != "" {
		_, err := g.CacheSvc.Get(key)
		if err == nil {
			return "", errors.NewRateLimit(rawURL, fmt.Sprintf("%ds", int(g.BlockTime/time.Second)))
		}
		if !stderrors.Is(err, cache.ErrMiss) {
			logger.ForCache().Warn().Err(errors.NewCache(key, "failed to read rate limit block", err)).Msg("fetching without the block check")
		}
	}

	body, err := g.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if g.CacheSvc != nil && key != "" && g.BlockTime > 0 && errors.IsType(err, errors.ErrorTypeRateLimit) {
			if setErr := g.CacheSvc.Set(key, []byte(fmt.Sprintf("%d", g.BlockTime/time.Second)), g.BlockTime); setErr != nil {
				logger.ForCache().Warn().Err(errors.NewCache(key, "failed to set rate limit block", setErr)).Msg("host not blocked")
			}
		}
		return "", err
	}

	return body, nil
}

func blockKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return "rate_limited:" + u.Host
}
