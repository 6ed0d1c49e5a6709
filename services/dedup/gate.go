package dedup

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	stderrors "errors"
	"time"

	"sjsage522/newsharvester/logger"
	"sjsage522/newsharvester/pkg/errors"
	"sjsage522/newsharvester/services/cache"
)

// Lookup is the part of the store the gate needs
type Lookup interface {
	Exists(ctx context.Context, sourceURL string) (bool, error)
}

// Gate decides whether a source URL was already ingested.
// The cache is a fast path only; the store's unique index is authoritative.
type Gate struct {
	cache  cache.CacheService
	lookup Lookup
	ttl    time.Duration
	log    *logger.Logger
}

// NewGate creates a gate; cacheSvc may be nil
func NewGate(cacheSvc cache.CacheService, lookup Lookup, ttl time.Duration) *Gate {
	return &Gate{
		cache:  cacheSvc,
		lookup: lookup,
		ttl:    ttl,
		log:    logger.ForCache(),
	}
}

// Exists reports whether sourceURL is already stored.
// Cache errors are logged and fall through to the store.
func (g *Gate) Exists(ctx context.Context, sourceURL string) (bool, error) {
	key := seenKey(sourceURL)

	if g.cache != nil {
		_, err := g.cache.Get(key)
		if err == nil {
			return true, nil
		}
		if !stderrors.Is(err, cache.ErrMiss) {
			g.log.Warn().Err(errors.NewCache(key, "seen cache lookup failed", err)).Str("url", sourceURL).Msg("falling back to the store")
		}
	}

	exists, err := g.lookup.Exists(ctx, sourceURL)
	if err != nil {
		return false, err
	}
	if exists {
		g.remember(key, sourceURL)
	}
	return exists, nil
}

// MarkSeen records sourceURL in the fast path after a persist
func (g *Gate) MarkSeen(_ context.Context, sourceURL string) {
	g.remember(seenKey(sourceURL), sourceURL)
}

func (g *Gate) remember(key, sourceURL string) {
	if g.cache == nil {
		return
	}
	if err := g.cache.Set(key, []byte("1"), g.ttl); err != nil {
		g.log.Warn().Err(errors.NewCache(key, "failed to mark url as seen", err)).Str("url", sourceURL).Msg("seen cache write failed")
	}
}

// seenKey hashes the URL; memcache keys are limited to 250 bytes without spaces
func seenKey(sourceURL string) string {
	sum := sha1.Sum([]byte(sourceURL))
	return "seen:" + hex.EncodeToString(sum[:])
}
