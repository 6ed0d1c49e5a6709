package store

import (
	"context"
	"errors"
	"time"

	"sjsage522/newsharvester/internal/crawler"
)

// ErrNotFound is returned by Get when no article has the given source URL
var ErrNotFound = errors.New("article not found")

// Article is a persisted ScrapedArticle with its store metadata
type Article struct {
	ID string
	crawler.ScrapedArticle
	CreatedAt time.Time
}

// Store is the only write path from the pipeline into the article table
type Store interface {
	// Exists reports whether an article with sourceURL is already stored
	Exists(ctx context.Context, sourceURL string) (bool, error)

	// Insert stores a unless its source URL is already present.
	// inserted is false, with a nil error, for a duplicate.
	Insert(ctx context.Context, a *crawler.ScrapedArticle) (id string, inserted bool, err error)

	// Get loads one article by source URL
	Get(ctx context.Context, sourceURL string) (*Article, error)

	// Count returns the number of stored articles
	Count(ctx context.Context) (int, error)

	// Close releases the underlying connection
	Close() error
}
