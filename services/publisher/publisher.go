package publisher

import (
	"context"
	"encoding/json"
	"time"
)

// Publisher represents a service for publishing ingest events
type Publisher interface {
	// Publish appends a message to the event stream under key
	Publish(ctx context.Context, key string, message []byte) error

	// TrimStreams trims the event stream to the configured maximum length
	TrimStreams(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}

// ArticleIngestedKey is the stream field carrying an ArticleIngested event
const ArticleIngestedKey = "b64_article"

// ArticleIngested is emitted once per newly persisted article
type ArticleIngested struct {
	ID          string    `json:"id"`
	SourceURL   string    `json:"source_url"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	PublishedAt time.Time `json:"published_at"`
}

// Marshal encodes the event as JSON
func (e ArticleIngested) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// NopPublisher discards every event; used when no Redis is configured
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) Publish(context.Context, string, []byte) error { return nil }

func (NopPublisher) TrimStreams(context.Context) error { return nil }

func (NopPublisher) Close() error { return nil }
