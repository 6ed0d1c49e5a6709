package crawler

import "time"

// UnknownCategory is used when a link carries no path segment
const UnknownCategory = "unknown"

// ArticleStub is a minimal article reference discovered on a listing page
type ArticleStub struct {
	Title           string    `json:"title"`
	Link            string    `json:"link"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	Summary         string    `json:"summary,omitempty"`
	Category        string    `json:"category"`
	PublishedAtHint time.Time `json:"published_at_hint"`
}

// ScrapedArticle is the persisted unit produced by the detail phase
type ScrapedArticle struct {
	Title       string    `json:"title"`
	SourceURL   string    `json:"source_url"`
	Summary     string    `json:"summary"`
	Content     string    `json:"content"`
	ImageURL    string    `json:"image_url,omitempty"`
	Images      []string  `json:"images"`
	Author      string    `json:"author"`
	PublishedAt time.Time `json:"published_at"`
	Category    string    `json:"category"`
}

// Run carries the state of one listing pass over a single category.
// It replaces shared counters: every stage receives the run it works for.
type Run struct {
	Category   string
	ListingURL string
	Limit      int
	StartedAt  time.Time
	Stubs      []ArticleStub

	links map[string]struct{}
}

// NewRun creates the accumulator for one category pass
func NewRun(category, listingURL string, limit int, startedAt time.Time) *Run {
	return &Run{
		Category:   category,
		ListingURL: listingURL,
		Limit:      limit,
		StartedAt:  startedAt,
		links:      make(map[string]struct{}),
	}
}

// Full reports whether the run has reached its limit
func (r *Run) Full() bool {
	return r.Limit > 0 && len(r.Stubs) >= r.Limit
}

// Add appends stub unless the run is full or the link was already collected
func (r *Run) Add(stub ArticleStub) bool {
	if r.Full() {
		return false
	}
	if r.links == nil {
		r.links = make(map[string]struct{})
	}
	if _, dup := r.links[stub.Link]; dup {
		return false
	}
	r.links[stub.Link] = struct{}{}
	r.Stubs = append(r.Stubs, stub)
	return true
}
