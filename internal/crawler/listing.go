package crawler

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/newsharvester/helpers"
	"sjsage522/newsharvester/logger"
	"sjsage522/newsharvester/pkg/errors"
)

// ListingScraper discovers article stubs on a category page
type ListingScraper struct {
	Fetcher  helpers.HTMLFetcher
	Origin   string
	Location *time.Location
	Strategy ListingStrategy

	now func() time.Time
}

// NewListingScraper creates a listing scraper with the default strategy
func NewListingScraper(fetcher helpers.HTMLFetcher, origin string, loc *time.Location) *ListingScraper {
	return &ListingScraper{
		Fetcher:  fetcher,
		Origin:   origin,
		Location: loc,
		Strategy: DefaultListingStrategy(),
		now:      time.Now,
	}
}

// Scrape fetches run.ListingURL and collects stubs into run.
// A fetch or parse failure aborts the category; bad blocks are skipped.
func (l *ListingScraper) Scrape(ctx context.Context, run *Run) error {
	body, err := l.Fetcher.Fetch(ctx, run.ListingURL)
	if err != nil {
		return err
	}

	doc, err := Parse(body)
	if err != nil {
		return errors.NewParsing(run.ListingURL, "failed to parse listing page", err)
	}

	added := l.Collect(doc, run)
	logger.ForScraper(run.Category).Debug().
		Str("url", run.ListingURL).
		Int("stubs", added).
		Int("limit", run.Limit).
		Msg("listing scraped")
	return nil
}

// Collect walks the block groups in priority order and returns how many stubs were added
func (l *ListingScraper) Collect(doc *Document, run *Run) int {
	added := 0
	for _, group := range l.Strategy.Blocks {
		if run.Full() {
			break
		}
		doc.Find(group.Selector).EachWithBreak(func(_ int, block *goquery.Selection) bool {
			stub, ok := l.stubFrom(block)
			if ok && run.Add(stub) {
				added++
			}
			return !run.Full()
		})
	}
	return added
}

// stubFrom extracts one stub; false when title or link is missing
func (l *ListingScraper) stubFrom(block *goquery.Selection) (ArticleStub, bool) {
	title := FirstRule(block, l.Strategy.Title)
	link := Normalize(FirstRule(block, l.Strategy.Link), l.Origin)
	if title == "" || link == "" {
		return ArticleStub{}, false
	}

	category := helpers.FirstPathSegment(link)
	if category == "" {
		category = UnknownCategory
	}

	hint, ok := ParseTime(FirstRule(block, l.Strategy.Time), l.Location)
	if !ok {
		hint = l.now()
	}

	return ArticleStub{
		Title:           title,
		Link:            link,
		ThumbnailURL:    Normalize(FirstRule(block, l.Strategy.Thumbnail), l.Origin),
		Summary:         FirstRule(block, l.Strategy.Summary),
		Category:        category,
		PublishedAtHint: hint,
	}, true
}
