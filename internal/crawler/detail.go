package crawler

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/newsharvester/helpers"
	"sjsage522/newsharvester/pkg/errors"
)

// DetailScraper turns a stub into a full article by fetching its page
type DetailScraper struct {
	Fetcher       helpers.HTMLFetcher
	Origin        string
	Location      *time.Location
	DefaultAuthor string
	Strategy      DetailStrategy

	now func() time.Time
}

// NewDetailScraper creates a detail scraper with the default strategy
func NewDetailScraper(fetcher helpers.HTMLFetcher, origin string, loc *time.Location, defaultAuthor string, extraBoilerplate []string) *DetailScraper {
	return &DetailScraper{
		Fetcher:       fetcher,
		Origin:        origin,
		Location:      loc,
		DefaultAuthor: defaultAuthor,
		Strategy:      DefaultDetailStrategy(extraBoilerplate...),
		now:           time.Now,
	}
}

// Scrape fetches stub.Link and extracts the article
func (d *DetailScraper) Scrape(ctx context.Context, stub ArticleStub) (*ScrapedArticle, error) {
	body, err := d.Fetcher.Fetch(ctx, stub.Link)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(body)
	if err != nil {
		return nil, errors.NewParsing(stub.Link, "failed to parse article page", err)
	}

	return d.Extract(doc, stub), nil
}

// Extract builds a normalized article from a parsed page and its stub.
// Missing fields fall back to defaults; it never fails.
func (d *DetailScraper) Extract(doc *Document, stub ArticleStub) *ScrapedArticle {
	container, paragraphs := d.content(doc, d.Strategy.ContentContainers, d.Strategy.TextElements)
	if len(paragraphs) == 0 {
		container, paragraphs = d.content(doc, d.Strategy.LooseContainers, d.Strategy.LooseTextElements)
	}

	summary := stub.Summary
	if summary == "" {
		summary = doc.FirstMatch(d.Strategy.Summary)
	}

	publishedAt, ok := ParseTime(doc.FirstMatch(d.Strategy.PublishTime), d.Location)
	if !ok {
		publishedAt = stub.PublishedAtHint
	}

	article := &ScrapedArticle{
		Title:       stub.Title,
		SourceURL:   stub.Link,
		Summary:     summary,
		Content:     strings.Join(paragraphs, "\n\n"),
		ImageURL:    stub.ThumbnailURL,
		Images:      d.images(container),
		Author:      stripAuthorPrefix(doc.FirstMatch(d.Strategy.Author), d.Strategy.AuthorPrefixes),
		PublishedAt: publishedAt,
		Category:    stub.Category,
	}

	NormalizeArticle(article, d.Origin, d.DefaultAuthor, d.now())
	return article
}

// content returns the first container among selectors whose text elements
// survive the boilerplate filter, together with those lines in order
func (d *DetailScraper) content(doc *Document, selectors []string, elements string) (*goquery.Selection, []string) {
	for _, sel := range selectors {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}

		var lines []string
		container.Find(elements).Each(func(_ int, el *goquery.Selection) {
			text := helpers.CollapseSpace(el.Text())
			if text == "" || d.isBoilerplate(text) {
				return
			}
			lines = append(lines, text)
		})
		if len(lines) > 0 {
			return container, lines
		}
	}
	return nil, nil
}

func (d *DetailScraper) isBoilerplate(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range d.Strategy.Boilerplate {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// images collects in-body image URLs, first attribute that holds a real URL wins
func (d *DetailScraper) images(container *goquery.Selection) []string {
	if container == nil {
		return nil
	}

	var urls []string
	container.Find("img").Each(func(_ int, img *goquery.Selection) {
		for _, attr := range d.Strategy.ImageAttrs {
			v, _ := img.Attr(attr)
			v = strings.TrimSpace(v)
			if v == "" || !notDataURI(v) {
				continue
			}
			abs := Normalize(v, d.Origin)
			if !IsImageURL(abs) {
				continue
			}
			urls = append(urls, abs)
			return
		}
	})
	return dedupe(urls)
}

func stripAuthorPrefix(author string, prefixes []string) string {
	author = strings.TrimSpace(author)
	lower := strings.ToLower(author)
	for _, p := range prefixes {
		if !strings.HasPrefix(lower, p) || len(lower) != len(author) {
			continue
		}
		rest := author[len(p):]
		// "theo" must not eat the start of a name such as "Theodore"
		if !strings.HasSuffix(p, ":") && rest != "" && !strings.HasPrefix(rest, " ") && !strings.HasPrefix(rest, ":") {
			continue
		}
		return strings.TrimSpace(strings.TrimLeft(rest, ": "))
	}
	return author
}
