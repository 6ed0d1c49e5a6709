package crawler

import "strings"

// Rule extracts one value from the first element matching Selector.
// An empty Attr reads the element text. Accept, when set, rejects values
// so the next matching element (then the next rule) is tried.
type Rule struct {
	Selector string
	Attr     string
	Accept   func(string) bool
}

// BlockGroup is one family of article-card containers on a listing page
type BlockGroup struct {
	Name     string
	Selector string
}

// ListingStrategy holds the selector tables used on listing pages.
// Block groups are walked in order until the run is full.
type ListingStrategy struct {
	Blocks    []BlockGroup
	Title     []Rule
	Link      []Rule
	Thumbnail []Rule
	Summary   []Rule
	Time      []Rule
}

// DetailStrategy holds the selector tables used on article pages
type DetailStrategy struct {
	// ContentContainers are tried in order; TextElements are collected from the first that yields text
	ContentContainers []string
	TextElements      string

	// LooseContainers and LooseTextElements are the secondary set when the primary one is empty
	LooseContainers   []string
	LooseTextElements string

	Author         []Rule
	AuthorPrefixes []string
	PublishTime    []Rule
	Summary        []Rule
	ImageAttrs     []string

	// Boilerplate lines are dropped when they contain any keyword (case-insensitive)
	Boilerplate []string
}

// DefaultListingStrategy returns the selector tables for the source's category pages
func DefaultListingStrategy() ListingStrategy {
	return ListingStrategy{
		Blocks: []BlockGroup{
			{Name: "content-grid", Selector: "section.cate-24h-foot-home-latest-list article, div.cate-24h-foot-home-latest-list__box"},
			{Name: "category-box", Selector: "div.cate-24h-foot-box-news article, div.box-news-cate article"},
			{Name: "featured", Selector: "div.cate-24h-foot-home-hot article, div.box-hot-news article, div.hot-news article"},
		},
		Title: []Rule{
			{Selector: "h3 a"},
			{Selector: "h2 a"},
			{Selector: "a[title]", Attr: "title"},
			{Selector: "a"},
		},
		Link: []Rule{
			{Selector: "h3 a", Attr: "href"},
			{Selector: "h2 a", Attr: "href"},
			{Selector: "a[href]", Attr: "href", Accept: isArticleHref},
		},
		Thumbnail: []Rule{
			{Selector: "img", Attr: "data-src", Accept: isImageSrc},
			{Selector: "img", Attr: "src", Accept: isImageSrc},
			{Selector: "[data-src]", Attr: "data-src", Accept: isImageSrc},
		},
		Summary: []Rule{
			{Selector: "p.cate-24h-foot-home-latest-list__sum"},
			{Selector: ".sapo"},
			{Selector: "p"},
		},
		Time: []Rule{
			{Selector: "time", Attr: "datetime"},
			{Selector: "time"},
			{Selector: ".cate-24h-foot-home-latest-list__time"},
		},
	}
}

// DefaultDetailStrategy returns the selector tables for the source's article pages.
// extraBoilerplate extends the built-in keyword list.
func DefaultDetailStrategy(extraBoilerplate ...string) DetailStrategy {
	boilerplate := []string{
		"xem thêm", "đọc thêm", "xem video", "quảng cáo", "bấm xem", "nguồn video",
		"read more", "advertisement", "watch video", "related articles",
	}
	for _, kw := range extraBoilerplate {
		if kw = strings.TrimSpace(kw); kw != "" {
			boilerplate = append(boilerplate, kw)
		}
	}

	return DetailStrategy{
		ContentContainers: []string{
			"#article_body",
			"article.cate-24h-foot-arti-deta-info",
			"div.cate-24h-foot-arti-deta-content",
		},
		TextElements:      "p, h2, h3, h4",
		LooseContainers:   []string{"article", "main", "div.content", "body"},
		LooseTextElements: "p",
		Author: []Rule{
			{Selector: ".cate-24h-foot-arti-deta-author"},
			{Selector: ".nguontin"},
			{Selector: "[rel=author]"},
			{Selector: "meta[name=author]", Attr: "content"},
		},
		AuthorPrefixes: []string{"by:", "by", "author:", "tác giả:", "theo"},
		PublishTime: []Rule{
			{Selector: ".cate-24h-foot-arti-deta-cre-post"},
			{Selector: "time", Attr: "datetime"},
			{Selector: "meta[property='article:published_time']", Attr: "content"},
		},
		Summary: []Rule{
			{Selector: "h2.cate-24h-foot-arti-deta-sum"},
			{Selector: "meta[name=description]", Attr: "content"},
			{Selector: "meta[property='og:description']", Attr: "content"},
		},
		ImageAttrs:  []string{"data-src", "src"},
		Boilerplate: boilerplate,
	}
}

func notDataURI(v string) bool {
	return !strings.HasPrefix(strings.ToLower(v), "data:")
}

// isImageSrc accepts a real (non-inline) URL with an image extension
func isImageSrc(v string) bool {
	return notDataURI(v) && IsImageURL(v)
}

func isArticleHref(v string) bool {
	v = strings.ToLower(v)
	return v != "#" && !strings.HasPrefix(v, "javascript:") && !strings.HasPrefix(v, "mailto:")
}
