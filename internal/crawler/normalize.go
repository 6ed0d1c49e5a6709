package crawler

import (
	"net/url"
	"path"
	"strings"
	"time"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".avif": true,
	".svg":  true,
}

// Normalize turns a possibly relative URL into an absolute one against origin.
// Rules, in order: http(s) URLs are returned unchanged, "//" gets "https:",
// "/" gets the origin, anything else gets origin + "/".
func Normalize(raw, origin string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	origin = strings.TrimRight(origin, "/")

	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return raw
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return origin + raw
	default:
		return origin + "/" + raw
	}
}

// IsImageURL reports whether u names an accepted image type.
// Only the path is inspected; query and fragment are ignored.
func IsImageURL(u string) bool {
	p := u
	if parsed, err := url.Parse(strings.TrimSpace(u)); err == nil {
		p = parsed.Path
	}
	return imageExtensions[strings.ToLower(path.Ext(p))]
}

// dedupe drops repeated values keeping the first occurrence
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// NormalizeArticle enforces the invariants of a persisted article:
// absolute deduplicated images, a cover image, content, an author and a valid time.
func NormalizeArticle(a *ScrapedArticle, origin, defaultAuthor string, now time.Time) {
	a.Title = strings.TrimSpace(a.Title)
	a.SourceURL = Normalize(a.SourceURL, origin)

	images := make([]string, 0, len(a.Images))
	for _, img := range a.Images {
		if abs := Normalize(img, origin); abs != "" && IsImageURL(abs) {
			images = append(images, abs)
		}
	}
	a.Images = dedupe(images)

	a.ImageURL = Normalize(a.ImageURL, origin)
	if a.ImageURL == "" && len(a.Images) > 0 {
		a.ImageURL = a.Images[0]
	}

	if strings.TrimSpace(a.Content) == "" {
		a.Content = a.Summary
	}
	if strings.TrimSpace(a.Author) == "" {
		a.Author = defaultAuthor
	}
	if a.Category == "" {
		a.Category = UnknownCategory
	}
	if a.PublishedAt.IsZero() {
		a.PublishedAt = now
	}
}
