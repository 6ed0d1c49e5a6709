package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"sjsage522/newsharvester/pkg/errors"
)

// maxBodyBytes caps how much of a page is read into memory
const maxBodyBytes = 5 << 20

// HTMLFetcher is the contract every scraper uses to talk to the network
type HTMLFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Fetcher performs single GET requests with browser-like headers
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// Ensure Fetcher implements HTMLFetcher
var _ HTMLFetcher = (*Fetcher)(nil)

// NewFetcher creates a fetcher with a bounded timeout and a fixed User-Agent
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// Fetch sends an HTTP GET request, converts the response body to UTF-8
// (if needed) and returns it as a string. There is no retry.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.NewNetwork(url, "failed to create request", err)
	}

	// Set browser-like headers
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "vi-VN,vi;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", errors.NewNetwork(url, "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		return "", errors.NewRateLimit(url, resp.Header.Get("Retry-After"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.NewNetwork(url, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", errors.NewNetwork(url, "failed to read response body", err)
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, certain := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))
	if strings.EqualFold(name, "utf-8") {
		return string(bodyBytes), nil
	}
	// The guess only sniffs the first 1024 bytes; an undeclared body that is valid UTF-8 stays as is
	if !certain && utf8.Valid(bodyBytes) {
		return string(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return "", errors.NewParsing(url, "failed to convert body to UTF-8", err)
	}

	return buf.String(), nil
}
