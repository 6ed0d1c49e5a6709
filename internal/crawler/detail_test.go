package crawler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/newsharvester/pkg/errors"
)

const articleHTML = `
<html><head>
	<meta name="description" content="Mô tả từ meta">
</head><body>
<article class="cate-24h-foot-arti-deta-info">
	<h1>Trận đấu kịch tính</h1>
	<div class="cate-24h-foot-arti-deta-cre-post">Thứ Bảy, ngày 18/10/2026 - 09:30 AM (GMT+7)</div>
	<div id="article_body">
		<p>Đoạn mở đầu.</p>
		<p><strong>Xem thêm:</strong> Tin liên quan khác</p>
		<img data-src="/upload/a.jpg" src="data:image/gif;base64,R0lGOD">
		<h2>Diễn biến</h2>
		<p>  Đoạn   thứ hai. </p>
		<p>QUẢNG CÁO</p>
		<img src="/upload/a.jpg">
		<img src="//cdn.example/b.png?w=600">
		<img src="/upload/clip.mp4">
		<p>Đoạn kết.</p>
	</div>
	<div class="cate-24h-foot-arti-deta-author">Theo Minh Anh</div>
</article>
</body></html>
`

func newTestDetailScraper(f *mockFetcher) *DetailScraper {
	d := NewDetailScraper(f, testOrigin, time.UTC, "Tổng hợp", nil)
	d.now = fixedNow
	return d
}

func testStub() ArticleStub {
	return ArticleStub{
		Title:           "Trận đấu kịch tính",
		Link:            testOrigin + "/bong-da/tran-dau-c48a1.html",
		Category:        "bong-da",
		PublishedAtHint: time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC),
	}
}

func TestDetailScrape(t *testing.T) {
	f := newMockFetcher()
	stub := testStub()
	f.pages[stub.Link] = articleHTML

	article, err := newTestDetailScraper(f).Scrape(context.Background(), stub)
	require.NoError(t, err)

	assert.Equal(t, stub.Title, article.Title)
	assert.Equal(t, stub.Link, article.SourceURL)
	assert.Equal(t, "bong-da", article.Category)
	assert.Equal(t, "Đoạn mở đầu.\n\nDiễn biến\n\nĐoạn thứ hai.\n\nĐoạn kết.", article.Content)
	assert.Equal(t, "Minh Anh", article.Author)
	assert.True(t, time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC).Equal(article.PublishedAt))
	assert.Equal(t, "Mô tả từ meta", article.Summary)

	// Same image via data-src then src yields one entry; non-images are dropped
	assert.Equal(t, []string{
		"https://site.example/upload/a.jpg",
		"https://cdn.example/b.png?w=600",
	}, article.Images)
	assert.Equal(t, "https://site.example/upload/a.jpg", article.ImageURL)
}

func TestDetailBoilerplateFilterKeepsOrder(t *testing.T) {
	doc, err := Parse(`
		<div id="article_body">
			<p>Một</p>
			<p>Sponsored content from our partner</p>
			<p>Hai</p>
			<p>Read more: another story</p>
			<p>Ba</p>
		</div>
	`)
	require.NoError(t, err)

	d := NewDetailScraper(newMockFetcher(), testOrigin, time.UTC, "Tổng hợp", []string{"sponsored", " "})
	d.now = fixedNow
	article := d.Extract(doc, testStub())
	assert.Equal(t, "Một\n\nHai\n\nBa", article.Content)
}

func TestDetailSecondaryContainer(t *testing.T) {
	doc, err := Parse(`
		<html><body>
			<div id="article_body"><p>Advertisement</p></div>
			<main>
				<h2>Not collected by the loose set</h2>
				<p>Nội dung dự phòng.</p>
				<img src="/upload/c.jpg">
			</main>
		</body></html>
	`)
	require.NoError(t, err)

	article := newTestDetailScraper(newMockFetcher()).Extract(doc, testStub())
	assert.Equal(t, "Nội dung dự phòng.", article.Content)
	assert.Equal(t, []string{"https://site.example/upload/c.jpg"}, article.Images)
}

func TestDetailImagesFallBackToSrc(t *testing.T) {
	doc, err := Parse(`
		<div id="article_body">
			<p>Nội dung</p>
			<img data-src="/img?id=3" src="/upload/a.jpg">
			<img data-src="/upload/b.png" src="/img?id=4">
			<img data-src="/img?id=5" src="/img?id=6">
		</div>
	`)
	require.NoError(t, err)

	article := newTestDetailScraper(newMockFetcher()).Extract(doc, testStub())
	assert.Equal(t, []string{
		"https://site.example/upload/a.jpg",
		"https://site.example/upload/b.png",
	}, article.Images)
}

func TestDetailDefaults(t *testing.T) {
	doc, err := Parse(`<html><body><div class="nothing">Trang trống</div></body></html>`)
	require.NoError(t, err)

	stub := testStub()
	stub.Summary = "Tóm tắt từ danh sách"
	stub.ThumbnailURL = "https://cdn.example/thumb.jpg"

	article := newTestDetailScraper(newMockFetcher()).Extract(doc, stub)

	// Every strategy failed: content falls back to the summary
	assert.Equal(t, "Tóm tắt từ danh sách", article.Content)
	assert.Equal(t, "Tổng hợp", article.Author)
	assert.Equal(t, stub.PublishedAtHint, article.PublishedAt)
	assert.Equal(t, "https://cdn.example/thumb.jpg", article.ImageURL)
	assert.Empty(t, article.Images)
}

func TestDetailFallsBackToNowWithoutHint(t *testing.T) {
	doc, err := Parse(`<html><body><p>Nội dung</p></body></html>`)
	require.NoError(t, err)

	stub := testStub()
	stub.PublishedAtHint = time.Time{}

	article := newTestDetailScraper(newMockFetcher()).Extract(doc, stub)
	assert.Equal(t, fixedNow(), article.PublishedAt)
	assert.Equal(t, "Nội dung", article.Content)
}

func TestDetailFetchFailure(t *testing.T) {
	f := newMockFetcher()
	stub := testStub()
	f.errs[stub.Link] = errors.NewNetwork(stub.Link, "unexpected status code: 500", nil)

	article, err := newTestDetailScraper(f).Scrape(context.Background(), stub)
	assert.Nil(t, article)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "500"))
}

func TestStripAuthorPrefix(t *testing.T) {
	prefixes := DefaultDetailStrategy().AuthorPrefixes

	testCases := []struct {
		raw      string
		expected string
	}{
		{"By: Jane Doe", "Jane Doe"},
		{"by John", "John"},
		{"Author: Lan", "Lan"},
		{"Tác giả: Hùng", "Hùng"},
		{"Theo Minh Anh", "Minh Anh"},
		{"Theodore Nguyen", "Theodore Nguyen"},
		{"  Lan Hương ", "Lan Hương"},
		{"", ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, stripAuthorPrefix(tc.raw, prefixes), tc.raw)
	}
}
