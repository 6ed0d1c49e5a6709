package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/newsharvester/config"
	"sjsage522/newsharvester/helpers"
	"sjsage522/newsharvester/internal/crawler"
	"sjsage522/newsharvester/services/cache"
	"sjsage522/newsharvester/services/dedup"
	"sjsage522/newsharvester/services/publisher"
	"sjsage522/newsharvester/services/scheduler"
	"sjsage522/newsharvester/services/store"
	"sjsage522/newsharvester/services/worker"
)

const siteListing = `
<html><body>
<section class="cate-24h-foot-home-latest-list">
	<article>
		<h3><a href="/thoi-su/bao-so-7-c46a1.html">Bão số 7 đổ bộ</a></h3>
		<img data-src="/upload/bao.jpg">
		<p class="cate-24h-foot-home-latest-list__sum">Tin bão mới nhất</p>
		<time datetime="2026-10-18T07:00:00Z">07:00</time>
	</article>
	<article>
		<h3><a href="/thoi-su/giao-thong-c46a2.html">Ùn tắc giao thông</a></h3>
		<span class="cate-24h-foot-home-latest-list__time">18/10/2026 - 06:45</span>
	</article>
</section>
</body></html>
`

const siteArticle = `
<html><head><meta name="description" content="Mô tả bài viết"></head><body>
<article class="cate-24h-foot-arti-deta-info">
	<div class="cate-24h-foot-arti-deta-cre-post">18/10/2026 - 08:10</div>
	<div id="article_body">
		<p>Nội dung chính.</p>
		<p>Đọc thêm: bài khác</p>
		<img src="/upload/noi-dung.png">
	</div>
	<div class="cate-24h-foot-arti-deta-author">Theo Thu Trang</div>
</article>
</body></html>
`

// newsSite serves one listing page and two articles; the second article
// fails with a 500 the first time it is requested
func newsSite(t *testing.T) *httptest.Server {
	t.Helper()
	var trafficHits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/thoi-su", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(siteListing))
	})
	mux.HandleFunc("/thoi-su/bao-so-7-c46a1.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(siteArticle))
	})
	mux.HandleFunc("/thoi-su/giao-thong-c46a2.html", func(w http.ResponseWriter, r *http.Request) {
		if trafficHits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(siteArticle))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publisher.ArticleIngested
	trims  int
}

var _ publisher.Publisher = (*recordingPublisher)(nil)

func (p *recordingPublisher) Publish(_ context.Context, _ string, message []byte) error {
	var event publisher.ArticleIngested
	if err := json.Unmarshal(message, &event); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) TrimStreams(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trims++
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestPipelineEndToEnd(t *testing.T) {
	site := newsSite(t)

	articleStore, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "data", "articles.db"))
	require.NoError(t, err)
	defer articleStore.Close()

	memory := cache.NewMemoryCache()
	fetcher := crawler.NewGuardedFetcher(helpers.NewFetcher(5*time.Second, "test-agent"), memory, time.Minute)
	pub := &recordingPublisher{}

	w := worker.NewWorker(
		crawler.NewListingScraper(fetcher, site.URL, time.UTC),
		crawler.NewDetailScraper(fetcher, site.URL, time.UTC, "Tòa soạn", nil),
		dedup.NewGate(memory, articleStore, time.Hour),
		articleStore,
		pub,
		worker.Options{Origin: site.URL, Categories: []string{"thoi-su"}, Limit: 10},
	)
	ctx := context.Background()

	// First run: one article persisted, the failing one is dropped
	first := w.Run(ctx, 0)
	require.Len(t, first.Categories, 1)
	assert.Equal(t, 2, first.Categories[0].Discovered)
	assert.Equal(t, 1, first.Persisted())
	assert.Equal(t, 1, first.Failed())

	stored, err := articleStore.Get(ctx, site.URL+"/thoi-su/bao-so-7-c46a1.html")
	require.NoError(t, err)
	assert.Equal(t, "Bão số 7 đổ bộ", stored.Title)
	assert.Equal(t, "thoi-su", stored.Category)
	assert.Equal(t, "Thu Trang", stored.Author)
	assert.Equal(t, "Tin bão mới nhất", stored.Summary)
	assert.Equal(t, "Nội dung chính.", stored.Content)
	assert.Equal(t, []string{site.URL + "/upload/noi-dung.png"}, stored.Images)
	assert.Equal(t, site.URL+"/upload/bao.jpg", stored.ImageURL)
	assert.True(t, time.Date(2026, 10, 18, 8, 10, 0, 0, time.UTC).Equal(stored.PublishedAt))

	// Second run: the stored article is skipped and the dropped one is retried
	second := w.Run(ctx, 0)
	assert.Equal(t, 1, second.Persisted())
	assert.Equal(t, 0, second.Failed())
	assert.Equal(t, 1, second.Categories[0].Skipped)

	// Third run: nothing new
	third := w.Run(ctx, 0)
	assert.Equal(t, 0, third.Persisted())
	assert.Equal(t, 2, third.Categories[0].Skipped)

	count, err := articleStore.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.events, 2)
	assert.Equal(t, stored.ID, pub.events[0].ID)
	assert.Equal(t, site.URL+"/thoi-su/giao-thong-c46a2.html", pub.events[1].SourceURL)
	assert.Equal(t, 3, pub.trims)
}

func TestBuildTrigger(t *testing.T) {
	_, err := buildTrigger(&config.Config{CrawlSchedule: "not a schedule"})
	assert.Error(t, err)

	trigger, err := buildTrigger(&config.Config{CrawlSchedule: "0 */2 * * *"})
	require.NoError(t, err)
	assert.IsType(t, &scheduler.CronTrigger{}, trigger)

	trigger, err = buildTrigger(&config.Config{CrawlInterval: time.Hour})
	require.NoError(t, err)
	assert.IsType(t, &scheduler.IntervalTrigger{}, trigger)
}
