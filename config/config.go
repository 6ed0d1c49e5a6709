package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"sjsage522/newsharvester/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Source site
	SourceOrigin string
	Categories   []string
	Location     string

	// Scheduling
	CrawlInterval time.Duration
	CrawlSchedule string
	CategoryDelay time.Duration
	ArticleDelay  time.Duration
	ItemLimit     int

	// Fetching
	FetchTimeout        time.Duration
	UserAgent           string
	RateLimitBlock      time.Duration
	DefaultAuthor       string
	BoilerplateKeywords []string

	// Storage
	DatabasePath string

	// Memcache configuration
	MemcacheAddr string
	SeenTTL      time.Duration

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Admin endpoint
	AdminAddr  string
	AdminToken string

	// Environment
	Environment string
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "10000"))
	crawlInterval, _ := strconv.Atoi(getEnv("CRAWL_INTERVAL_SECONDS", "1800"))
	categoryDelay, _ := strconv.Atoi(getEnv("CATEGORY_DELAY_SECONDS", "5"))
	articleDelay, _ := strconv.Atoi(getEnv("ARTICLE_DELAY_MILLIS", "1000"))
	itemLimit, _ := strconv.Atoi(getEnv("CRAWL_ITEM_LIMIT", "20"))
	fetchTimeout, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "15"))
	blockTime, _ := strconv.Atoi(getEnv("RATE_LIMIT_BLOCK_SECONDS", "300"))
	seenTTL, _ := strconv.Atoi(getEnv("SEEN_TTL_SECONDS", "86400"))

	return &Config{
		SourceOrigin:         strings.TrimRight(getEnv("NEWS_SOURCE_ORIGIN", "https://www.24h.com.vn"), "/"),
		Categories:           splitList(getEnv("NEWS_CATEGORIES", "tin-tuc-trong-ngay,bong-da,kinh-doanh,giai-tri,cong-nghe-thong-tin")),
		Location:             getEnv("NEWS_LOCATION", "Asia/Ho_Chi_Minh"),
		CrawlInterval:        time.Duration(crawlInterval) * time.Second,
		CrawlSchedule:        getEnv("CRAWL_SCHEDULE", ""),
		CategoryDelay:        time.Duration(categoryDelay) * time.Second,
		ArticleDelay:         time.Duration(articleDelay) * time.Millisecond,
		ItemLimit:            itemLimit,
		FetchTimeout:         time.Duration(fetchTimeout) * time.Second,
		UserAgent:            getEnv("FETCH_USER_AGENT", defaultUserAgent),
		RateLimitBlock:       time.Duration(blockTime) * time.Second,
		DefaultAuthor:        getEnv("DEFAULT_AUTHOR", "Tổng hợp"),
		BoilerplateKeywords:  splitList(getEnv("BOILERPLATE_KEYWORDS", "")),
		DatabasePath:         getEnv("DATABASE_PATH", "./data/articles.db"),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		SeenTTL:              time.Duration(seenTTL) * time.Second,
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "news:ingested"),
		RedisStreamMaxLength: streamMaxLength,
		AdminAddr:            getEnv("ADMIN_ADDR", ""),
		AdminToken:           getEnv("ADMIN_TOKEN", ""),
		Environment:          getEnv("NEWS_ENVIRONMENT", "development"),
	}
}

// Validate checks the values the pipeline cannot run without
func (c *Config) Validate() error {
	origin, err := url.Parse(c.SourceOrigin)
	if err != nil || origin.Host == "" || (origin.Scheme != "http" && origin.Scheme != "https") {
		return errors.NewConfiguration("NEWS_SOURCE_ORIGIN must be an absolute http(s) URL", err)
	}
	if len(c.Categories) == 0 {
		return errors.NewConfiguration("NEWS_CATEGORIES must list at least one category", nil)
	}
	if c.CrawlSchedule == "" && c.CrawlInterval <= 0 {
		return errors.NewConfiguration("CRAWL_INTERVAL_SECONDS must be positive", nil)
	}
	if c.ItemLimit <= 0 {
		return errors.NewConfiguration("CRAWL_ITEM_LIMIT must be positive", nil)
	}
	if c.FetchTimeout <= 0 {
		return errors.NewConfiguration("FETCH_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.CategoryDelay < 0 || c.ArticleDelay < 0 {
		return errors.NewConfiguration("delays must not be negative", nil)
	}
	if _, err := time.LoadLocation(c.Location); err != nil {
		return errors.NewConfiguration("NEWS_LOCATION is not a known time zone", err)
	}
	if c.DatabasePath == "" {
		return errors.NewConfiguration("DATABASE_PATH is required", nil)
	}
	if c.AdminAddr != "" && c.AdminToken == "" {
		return errors.NewConfiguration("ADMIN_TOKEN is required when ADMIN_ADDR is set", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// splitList splits a comma separated value, dropping blanks
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
