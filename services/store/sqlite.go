package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"sjsage522/newsharvester/internal/crawler"
	"sjsage522/newsharvester/logger"
	"sjsage522/newsharvester/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id TEXT PRIMARY KEY,
	source_url TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	images TEXT NOT NULL DEFAULT '[]',
	author TEXT NOT NULL DEFAULT '',
	published_at TEXT NOT NULL,
	category TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);
`

// SQLiteStore persists articles in a SQLite database
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
	log *logger.Logger
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path and its schema
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.NewPersistence(path, "failed to create database directory", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, errors.NewPersistence(path, "failed to open database", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	s := NewWithDB(db)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewPersistence(path, "failed to initialize schema", err)
	}
	s.log.Debug().Str("path", path).Msg("article schema ready")
	return s, nil
}

// NewWithDB wraps an already opened database whose schema is in place
func NewWithDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now, log: logger.ForStore()}
}

// Exists is a point lookup on the unique source_url index
func (s *SQLiteStore) Exists(ctx context.Context, sourceURL string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM articles WHERE source_url = ?`, sourceURL).Scan(&one)
	if stderrors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.NewPersistence(sourceURL, "failed to look up article", err)
	}
	return true, nil
}

// Insert adds a; a row with the same source_url is left untouched
func (s *SQLiteStore) Insert(ctx context.Context, a *crawler.ScrapedArticle) (string, bool, error) {
	images := a.Images
	if images == nil {
		images = []string{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return "", false, errors.NewPersistence(a.SourceURL, "failed to marshal images", err)
	}

	id := uuid.NewString()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (
			id, source_url, title, summary, content, image_url,
			images, author, published_at, category, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_url) DO NOTHING`,
		id,
		a.SourceURL,
		a.Title,
		a.Summary,
		a.Content,
		a.ImageURL,
		string(imagesJSON),
		a.Author,
		formatTime(a.PublishedAt),
		a.Category,
		formatTime(s.now()),
	)
	if err != nil {
		return "", false, errors.NewPersistence(a.SourceURL, "failed to insert article", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return "", false, errors.NewPersistence(a.SourceURL, "failed to read affected rows", err)
	}
	if affected == 0 {
		s.log.Debug().Str("url", a.SourceURL).Msg("source url already stored; row left untouched")
		return "", false, nil
	}
	return id, true, nil
}

// Get loads the article stored under sourceURL
func (s *SQLiteStore) Get(ctx context.Context, sourceURL string) (*Article, error) {
	var (
		a                      Article
		imagesJSON             string
		publishedAt, createdAt string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, source_url, title, summary, content, image_url,
		       images, author, published_at, category, created_at
		FROM articles
		WHERE source_url = ?`, sourceURL).Scan(
		&a.ID, &a.SourceURL, &a.Title, &a.Summary, &a.Content, &a.ImageURL,
		&imagesJSON, &a.Author, &publishedAt, &a.Category, &createdAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.NewPersistence(sourceURL, "failed to load article", err)
	}

	if err := json.Unmarshal([]byte(imagesJSON), &a.Images); err != nil {
		return nil, errors.NewPersistence(sourceURL, "failed to unmarshal images", err)
	}
	if a.PublishedAt, err = parseTime(publishedAt); err != nil {
		return nil, errors.NewPersistence(sourceURL, "invalid published_at", err)
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, errors.NewPersistence(sourceURL, "invalid created_at", err)
	}
	return &a, nil
}

// Count returns the number of stored articles
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, errors.NewPersistence("articles", "failed to count articles", err)
	}
	return n, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w", v, err)
	}
	return t, nil
}
