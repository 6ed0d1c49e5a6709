package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sjsage522/newsharvester/config"
	"sjsage522/newsharvester/helpers"
	"sjsage522/newsharvester/internal/crawler"
	"sjsage522/newsharvester/logger"
	"sjsage522/newsharvester/services/admin"
	"sjsage522/newsharvester/services/cache"
	"sjsage522/newsharvester/services/dedup"
	"sjsage522/newsharvester/services/publisher"
	"sjsage522/newsharvester/services/scheduler"
	"sjsage522/newsharvester/services/store"
	"sjsage522/newsharvester/services/worker"
)

// maxManualLimit caps the item limit a manual run may ask for
const maxManualLimit = 200

func main() {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("origin", cfg.SourceOrigin).
		Strs("categories", cfg.Categories).
		Dur("crawl_interval", cfg.CrawlInterval).
		Str("crawl_schedule", cfg.CrawlSchedule).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	w, err := buildWorker(cfg, services)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build pipeline")
	}

	trigger, err := buildTrigger(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build trigger")
	}

	sched := scheduler.New(w, trigger, cfg.ItemLimit)
	if err := sched.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	var adminErr <-chan error
	var adminServer *admin.Server
	if cfg.AdminAddr != "" {
		adminServer = admin.NewServer(cfg.AdminAddr, cfg.AdminToken, sched, services.Store, maxManualLimit)
		adminErr = adminServer.StartAsync()
	}

	// Wait for shutdown signal or admin server failure
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
	case err := <-adminErr:
		if err != nil {
			log.Error().Err(err).Msg("Admin endpoint exited with error")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	if adminServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Admin endpoint shutdown failed")
		}
		shutdownCancel()
	}
	sched.Stop()
	cancel()
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Store     store.Store
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Store != nil {
		s.Store.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Initialize cache service
	if cfg.MemcacheAddr != "" {
		memcacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := memcacheService.Ping(); err != nil {
			logger.Warn("Memcache at %s not reachable yet: %v", cfg.MemcacheAddr, err)
		} else {
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
		services.Cache = memcacheService
	} else {
		services.Cache = cache.NewMemoryCache()
		logger.Info("MEMCACHE_ADDR not set, using in-process cache")
	}

	// Initialize store
	articleStore, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open article store: %w", err)
	}
	services.Store = articleStore
	logger.Info("Opened article store at %s", cfg.DatabasePath)

	// Initialize publisher
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			logger.Warn("Redis at %s not reachable yet: %v", cfg.RedisAddr, err)
		} else {
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
		services.Publisher = redisPublisher
	} else {
		services.Publisher = publisher.NopPublisher{}
		logger.Info("REDIS_ADDR not set, ingest events are not published")
	}

	return services, nil
}

// buildWorker assembles the pipeline stages
func buildWorker(cfg *config.Config, services *Services) (*worker.Worker, error) {
	loc, err := time.LoadLocation(cfg.Location)
	if err != nil {
		return nil, err
	}

	fetcher := crawler.NewGuardedFetcher(
		helpers.NewFetcher(cfg.FetchTimeout, cfg.UserAgent),
		services.Cache,
		cfg.RateLimitBlock,
	)

	return worker.NewWorker(
		crawler.NewListingScraper(fetcher, cfg.SourceOrigin, loc),
		crawler.NewDetailScraper(fetcher, cfg.SourceOrigin, loc, cfg.DefaultAuthor, cfg.BoilerplateKeywords),
		dedup.NewGate(services.Cache, services.Store, cfg.SeenTTL),
		services.Store,
		services.Publisher,
		worker.Options{
			Origin:        cfg.SourceOrigin,
			Categories:    cfg.Categories,
			CategoryDelay: cfg.CategoryDelay,
			ArticleDelay:  cfg.ArticleDelay,
			Limit:         cfg.ItemLimit,
		},
	), nil
}

// buildTrigger prefers the cron schedule over the fixed interval
func buildTrigger(cfg *config.Config) (scheduler.Trigger, error) {
	if cfg.CrawlSchedule != "" {
		trigger, err := scheduler.NewCronTrigger(cfg.CrawlSchedule)
		if err != nil {
			return nil, err
		}
		return trigger, nil
	}
	return scheduler.NewIntervalTrigger(cfg.CrawlInterval), nil
}
