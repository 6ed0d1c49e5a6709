package admin

import (
	"context"
	"crypto/subtle"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sjsage522/newsharvester/logger"
	"sjsage522/newsharvester/services/scheduler"
	"sjsage522/newsharvester/services/worker"
)

// TokenHeader carries the admin token on /admin requests
const TokenHeader = "X-Admin-Token"

// Controller is the part of the scheduler the endpoint drives
type Controller interface {
	RunNow(limit int) error
	State() scheduler.State
	LastReport() (worker.RunReport, bool)
}

// Counter reports how many articles are stored
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Server exposes the manual trigger and status endpoints
type Server struct {
	router   *gin.Engine
	server   *http.Server
	ctl      Controller
	counter  Counter
	token    string
	maxLimit int
	log      *logger.Logger
}

// NewServer builds the router; maxLimit caps the limit a caller may request
func NewServer(addr, token string, ctl Controller, counter Counter, maxLimit int) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	s := &Server{
		router:   router,
		ctl:      ctl,
		counter:  counter,
		token:    token,
		maxLimit: maxLimit,
		log:      logger.ForAdmin(),
	}

	router.Use(gin.Recovery(), s.requestLogger())
	router.GET("/healthz", s.health)

	group := router.Group("/admin", s.requireToken())
	group.GET("/status", s.status)
	group.POST("/crawl", s.crawl)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	return s
}

// Handler returns the router, used by tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// StartAsync serves in a goroutine; the channel receives a listen error, if any
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		s.log.Info().Str("addr", s.server.Addr).Msg("admin endpoint listening")
		if err := s.server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("admin server error: %w", err)
		}
	}()
	return errCh
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("admin server shutdown error: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) status(c *gin.Context) {
	body := gin.H{"state": s.ctl.State()}

	if n, err := s.counter.Count(c.Request.Context()); err == nil {
		body["articles"] = n
	} else {
		s.log.Warn().Err(err).Msg("failed to count articles")
	}
	if report, ok := s.ctl.LastReport(); ok {
		body["last_report"] = report
	}

	c.JSON(http.StatusOK, body)
}

func (s *Server) crawl(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || (s.maxLimit > 0 && n > s.maxLimit) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limit must be between 1 and %d", s.maxLimit)})
			return
		}
		limit = n
	}

	err := s.ctl.RunNow(limit)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"status": "queued", "limit": limit})
	case stderrors.Is(err, scheduler.ErrQueueFull):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case stderrors.Is(err, scheduler.ErrNotStarted):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.GetHeader(TokenHeader)
		if s.token == "" || subtle.ConstantTimeCompare([]byte(given), []byte(s.token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("admin request")
	}
}
