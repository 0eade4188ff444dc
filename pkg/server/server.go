package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/gokaycavdar/go-urlguard/pkg/metrics"
	"github.com/gokaycavdar/go-urlguard/pkg/storage"
	"github.com/gokaycavdar/go-urlguard/pkg/widget"
)

// Config holds the HTTP layer settings.
type Config struct {
	RateLimit     float64 // requests per second across /api, <= 0 disables
	RateBurst     int
	SessionTTL    time.Duration
	SweepInterval time.Duration
}

// Server is the HTTP + WebSocket surface through which a presentation layer
// drives widget sessions.
type Server struct {
	cfg      Config
	analyzer widget.Analyzer
	store    storage.SessionStore
	metrics  *metrics.Collector
	logger   *logrus.Logger
	router   *gin.Engine
	upgrader websocket.Upgrader
}

// New wires the routes. collector may be nil to disable /metrics.
func New(cfg Config, analyzer widget.Analyzer, store storage.SessionStore, collector *metrics.Collector, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		store:    store,
		metrics:  collector,
		logger:   logger,
		router:   gin.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The widget is usually served from another origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api/v1")
	if s.cfg.RateLimit > 0 {
		api.Use(rateLimit(rate.NewLimiter(rate.Limit(s.cfg.RateLimit), max(1, s.cfg.RateBurst))))
	}
	api.POST("/analyze", s.handleAnalyze)
	api.POST("/sessions", s.handleCreateSession)
	api.GET("/sessions/:id", s.handleGetSession)
	api.DELETE("/sessions/:id", s.handleDeleteSession)
	api.PUT("/sessions/:id/url", s.handleSetURL)
	api.POST("/sessions/:id/run", s.handleRun)
	api.POST("/sessions/:id/keys", s.handleKey)
	api.GET("/sessions/:id/events", s.handleEvents)
}

// ServeHTTP lets the server be used directly as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RunSweeper expires idle sessions until ctx is done.
func (s *Server) RunSweeper(ctx context.Context) {
	if s.cfg.SweepInterval <= 0 || s.cfg.SessionTTL <= 0 {
		return
	}
	t := time.NewTicker(s.cfg.SweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.store.Sweep(s.cfg.SessionTTL); n > 0 {
				s.logger.WithField("expired", n).Info("expired idle sessions")
			}
		}
	}
}

func (s *Server) newWidget() *widget.Widget {
	opts := []widget.Option{widget.WithLogger(s.logger)}
	if s.metrics != nil {
		opts = append(opts, widget.WithObserver(s.metrics))
	}
	return widget.New(s.analyzer, opts...)
}

// session resolves :id or writes a 404.
func (s *Server) session(c *gin.Context) (*widget.Widget, bool) {
	w, err := s.store.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
		}
		return nil, false
	}
	return w, true
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := s.logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request served")
	}
}

func rateLimit(l *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func isEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}
