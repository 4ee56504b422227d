// Package server exposes verification, analytics and audit endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ppiankov/satyamitra/internal/model"
	"github.com/ppiankov/satyamitra/internal/pipeline"
)

// Verifier runs one verification request
type Verifier interface {
	Run(ctx context.Context, req model.Request, emit func(model.Event)) (*pipeline.Result, error)
}

// Store is the read and audit surface of persistent storage
type Store interface {
	Analytics(ctx context.Context) (*model.Analytics, error)
	DeleteHistory(ctx context.Context, role model.Role, ids []uint) (int64, error)
	Ping(ctx context.Context) error
}

// ReputationDescriber renders the reputation sentence for a URL
type ReputationDescriber interface {
	Describe(ctx context.Context, rawURL string) string
}

// RequestRecorder counts API requests (metrics)
type RequestRecorder interface {
	HTTPRequest(route string, code int)
}

// Server is the SatyaMitra HTTP API
type Server struct {
	cfg        model.ServerConfig
	verifier   Verifier
	store      Store
	reputation ReputationDescriber
	recorder   RequestRecorder
	metrics    http.Handler
	logger     *slog.Logger

	engine     *gin.Engine
	httpServer *http.Server
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics mounts handler on /metrics and reports requests to recorder
func WithMetrics(handler http.Handler, recorder RequestRecorder) Option {
	return func(s *Server) {
		s.metrics = handler
		s.recorder = recorder
	}
}

// New builds the server and its routes
func New(cfg model.ServerConfig, verifier Verifier, store Store, rep ReputationDescriber, opts ...Option) (*Server, error) {
	if verifier == nil || store == nil || rep == nil {
		return nil, errors.New("server: verifier, store and reputation are required")
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = ":8000"
	}

	s := &Server{
		cfg:        cfg,
		verifier:   verifier,
		store:      store,
		reputation: rep,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.attachRoutes()
	return s, nil
}

func (s *Server) attachRoutes() {
	if len(s.cfg.CORSOrigins) > 0 {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins:  s.cfg.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	s.engine.POST("/verify", s.handleVerify)
	s.engine.POST("/whatsapp", s.handleWhatsApp)
	s.engine.GET("/analytics", s.handleAnalytics)
	s.engine.POST("/audit/delete", s.handleAuditDelete)
	s.engine.GET("/reputation", s.handleReputation)
	s.engine.GET("/graph", s.handleGraph)
	s.engine.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics))
	}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.ListenAddr, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API listening", "addr", listener.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if s.recorder != nil {
			s.recorder.HTTPRequest(route, c.Writer.Status())
		}
		s.logger.Debug("Request served",
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"elapsed", time.Since(started))
	}
}
