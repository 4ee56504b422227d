// Package tool serves the domain reputation lookup as a standalone callable tool.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/satyamitra/internal/llm"
)

// ReputationName is the tool name exposed to callers
const ReputationName = "check_domain_reputation"

const defaultListenAddr = "127.0.0.1:7081"

// Describer answers reputation queries
type Describer interface {
	Describe(ctx context.Context, rawURL string) string
}

// Config controls the tool server runtime
type Config struct {
	ListenAddr string
	AuthToken  string
	Logger     *slog.Logger
}

// Server exposes the reputation archive through a small MCP-style HTTP API
type Server struct {
	describer  Describer
	cfg        Config
	httpServer *http.Server
	mux        *http.ServeMux
}

// NewServer constructs a server answering from describer
func NewServer(cfg Config, describer Describer) (*Server, error) {
	if describer == nil {
		return nil, errors.New("tool: reputation describer is required")
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{describer: describer, cfg: cfg, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /healthz", s.wrapAuth(s.handleHealth))
	s.mux.HandleFunc("GET /v1/tools", s.wrapAuth(s.handleList))
	s.mux.HandleFunc("POST /v1/tools/"+ReputationName, s.wrapAuth(s.handleReputation))
	return s, nil
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins serving requests until the context is cancelled or Stop is called
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("tool: listen %s: %w", s.cfg.ListenAddr, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.cfg.Logger.Info("Reputation tool listening", "addr", listener.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) wrapAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := strings.TrimSpace(s.cfg.AuthToken); token != "" {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")) != token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	base := "http://" + r.Host
	writeJSON(w, http.StatusOK, map[string]any{"tools": []*llm.Tool{NewReputationTool(base, "")}})
}

// ReputationRequest is the tool call body
type ReputationRequest struct {
	URL string `json:"url"`
}

// ReputationResponse is the tool call result
type ReputationResponse struct {
	Result string `json:"result"`
}

func (s *Server) handleReputation(w http.ResponseWriter, r *http.Request) {
	var req ReputationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return
	}

	result := s.describer.Describe(r.Context(), req.URL)
	s.cfg.Logger.Debug("Reputation tool call", "url", req.URL)
	writeJSON(w, http.StatusOK, ReputationResponse{Result: result})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
