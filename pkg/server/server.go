// Package server exposes the bridge over HTTP: executor-facing delivery and
// completion endpoints, and backend-facing typed capability endpoints.
// Transport concerns (encoding, routing) live here; the relay core in
// pkg/bridge stays wire-agnostic.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/entrhq/bridge/pkg/bridge"
	"github.com/entrhq/bridge/pkg/capability/browser"
	"github.com/entrhq/bridge/pkg/capability/browserinfo"
	"github.com/entrhq/bridge/pkg/config"
	"github.com/entrhq/bridge/pkg/logging"
	"github.com/entrhq/bridge/pkg/version"
)

// Server wires the Hub, the capability adapters, and the method allowlist
// into one HTTP surface.
type Server struct {
	cfg     *config.Config
	hub     *bridge.Hub
	matcher *config.MethodMatcher

	browserInfo *browserinfo.Service
	browser     *browser.Service

	log *logging.Logger

	mu        sync.Mutex
	startedAt time.Time
}

// New creates a Server around an existing Hub. The Hub is shared state
// constructed once at startup; the Server never owns its lifetime.
func New(cfg *config.Config, hub *bridge.Hub) (*Server, error) {
	matcher, err := cfg.MethodMatcher()
	if err != nil {
		return nil, err
	}

	logger, _ := logging.NewLogger("server")

	return &Server{
		cfg:         cfg,
		hub:         hub,
		matcher:     matcher,
		browserInfo: browserinfo.NewService(hub, cfg.Capabilities.Timeout),
		browser:     browser.NewService(hub, cfg.Capabilities.Timeout),
		log:         logger,
	}, nil
}

// Handler returns the routed HTTP handler for the whole service surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Executor-facing boundary.
	mux.HandleFunc("GET /v1/executor/requests/stream", s.handleSubscribeRequests)
	mux.HandleFunc("GET /v1/executor/requests/next", s.handleWaitForRequest)
	mux.HandleFunc("POST /v1/executor/complete", s.handleComplete)

	// Backend-facing boundary.
	mux.HandleFunc("POST /v1/bridge/invoke", s.handleInvoke)
	mux.HandleFunc("POST /v1/browser-info/context-data", s.handleContextData)
	mux.HandleFunc("POST /v1/browser/navigate", s.handleNavigate)
	mux.HandleFunc("POST /v1/browser/extract-content", s.handleExtractContent)

	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/version", s.handleVersion)

	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.log.Infof("listening on %s", s.cfg.Server.ListenAddr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

type statusResponse struct {
	Status            string `json:"status"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
	ExecutorConnected bool   `json:"executor_connected"`
	BacklogLength     int    `json:"backlog_length"`
	PendingRequests   int    `json:"pending_requests"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	startedAt := s.startedAt
	s.mu.Unlock()

	uptime := int64(0)
	if !startedAt.IsZero() {
		uptime = int64(time.Since(startedAt).Seconds())
	}

	s.writeJSON(w, http.StatusOK, statusResponse{
		Status:            "ok",
		UptimeSeconds:     uptime,
		ExecutorConnected: s.hub.HasSubscriber(),
		BacklogLength:     s.hub.BacklogLen(),
		PendingRequests:   s.hub.PendingLen(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, version.Get())
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warnf("failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
