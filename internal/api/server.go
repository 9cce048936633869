// SPDX-License-Identifier: MIT

// Package api provides the HTTP surface of the u2a daemon.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/u2a/internal/api/middleware"
	"github.com/ManuGH/u2a/internal/config"
	"github.com/ManuGH/u2a/internal/ffmpeg"
	"github.com/ManuGH/u2a/internal/resolve"
	"github.com/ManuGH/u2a/internal/segment"
)

// Server wires the resolver, transcoder and segmenter behind HTTP handlers.
// Requests are independent; the only shared state is the temp file ledger.
type Server struct {
	cfg        config.AppConfig
	resolver   *resolve.Resolver
	transcoder ffmpeg.Transcoder
	cutter     *segment.Cutter
	ledger     *segment.Ledger
	upstream   *http.Client // streaming fetches; deliberately no timeout
	logger     zerolog.Logger
}

// New builds a Server from its collaborators.
func New(cfg config.AppConfig, resolver *resolve.Resolver, transcoder ffmpeg.Transcoder,
	cutter *segment.Cutter, ledger *segment.Ledger, logger zerolog.Logger) *Server {
	return &Server{
		cfg:        cfg,
		resolver:   resolver,
		transcoder: transcoder,
		cutter:     cutter,
		ledger:     ledger,
		upstream:   &http.Client{},
		logger:     logger,
	}
}

// Handler returns the routed HTTP handler with the canonical middleware
// stack applied.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		RateLimitEnabled: s.cfg.RateLimitEnabled,
		RateLimitRPM:     s.cfg.RateLimitRPM,
		EnableLogging:    true,
	})
	s.registerRoutes(r)
	return r
}

func (s *Server) registerRoutes(r chi.Router) {
	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/resolve", s.handleResolve)
	r.Get("/stream", s.handleStream)
	r.Post("/split", s.handleSplit)
	r.Get("/download-segment/{handle}", s.handleDownloadSegment)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Resolver up. Use POST /resolve or GET /stream?url=...\n"))
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
