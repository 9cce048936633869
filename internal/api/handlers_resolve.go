// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/u2a/internal/log"
	"github.com/ManuGH/u2a/internal/resolve"
)

type resolveRequest struct {
	URL string `json:"url"`
}

// resolveResponse uses pointers so unknown values encode as JSON null.
type resolveResponse struct {
	URL           *string  `json:"url"`
	Duration      *float64 `json:"duration"`
	Title         *string  `json:"title"`
	IsProgressive bool     `json:"is_progressive"`
}

func sourceResponse(src *resolve.Source) resolveResponse {
	resp := resolveResponse{IsProgressive: src.Progressive}
	if src.URL != "" {
		resp.URL = &src.URL
	}
	if src.Duration > 0 {
		resp.Duration = &src.Duration
	}
	if src.Title != "" {
		resp.Title = &src.Title
	}
	return resp
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeInvalidRequest(w, "Missing url")
		return
	}

	logger := log.WithComponentFromContext(r.Context(), "resolve")

	src, err := s.resolver.Resolve(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, resolve.ErrUnresolvable) {
			writeUnprocessable(w, "Unable to resolve media URL")
			return
		}
		logger.Error().Err(err).Str("page_url", req.URL).Msg("resolution failed unexpectedly")
		writeServerError(w, "Resolver failed", "")
		return
	}

	logger.Info().
		Str("event", "resolve.ok").
		Bool("progressive", src.Progressive).
		Float64("duration", src.Duration).
		Msg("source resolved")
	writeJSON(w, http.StatusOK, sourceResponse(src))
}
