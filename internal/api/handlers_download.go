// SPDX-License-Identifier: MIT

package api

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/u2a/internal/log"
)

// handleDownloadSegment streams one ledger-owned segment file as an
// attachment. The backing temp file is deleted after the send, success or
// failure; a second request for the same handle is a 404.
func (s *Server) handleDownloadSegment(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	logger := log.WithComponentFromContext(r.Context(), "download")

	file, ok := s.ledger.Claim(handle)
	if !ok {
		writeNotFound(w)
		return
	}
	defer func() {
		if err := file.Release(); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", file.Path()).Msg("failed to remove temp segment")
		}
	}()

	f, err := os.Open(file.Path())
	if err != nil {
		// The handle was mapped but the artifact is gone; treat as expired.
		writeNotFound(w)
		return
	}
	defer func() {
		_ = f.Close()
	}()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(file.Path())+`"`)
	if info, statErr := f.Stat(); statErr == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}

	if _, err := io.Copy(w, f); err != nil && r.Context().Err() == nil {
		logger.Debug().Err(err).Str("handle", handle).Msg("segment download ended mid-flight")
	}
}
