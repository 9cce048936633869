// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/u2a/internal/hls"
	"github.com/ManuGH/u2a/internal/log"
	"github.com/ManuGH/u2a/internal/metrics"
	"github.com/ManuGH/u2a/internal/resolve"
)

// countingWriter tracks whether any body bytes reached the client, which
// decides whether a failure can still change the HTTP status.
type countingWriter struct {
	w     http.ResponseWriter
	wrote bool
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		c.wrote = true
	}
	n, err := c.w.Write(p)
	if f, ok := c.w.(http.Flusher); ok {
		f.Flush()
	}
	return n, err
}

// isDirectMediaURL reports whether the source already points at raw media
// (platform CDN domain, media file extension, or an HLS manifest), so
// resolution can be skipped entirely.
func isDirectMediaURL(url string) bool {
	return strings.Contains(url, "googlevideo.com") ||
		strings.Contains(url, "soundcloud.com") ||
		strings.Contains(url, ".mp3") ||
		strings.Contains(url, ".m4a") ||
		strings.Contains(url, ".webm") ||
		strings.Contains(url, "m3u8")
}

// inlineExt derives the filename extension for inline playback from the
// upstream content type.
func inlineExt(contentType string) string {
	switch {
	case strings.Contains(contentType, "mp4"):
		return "m4a"
	case strings.Contains(contentType, "ogg"):
		return "ogg"
	default:
		return "mp3"
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sourceURL := r.URL.Query().Get("url")
	if sourceURL == "" {
		sourceURL = r.URL.Query().Get("u")
	}
	if sourceURL == "" {
		writeInvalidRequest(w, "Missing url")
		return
	}

	logger := log.WithComponentFromContext(r.Context(), "stream")

	directURL := sourceURL
	if !isDirectMediaURL(sourceURL) {
		resolved, err := s.resolver.DirectURL(r.Context(), sourceURL)
		if err != nil {
			if errors.Is(err, resolve.ErrUnresolvable) {
				writeUnprocessable(w, "Unable to resolve media URL")
				return
			}
			writeServerError(w, "Stream failed", "")
			return
		}
		directURL = resolved
	}

	if hls.LooksSegmented(directURL) {
		s.streamTranscoded(w, r, directURL, sourceURL, logger)
		return
	}
	s.streamProxied(w, r, directURL, sourceURL, logger)
}

// streamTranscoded pipes a segmented manifest through the transcoder as a
// continuous MP3 stream. The subprocess lives on the request context, so a
// client disconnect terminates it.
func (s *Server) streamTranscoded(w http.ResponseWriter, r *http.Request, directURL, sourceURL string, logger zerolog.Logger) {
	metrics.IncActiveStreams("transcode")
	defer metrics.DecActiveStreams("transcode")

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Timing-Allow-Origin", "*")
	w.Header().Set("Content-Disposition", `inline; filename="stream.mp3"`)
	w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")

	cw := &countingWriter{w: w}
	err := s.transcoder.StreamManifest(r.Context(), cw, directURL, sourceURL)
	if err == nil || r.Context().Err() != nil {
		return
	}
	if !cw.wrote {
		// Nothing has been transmitted; the status can still change.
		w.Header().Del("Content-Disposition")
		writeServerError(w, "Audio processing failed", "")
		return
	}
	// Headers are gone; the truncated body is all the client gets.
	logger.Warn().Err(err).Str("url", directURL).Msg("transcode stream ended mid-flight")
}

// streamProxied forwards the direct URL's bytes, preserving partial-content
// semantics so the client can seek.
func (s *Server) streamProxied(w http.ResponseWriter, r *http.Request, directURL, sourceURL string, logger zerolog.Logger) {
	metrics.IncActiveStreams("proxy")
	defer metrics.DecActiveStreams("proxy")

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, directURL, nil)
	if err != nil {
		writeServerError(w, "Stream failed", "")
		return
	}
	if rng := r.Header.Get("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Referer", sourceURL)

	upstream, err := s.upstream.Do(req)
	if err != nil {
		logger.Warn().Err(err).Str("url", directURL).Msg("upstream fetch failed")
		writeServerError(w, "Stream failed", "")
		return
	}
	defer func() {
		_ = upstream.Body.Close()
	}()

	// Coerce generic upstream types so browsers treat the response as
	// playable media.
	contentType := upstream.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(contentType), "audio/") {
		contentType = "audio/mpeg"
	}
	w.Header().Set("Content-Type", contentType)
	if v := upstream.Header.Get("Content-Length"); v != "" {
		w.Header().Set("Content-Length", v)
	}
	if v := upstream.Header.Get("Content-Range"); v != "" {
		w.Header().Set("Content-Range", v)
	}
	if v := upstream.Header.Get("Accept-Ranges"); v != "" {
		w.Header().Set("Accept-Ranges", v)
	} else {
		// Guarantee seek capability regardless of upstream behavior.
		w.Header().Set("Accept-Ranges", "bytes")
	}
	if v := upstream.Header.Get("Cache-Control"); v != "" {
		w.Header().Set("Cache-Control", v)
	} else {
		w.Header().Set("Cache-Control", "no-store")
	}
	w.Header().Set("Timing-Allow-Origin", "*")
	// Always inline; some sources force attachment.
	w.Header().Set("Content-Disposition", `inline; filename="stream.`+inlineExt(contentType)+`"`)
	w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")

	w.WriteHeader(upstream.StatusCode)

	if _, err := io.Copy(w, upstream.Body); err != nil && r.Context().Err() == nil {
		// Headers are out; the response simply terminates.
		logger.Debug().Err(err).Str("url", directURL).Msg("proxy stream ended mid-flight")
	}
}
