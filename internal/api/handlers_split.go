// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ManuGH/u2a/internal/ffmpeg"
	"github.com/ManuGH/u2a/internal/log"
	"github.com/ManuGH/u2a/internal/media"
	"github.com/ManuGH/u2a/internal/resolve"
	"github.com/ManuGH/u2a/internal/segment"
)

type splitRequest struct {
	URL         string    `json:"url"`
	SplitPoints []float64 `json:"splitPoints"`
	Format      string    `json:"format"`
	StartTime   *float64  `json:"startTime"`
	EndTime     *float64  `json:"endTime"`
}

type segmentDescriptor struct {
	Index       int     `json:"index"`
	StartTime   float64 `json:"startTime"`
	EndTime     float64 `json:"endTime"`
	Duration    float64 `json:"duration"`
	Filename    string  `json:"filename"`
	DownloadURL string  `json:"downloadUrl"`
}

type splitResponse struct {
	Success  bool                `json:"success"`
	Segments []segmentDescriptor `json:"segments"`
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w, "Invalid request body")
		return
	}

	logger := log.WithComponentFromContext(r.Context(), "split")
	format := media.ParseOutputFormat(req.Format)

	// Single-range mode streams the cut directly; no temp file exists.
	if req.StartTime != nil && req.EndTime != nil {
		s.splitSingleRange(w, r, req, format, logger)
		return
	}

	if req.URL == "" || len(req.SplitPoints) == 0 {
		writeInvalidRequest(w, "Missing url or splitPoints array")
		return
	}

	src, err := s.resolver.ResolveForCut(r.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, resolve.ErrNoDuration):
			writeUnprocessable(w, "Unable to determine audio duration")
		case errors.Is(err, resolve.ErrUnresolvable):
			writeUnprocessable(w, "Unable to resolve audio URL")
		default:
			writeServerError(w, "Audio splitting failed", "")
		}
		return
	}

	spans, err := segment.Boundaries(req.SplitPoints, src.Duration)
	if err != nil {
		switch {
		case errors.Is(err, segment.ErrNoValidPoints):
			writeInvalidRequest(w, "No valid split points provided")
		case errors.Is(err, segment.ErrPointsBeyondDuration):
			writeInvalidRequest(w, "All split points are beyond audio duration")
		default:
			writeInvalidRequest(w, "Invalid split points")
		}
		return
	}

	results, err := s.cutter.Cut(r.Context(), segment.Job{
		InputURL: src.URL,
		Referer:  req.URL,
		Spans:    spans,
		Format:   format,
	})
	if err != nil {
		logger.Error().Err(err).Str("page_url", req.URL).Msg("split job failed")
		writeServerError(w, "Audio splitting failed", err.Error())
		return
	}

	if len(results) == 1 {
		s.sendSegmentFile(w, r, results[0], format, logger)
		return
	}

	resp := splitResponse{Success: true, Segments: make([]segmentDescriptor, 0, len(results))}
	for _, res := range results {
		resp.Segments = append(resp.Segments, segmentDescriptor{
			Index:       res.Index,
			StartTime:   res.Start,
			EndTime:     res.End,
			Duration:    res.Duration(),
			Filename:    res.Filename,
			DownloadURL: "/download-segment/" + res.File.Handle(),
		})
	}
	logger.Info().
		Str("event", "split.ok").
		Int("segments", len(results)).
		Msg("split job complete")
	writeJSON(w, http.StatusOK, resp)
}

// splitSingleRange stream-transcodes one explicit [start,end) range to the
// response as an attachment.
func (s *Server) splitSingleRange(w http.ResponseWriter, r *http.Request, req splitRequest, format media.OutputFormat, logger zerolog.Logger) {
	start, end := *req.StartTime, *req.EndTime
	if req.URL == "" {
		writeInvalidRequest(w, "Missing url")
		return
	}
	if start < 0 || end <= start || math.IsInf(start, 0) || math.IsInf(end, 0) ||
		math.IsNaN(start) || math.IsNaN(end) {
		writeInvalidRequest(w, "Invalid startTime/endTime")
		return
	}

	directURL, err := s.resolver.DirectURL(r.Context(), req.URL)
	if err != nil {
		writeUnprocessable(w, "Unable to resolve audio URL")
		return
	}

	filename := fmt.Sprintf("audio_selection_%.1f_to_%.1f.%s", start, end, format.Ext())
	w.Header().Set("Content-Type", format.MIMEType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Cache-Control", "no-store")

	cw := &countingWriter{w: w}
	err = s.transcoder.StreamCut(r.Context(), cw, ffmpeg.CutSpec{
		InputURL: directURL,
		Referer:  req.URL,
		Start:    start,
		End:      end,
		Format:   format,
	})
	if err == nil || r.Context().Err() != nil {
		return
	}
	if !cw.wrote {
		w.Header().Del("Content-Disposition")
		writeServerError(w, "Audio processing failed", "")
		return
	}
	logger.Warn().Err(err).Msg("single-range cut ended mid-flight")
}

// sendSegmentFile streams one finished temp file as an attachment and
// releases it once transmission completes, success or not.
func (s *Server) sendSegmentFile(w http.ResponseWriter, r *http.Request, res segment.Result, format media.OutputFormat, logger zerolog.Logger) {
	defer func() {
		if err := res.File.Release(); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", res.File.Path()).Msg("failed to remove temp segment")
		}
	}()

	f, err := os.Open(res.File.Path())
	if err != nil {
		writeServerError(w, "Audio splitting failed", "")
		return
	}
	defer func() {
		_ = f.Close()
	}()

	w.Header().Set("Content-Type", format.MIMEType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	if info, statErr := f.Stat(); statErr == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}

	if _, err := io.Copy(w, f); err != nil && r.Context().Err() == nil {
		logger.Debug().Err(err).Msg("segment download ended mid-flight")
	}
}
