// SPDX-License-Identifier: MIT

// Package segment cuts a resolved audio source into time-bounded pieces.
package segment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/u2a/internal/ffmpeg"
	"github.com/ManuGH/u2a/internal/media"
	"github.com/ManuGH/u2a/internal/metrics"
)

var (
	// ErrNoValidPoints is returned when no split point survives validation.
	ErrNoValidPoints = errors.New("no valid split points provided")
	// ErrPointsBeyondDuration is returned when every valid point lies at or
	// past the total duration.
	ErrPointsBeyondDuration = errors.New("all split points are beyond audio duration")
)

// Span is one contiguous time range of the source. Index is 1-based and
// follows boundary order.
type Span struct {
	Index int
	Start float64
	End   float64
}

// Duration returns the span length in seconds.
func (s Span) Duration() float64 { return s.End - s.Start }

// Boundaries validates and normalizes split points against the total
// duration, then builds the covering span list [0,p1) [p1,p2) ... [pN,total).
// Invalid points (negative, non-finite) are dropped; duplicates collapse;
// degenerate spans where start >= end are skipped. The result covers
// [0,total) with no gaps or overlaps.
func Boundaries(points []float64, total float64) ([]Span, error) {
	valid := make([]float64, 0, len(points))
	for _, p := range points {
		if p >= 0 && !math.IsInf(p, 0) && !math.IsNaN(p) {
			valid = append(valid, p)
		}
	}
	if len(valid) == 0 {
		return nil, ErrNoValidPoints
	}
	sort.Float64s(valid)

	inRange := valid[:0]
	var last float64 = -1
	for _, p := range valid {
		if p < total && p != last {
			inRange = append(inRange, p)
			last = p
		}
	}
	if len(inRange) == 0 {
		return nil, ErrPointsBeyondDuration
	}

	spans := make([]Span, 0, len(inRange)+1)
	for i := 0; i <= len(inRange); i++ {
		start := 0.0
		if i > 0 {
			start = inRange[i-1]
		}
		end := total
		if i < len(inRange) {
			end = inRange[i]
		}
		if start >= end {
			continue
		}
		spans = append(spans, Span{Index: len(spans) + 1, Start: start, End: end})
	}
	return spans, nil
}

// Result is one produced segment with its download handle.
type Result struct {
	Span
	Filename string
	File     *TempFile
}

// Cutter extracts spans into ledger-owned temp files.
type Cutter struct {
	transcoder ffmpeg.Transcoder
	ledger     *Ledger
	tempDir    string
	logger     zerolog.Logger
	now        func() time.Time
}

// NewCutter builds a Cutter writing into tempDir.
func NewCutter(transcoder ffmpeg.Transcoder, ledger *Ledger, tempDir string, logger zerolog.Logger) *Cutter {
	return &Cutter{
		transcoder: transcoder,
		ledger:     ledger,
		tempDir:    tempDir,
		logger:     logger,
		now:        time.Now,
	}
}

// Job describes one multi-point split over an already resolved source.
type Job struct {
	InputURL string
	Referer  string // originating page URL
	Spans    []Span
	Format   media.OutputFormat
}

// Cut produces the job's spans strictly sequentially, each transcoder
// invocation awaited to completion. A single subprocess slot bounds
// resource usage; later invocations reuse the same resolved URL. On any
// failure every temp file created so far is released before returning, so
// no orphaned files remain after a failed job.
func (c *Cutter) Cut(ctx context.Context, job Job) ([]Result, error) {
	stamp := c.now().UnixMilli()
	results := make([]Result, 0, len(job.Spans))

	cleanup := func() {
		for _, r := range results {
			if err := r.File.Release(); err != nil && !os.IsNotExist(err) {
				c.logger.Warn().Err(err).Str("path", r.File.Path()).Msg("failed to remove temp segment")
			}
		}
	}

	for _, span := range job.Spans {
		tempPath := filepath.Join(c.tempDir,
			fmt.Sprintf("segment_%d_%d.%s", stamp, span.Index, job.Format.Ext()))

		spec := ffmpeg.CutSpec{
			InputURL: job.InputURL,
			Referer:  job.Referer,
			Start:    span.Start,
			End:      span.End,
			Format:   job.Format,
		}
		if err := c.transcoder.ExtractToFile(ctx, spec, tempPath); err != nil {
			// The failed invocation may have left a partial file behind.
			_ = os.Remove(tempPath)
			cleanup()
			metrics.SplitJobTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("extract segment %d: %w", span.Index, err)
		}

		results = append(results, Result{
			Span:     span,
			Filename: fmt.Sprintf("segment_%d.%s", span.Index, job.Format.Ext()),
			File:     c.ledger.Register(tempPath),
		})

		c.logger.Debug().
			Str("event", "segment.extracted").
			Int("index", span.Index).
			Float64("start", span.Start).
			Float64("end", span.End).
			Msg("segment extracted")
	}

	metrics.SplitJobTotal.WithLabelValues("ok").Inc()
	return results, nil
}
