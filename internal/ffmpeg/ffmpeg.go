// SPDX-License-Identifier: MIT

// Package ffmpeg wraps the external transcoding tool. Only its CLI contract
// is modelled: request headers, input URL (including manifests), seek and
// duration trims, audio-only output, and a target codec/container, written
// to a named file or to standard output.
package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ManuGH/u2a/internal/media"
	"github.com/ManuGH/u2a/internal/metrics"
)

// CutSpec describes one time-bounded extraction from a direct audio URL.
type CutSpec struct {
	InputURL string
	Referer  string // original page URL, injected as the Referer header
	Start    float64
	End      float64 // exclusive upper bound; must be > Start
	Format   media.OutputFormat
}

// Transcoder is the transcoding tool contract consumed by the streaming
// proxy and the segmenter. Implementations bind the subprocess to ctx so a
// disconnected client terminates the child instead of leaking it.
type Transcoder interface {
	// StreamCut extracts [Start,End) and writes the encoded audio to w.
	StreamCut(ctx context.Context, w io.Writer, spec CutSpec) error
	// ExtractToFile extracts [Start,End) into outPath, awaiting completion.
	ExtractToFile(ctx context.Context, spec CutSpec, outPath string) error
	// StreamManifest reads a segmented manifest and writes a continuous
	// MP3 stream to w.
	StreamManifest(ctx context.Context, w io.Writer, manifestURL, referer string) error
}

// CLI shells out to an ffmpeg binary.
type CLI struct {
	Path   string
	logger zerolog.Logger
}

// NewCLI builds a CLI transcoder for the given binary path.
func NewCLI(path string, logger zerolog.Logger) *CLI {
	return &CLI{Path: path, logger: logger}
}

func headerBlock(referer string) string {
	return "User-Agent: Mozilla/5.0\r\nReferer: " + referer + "\r\n"
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (c *CLI) cutArgs(spec CutSpec, out string) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-headers", headerBlock(spec.Referer),
		"-i", spec.InputURL,
		"-ss", formatSeconds(spec.Start),
		"-t", formatSeconds(spec.End - spec.Start),
		"-vn",
	}
	args = append(args, spec.Format.CodecArgs()...)
	return append(args, out)
}

// run executes ffmpeg with stderr discarded. The tool is noisy on stderr
// even in healthy runs; failures surface through the exit code.
func (c *CLI) run(ctx context.Context, kind string, stdout io.Writer, args []string) error {
	metrics.TranscodeSpawnTotal.WithLabelValues(kind).Inc()

	c.logger.Debug().
		Str("event", "ffmpeg.spawn").
		Str("kind", kind).
		Strs("args", args).
		Msg("starting ffmpeg")

	cmd := exec.CommandContext(ctx, c.Path, args...)
	cmd.Stdout = stdout
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			// Client disconnect; the context kill is expected.
			c.logger.Debug().Str("kind", kind).Msg("ffmpeg terminated by context")
			return ctx.Err()
		}
		metrics.TranscodeErrorTotal.Inc()
		c.logger.Warn().Err(err).Str("kind", kind).Msg("ffmpeg failed")
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

// StreamCut implements Transcoder.
func (c *CLI) StreamCut(ctx context.Context, w io.Writer, spec CutSpec) error {
	return c.run(ctx, "cut", w, c.cutArgs(spec, "pipe:1"))
}

// ExtractToFile implements Transcoder.
func (c *CLI) ExtractToFile(ctx context.Context, spec CutSpec, outPath string) error {
	return c.run(ctx, "segment", nil, c.cutArgs(spec, outPath))
}

// StreamManifest implements Transcoder.
func (c *CLI) StreamManifest(ctx context.Context, w io.Writer, manifestURL, referer string) error {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-headers", headerBlock(referer),
		"-i", manifestURL,
		"-vn", "-acodec", "libmp3lame", "-b:a", "192k",
		"-f", "mp3", "pipe:1",
	}
	return c.run(ctx, "manifest", w, args)
}
