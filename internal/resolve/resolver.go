// SPDX-License-Identifier: MIT

// Package resolve turns an opaque media page URL into a playable source.
// The resolver runs a fixed fallback chain over the extraction tool:
// structured JSON extraction first, then the direct-URL mode. Failures
// inside one attempt are downgraded to "try next attempt"; only exhausting
// every attempt fails hard.
package resolve

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/u2a/internal/extract"
	"github.com/ManuGH/u2a/internal/hls"
	"github.com/ManuGH/u2a/internal/media"
	"github.com/ManuGH/u2a/internal/metrics"
)

var (
	// ErrUnresolvable is returned after every resolution attempt is exhausted.
	ErrUnresolvable = errors.New("unable to resolve media url")
	// ErrNoDuration is returned when resolution succeeded but no duration
	// could be established and the caller requires one.
	ErrNoDuration = errors.New("unable to determine audio duration")
)

// Source is the outcome of one resolution. URL is empty for duration-only
// results, which carry metadata for preview UIs that don't need playback.
// A Source lives for one request and is never persisted.
type Source struct {
	URL         string
	Duration    float64 // seconds; 0 means unknown
	Title       string
	Progressive bool
}

// Resolver orchestrates the extraction tool, the format selector and the
// duration strategies.
type Resolver struct {
	extractor extract.Client
	durations *DurationEstimator
	logger    zerolog.Logger
}

// New builds a Resolver.
func New(extractor extract.Client, durations *DurationEstimator, logger zerolog.Logger) *Resolver {
	return &Resolver{extractor: extractor, durations: durations, logger: logger}
}

// Resolve runs the full fallback chain for the /resolve surface.
func (r *Resolver) Resolve(ctx context.Context, pageURL string) (*Source, error) {
	if src := r.fromMetadata(ctx, pageURL); src != nil {
		return src, nil
	}
	if src := r.fromDirectURL(ctx, pageURL); src != nil {
		return src, nil
	}
	return nil, ErrUnresolvable
}

// fromMetadata is attempt 1: structured extraction plus format selection.
// A nil return means "try the next attempt".
func (r *Resolver) fromMetadata(ctx context.Context, pageURL string) *Source {
	info, err := r.extractor.Metadata(ctx, pageURL)
	if err != nil {
		metrics.RecordResolveAttempt("metadata", false)
		r.logger.Debug().Err(err).Str("page_url", pageURL).Msg("structured extraction failed, trying direct url mode")
		return nil
	}

	if chosen := media.SelectBestAudio(info.Formats); chosen != nil {
		metrics.RecordResolveAttempt("metadata", true)
		return &Source{
			URL:         chosen.URL,
			Duration:    r.durations.Estimate(ctx, info.Duration, chosen.URL),
			Title:       info.Title,
			Progressive: true,
		}
	}

	// No playable candidate. A duration-only result still serves preview
	// UIs, so look for an HLS entry to estimate from before giving up.
	duration := info.Duration
	if !finite(duration) {
		if manifestURL := findHLSFormat(info.Formats); manifestURL != "" {
			duration = r.durations.Manifests.ManifestDuration(ctx, manifestURL)
		}
	}
	if finite(duration) {
		metrics.RecordResolveAttempt("metadata", true)
		return &Source{Duration: duration, Title: info.Title, Progressive: false}
	}

	metrics.RecordResolveAttempt("metadata", false)
	return nil
}

// fromDirectURL is attempt 2: "best audio, emit raw URL" mode.
func (r *Resolver) fromDirectURL(ctx context.Context, pageURL string) *Source {
	directURL, err := r.extractor.BestAudioURL(ctx, pageURL)
	if err != nil || directURL == "" {
		metrics.RecordResolveAttempt("direct", false)
		return nil
	}
	metrics.RecordResolveAttempt("direct", true)

	if hls.LooksSegmented(directURL) {
		return &Source{
			URL:         directURL,
			Duration:    r.durations.Manifests.ManifestDuration(ctx, directURL),
			Progressive: false,
		}
	}
	return &Source{
		URL:         directURL,
		Duration:    r.durations.Prober.Duration(ctx, directURL),
		Progressive: true,
	}
}

// DirectURL resolves a page URL to a fetchable audio URL for streaming,
// without duration estimation. Both attempts are tried in order.
func (r *Resolver) DirectURL(ctx context.Context, pageURL string) (string, error) {
	if info, err := r.extractor.Metadata(ctx, pageURL); err == nil {
		if chosen := media.SelectBestAudio(info.Formats); chosen != nil {
			metrics.RecordResolveAttempt("metadata", true)
			return chosen.URL, nil
		}
		metrics.RecordResolveAttempt("metadata", false)
	} else {
		metrics.RecordResolveAttempt("metadata", false)
	}

	directURL, err := r.extractor.BestAudioURL(ctx, pageURL)
	if err != nil || directURL == "" {
		metrics.RecordResolveAttempt("direct", false)
		return "", ErrUnresolvable
	}
	metrics.RecordResolveAttempt("direct", true)
	return directURL, nil
}

// CutSource is a resolved source suitable for segment extraction.
type CutSource struct {
	URL      string
	Duration float64
	Title    string
}

// ResolveForCut resolves via structured extraction only: splitting needs
// both a selected audio URL and a trustworthy total duration.
func (r *Resolver) ResolveForCut(ctx context.Context, pageURL string) (*CutSource, error) {
	info, err := r.extractor.Metadata(ctx, pageURL)
	if err != nil {
		metrics.RecordResolveAttempt("metadata", false)
		return nil, ErrUnresolvable
	}
	if !finite(info.Duration) {
		return nil, ErrNoDuration
	}
	chosen := media.SelectBestAudio(info.Formats)
	if chosen == nil {
		metrics.RecordResolveAttempt("metadata", false)
		return nil, ErrUnresolvable
	}
	metrics.RecordResolveAttempt("metadata", true)
	return &CutSource{URL: chosen.URL, Duration: info.Duration, Title: info.Title}, nil
}

func findHLSFormat(formats []media.FormatCandidate) string {
	for _, f := range formats {
		if strings.Contains(f.URL, ".m3u8") {
			return f.URL
		}
	}
	return ""
}
