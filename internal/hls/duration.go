// SPDX-License-Identifier: MIT

// Package hls estimates durations from HLS-style manifests.
package hls

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

var segmentedPattern = regexp.MustCompile(`(?i)m3u8|mpd|dash|manifest`)

// LooksSegmented reports whether a direct URL points at a chunked/manifest
// delivery rather than a single progressive resource.
func LooksSegmented(url string) bool {
	return segmentedPattern.MatchString(url)
}

// SumManifestDurations sums all #EXTINF: duration tags in a playlist.
// Lines without a parseable duration are skipped.
func SumManifestDurations(playlist string) float64 {
	scanner := bufio.NewScanner(strings.NewReader(playlist))
	var total float64
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#EXTINF:") {
			continue
		}
		durPart := strings.TrimPrefix(line, "#EXTINF:")
		if idx := strings.Index(durPart, ","); idx != -1 {
			durPart = durPart[:idx]
		}
		if secs, err := strconv.ParseFloat(durPart, 64); err == nil {
			total += secs
		}
	}
	return total
}

// Estimator fetches HLS manifests and sums their segment durations.
// 0 means "unknown"; estimation never fails hard.
type Estimator interface {
	ManifestDuration(ctx context.Context, manifestURL string) float64
}

// HTTPEstimator fetches manifests with a plain HTTP client.
type HTTPEstimator struct {
	Client    *http.Client
	UserAgent string
	logger    zerolog.Logger
}

// NewHTTPEstimator builds an HTTPEstimator. A nil client falls back to
// http.DefaultClient.
func NewHTTPEstimator(client *http.Client, userAgent string, logger zerolog.Logger) *HTTPEstimator {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPEstimator{Client: client, UserAgent: userAgent, logger: logger}
}

// ManifestDuration implements Estimator. Fetch failures and manifests
// without duration tags yield 0.
func (e *HTTPEstimator) ManifestDuration(ctx context.Context, manifestURL string) float64 {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return 0
	}
	if e.UserAgent != "" {
		req.Header.Set("User-Agent", e.UserAgent)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		e.logger.Debug().Err(err).Str("url", manifestURL).Msg("manifest fetch failed")
		return 0
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		e.logger.Debug().Int("status", resp.StatusCode).Str("url", manifestURL).Msg("manifest fetch refused")
		return 0
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return 0
	}
	return SumManifestDurations(string(body))
}
