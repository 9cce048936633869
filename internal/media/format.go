// SPDX-License-Identifier: MIT

// Package media holds the domain model for reported stream formats and the
// selection heuristic that picks the best audio-only candidate.
package media

import (
	"sort"
	"strings"
)

// FormatCandidate is one entry from the extraction tool's reported format
// list. Field names follow the tool's JSON document.
type FormatCandidate struct {
	FormatID string  `json:"format_id"`
	ACodec   string  `json:"acodec"`
	VCodec   string  `json:"vcodec"`
	Ext      string  `json:"ext"`
	Protocol string  `json:"protocol"`
	URL      string  `json:"url"`
	ABR      float64 `json:"abr"`
}

// HasAudio reports whether the candidate carries an audio stream.
func (f FormatCandidate) HasAudio() bool {
	return f.ACodec != "" && f.ACodec != "none"
}

// NoVideo reports whether the candidate is audio-only.
func (f FormatCandidate) NoVideo() bool {
	return f.VCodec == "" || f.VCodec == "none"
}

// IsSegmented reports whether the candidate is delivered as chunks behind a
// manifest rather than a single progressive resource.
func (f FormatCandidate) IsSegmented() bool {
	protocol := strings.ToLower(f.Protocol)
	return strings.Contains(protocol, "m3u8") ||
		strings.Contains(protocol, "dash") ||
		strings.Contains(f.URL, ".m3u8") ||
		strings.Contains(f.URL, "manifest")
}

// IsProgressive reports whether the candidate is a plain HTTP resource.
func (f FormatCandidate) IsProgressive() bool {
	protocol := strings.ToLower(f.Protocol)
	return !f.IsSegmented() && strings.HasPrefix(protocol, "http")
}

// IsHLS reports whether the candidate is delivered via an HLS manifest.
// HLS candidates stay eligible because ffmpeg can read the manifest directly.
func (f FormatCandidate) IsHLS() bool {
	return strings.Contains(strings.ToLower(f.Protocol), "m3u8") ||
		strings.Contains(f.URL, ".m3u8")
}

// Eligible reports whether the candidate can serve as a playable audio source.
func (f FormatCandidate) Eligible() bool {
	return f.HasAudio() && f.NoVideo() && f.URL != "" && (f.IsProgressive() || f.IsHLS())
}

// SelectBestAudio returns the eligible candidate with the highest reported
// average bitrate, or nil if no candidate is eligible. A missing bitrate
// counts as 0. The sort is stable, so the first-listed candidate wins exact
// bitrate ties; the function is pure and order-sensitive only on such ties.
func SelectBestAudio(candidates []FormatCandidate) *FormatCandidate {
	eligible := make([]FormatCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Eligible() {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return nil
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].ABR > eligible[j].ABR
	})
	best := eligible[0]
	return &best
}
