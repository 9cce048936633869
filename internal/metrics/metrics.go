// SPDX-License-Identifier: MIT

// Package metrics provides Prometheus metrics for the u2a daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolveAttemptTotal counts extraction attempts by mode and result.
	// mode: "metadata" (JSON dump) or "direct" (-g fallback).
	// result: "hit" or "miss".
	ResolveAttemptTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "u2a_resolve_attempt_total",
		Help: "Total number of extraction tool attempts, by mode and result.",
	}, []string{"mode", "result"})

	// TranscodeSpawnTotal counts ffmpeg process spawns by kind.
	// kind: "manifest" (HLS to MP3 pipe), "cut" (single-range stream),
	// "segment" (multi-point temp file).
	TranscodeSpawnTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "u2a_transcode_spawn_total",
		Help: "Total number of ffmpeg process spawns, by kind.",
	}, []string{"kind"})

	// TranscodeErrorTotal counts ffmpeg failures (spawn error or non-zero exit).
	TranscodeErrorTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "u2a_transcode_error_total",
		Help: "Total number of ffmpeg failures.",
	})

	// SplitJobTotal counts multi-point split jobs by result ("ok", "error").
	SplitJobTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "u2a_split_job_total",
		Help: "Total number of multi-point split jobs, by result.",
	}, []string{"result"})

	// ActiveStreams tracks currently open streaming responses by kind
	// ("proxy", "transcode").
	ActiveStreams = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "u2a_active_streams",
		Help: "Current number of open streaming responses, by kind.",
	}, []string{"kind"})

	// TempFilesLive tracks temp segment files currently tracked by the ledger.
	TempFilesLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "u2a_temp_files_live",
		Help: "Current number of temp segment files awaiting download.",
	})
)

// RecordResolveAttempt increments the resolve attempt counter.
func RecordResolveAttempt(mode string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	ResolveAttemptTotal.WithLabelValues(mode, result).Inc()
}

// IncActiveStreams increments the active stream gauge for the given kind.
func IncActiveStreams(kind string) {
	ActiveStreams.WithLabelValues(kind).Inc()
}

// DecActiveStreams decrements the active stream gauge for the given kind.
func DecActiveStreams(kind string) {
	ActiveStreams.WithLabelValues(kind).Dec()
}
