// SPDX-License-Identifier: MIT

// Package config loads the service configuration from the environment.
// Precedence: environment > defaults. There is no config file; the service
// is stateless and meant to be configured per deployment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// DefaultUserAgent is the desktop browser UA sent to extraction and upstream
// fetches. Some platforms refuse to serve audio formats to unknown clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// AppConfig holds the full runtime configuration for the daemon.
type AppConfig struct {
	ListenAddr string // address the HTTP server binds to

	YTDLPPath   string // yt-dlp binary
	FFmpegPath  string // ffmpeg binary
	FFprobePath string // ffprobe binary

	TempDir      string        // directory for split segment files
	UserAgent    string        // UA for extraction and upstream fetches
	ProbeTimeout time.Duration // hard limit for a single ffprobe run

	AllowedOrigins []string // CORS allow-list; empty means localhost dev defaults

	RateLimitEnabled bool
	RateLimitRPM     int // requests per minute per client IP

	LogLevel string
}

// FromEnv builds an AppConfig from U2A_* environment variables.
func FromEnv() AppConfig {
	cfg := AppConfig{
		ListenAddr:       ParseString("U2A_LISTEN", ":3001"),
		YTDLPPath:        ParseString("U2A_YTDLP_PATH", "yt-dlp"),
		FFmpegPath:       ParseString("U2A_FFMPEG_PATH", "ffmpeg"),
		FFprobePath:      ParseString("U2A_FFPROBE_PATH", "ffprobe"),
		TempDir:          ParseString("U2A_TEMP_DIR", os.TempDir()),
		UserAgent:        ParseString("U2A_USER_AGENT", DefaultUserAgent),
		ProbeTimeout:     ParseDuration("U2A_PROBE_TIMEOUT", 10*time.Second),
		RateLimitEnabled: ParseBool("U2A_RATE_LIMIT", true),
		RateLimitRPM:     ParseInt("U2A_RATE_LIMIT_RPM", 120),
		LogLevel:         ParseString("U2A_LOG_LEVEL", "info"),
	}
	if raw := ParseString("U2A_ALLOWED_ORIGINS", ""); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, p)
			}
		}
	}
	return cfg
}

// Validate checks the configuration for values that would fail at runtime.
func (c AppConfig) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.YTDLPPath == "" || c.FFmpegPath == "" || c.FFprobePath == "" {
		return fmt.Errorf("tool paths must not be empty")
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive, got %s", c.ProbeTimeout)
	}
	if info, err := os.Stat(c.TempDir); err != nil || !info.IsDir() {
		return fmt.Errorf("temp dir %q is not a usable directory", c.TempDir)
	}
	if c.RateLimitEnabled && c.RateLimitRPM <= 0 {
		return fmt.Errorf("rate limit must be positive when enabled, got %d", c.RateLimitRPM)
	}
	return nil
}
