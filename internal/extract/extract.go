// SPDX-License-Identifier: MIT

// Package extract wraps the external extraction tool (yt-dlp). Only the
// tool's documented input/output contract is modelled here: a JSON metadata
// dump and a best-audio direct URL mode. The tool's scraping internals are
// out of scope.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/u2a/internal/media"
)

// Info is the subset of the tool's metadata document the resolver consumes.
type Info struct {
	Title    string                  `json:"title"`
	Duration float64                 `json:"duration"`
	Formats  []media.FormatCandidate `json:"formats"`
}

// Client is the extraction tool contract. Implementations must treat
// non-fatal tool warnings as noise and only fail on unusable output.
type Client interface {
	// Metadata invokes the tool in JSON-dump mode against the page URL.
	Metadata(ctx context.Context, pageURL string) (*Info, error)
	// BestAudioURL invokes the tool in "best audio, emit raw URL" mode and
	// returns the last non-blank line of its output.
	BestAudioURL(ctx context.Context, pageURL string) (string, error)
}

// CommandClient shells out to a yt-dlp binary.
type CommandClient struct {
	Path      string // yt-dlp binary
	UserAgent string // desktop browser UA attached to every invocation
	logger    zerolog.Logger
}

// NewCommandClient builds a CommandClient for the given binary path.
func NewCommandClient(path, userAgent string, logger zerolog.Logger) *CommandClient {
	return &CommandClient{Path: path, UserAgent: userAgent, logger: logger}
}

// invoke is the single parameterized invocation helper both modes go
// through, so the attempt-ordering logic upstream stays auditable. The page
// URL doubles as the Referer header; playlist expansion and certificate
// checks are disabled in JSON mode by the callers' flag sets.
func (c *CommandClient) invoke(ctx context.Context, pageURL string, flags ...string) ([]byte, error) {
	args := append([]string(nil), flags...)
	args = append(args,
		"--add-header", "User-Agent: "+c.UserAgent,
		"--add-header", "Referer: "+pageURL,
		pageURL,
	)

	cmd := exec.CommandContext(ctx, c.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug().
		Str("event", "extract.invoke").
		Str("page_url", pageURL).
		Strs("flags", flags).
		Msg("invoking extraction tool")

	if err := cmd.Run(); err != nil {
		c.logger.Debug().
			Err(err).
			Str("page_url", pageURL).
			Str("stderr", truncate(stderr.String(), 512)).
			Msg("extraction tool failed")
		return nil, fmt.Errorf("extraction tool: %w", err)
	}
	return stdout.Bytes(), nil
}

// Metadata implements Client.
func (c *CommandClient) Metadata(ctx context.Context, pageURL string) (*Info, error) {
	out, err := c.invoke(ctx, pageURL,
		"--dump-single-json",
		"--no-warnings",
		"--no-check-certificates",
		"--prefer-free-formats",
		"--no-playlist",
	)
	if err != nil {
		return nil, err
	}

	var info Info
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("parse metadata document: %w", err)
	}
	return &info, nil
}

// BestAudioURL implements Client. The tool may emit diagnostic lines before
// the URL, so the last non-blank line of stdout is the answer.
func (c *CommandClient) BestAudioURL(ctx context.Context, pageURL string) (string, error) {
	out, err := c.invoke(ctx, pageURL, "-f", "bestaudio", "-g")
	if err != nil {
		return "", err
	}
	return LastLine(string(out)), nil
}

// LastLine returns the last non-blank line of s, or "" if there is none.
func LastLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
