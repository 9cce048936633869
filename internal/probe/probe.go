// SPDX-License-Identifier: MIT

// Package probe wraps the external format probe (ffprobe) for active
// duration measurement of resolved direct URLs.
package probe

import (
	"context"
	"encoding/json"
	"math"
	"os/exec"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Prober measures the duration of a direct media URL in seconds.
// 0 means "unknown"; a probe never fails hard.
type Prober interface {
	Duration(ctx context.Context, url string) float64
}

// CommandProber shells out to an ffprobe binary.
type CommandProber struct {
	Path    string
	Timeout time.Duration // hard per-probe limit; the tool has no output limit of its own
	logger  zerolog.Logger
}

// NewCommandProber builds a CommandProber. A zero timeout defaults to 10s.
func NewCommandProber(path string, timeout time.Duration, logger zerolog.Logger) *CommandProber {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CommandProber{Path: path, Timeout: timeout, logger: logger}
}

type probeDocument struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration implements Prober. Any subprocess failure, timeout, or non-finite
// value yields 0 so the caller can fall through to the next strategy.
func (p *CommandProber) Duration(ctx context.Context, url string) float64 {
	probeCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, p.Path,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		url,
	)
	out, err := cmd.Output()
	if err != nil {
		p.logger.Debug().Err(err).Str("url", url).Msg("duration probe failed")
		return 0
	}

	var doc probeDocument
	if err := json.Unmarshal(out, &doc); err != nil {
		p.logger.Debug().Err(err).Msg("duration probe output unparseable")
		return 0
	}
	d, err := strconv.ParseFloat(doc.Format.Duration, 64)
	if err != nil || math.IsInf(d, 0) || math.IsNaN(d) || d < 0 {
		return 0
	}
	return d
}
