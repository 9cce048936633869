// SPDX-License-Identifier: MIT

package resolve

import (
	"context"
	"math"

	"github.com/ManuGH/u2a/internal/hls"
	"github.com/ManuGH/u2a/internal/probe"
)

// DurationEstimator composes the three duration strategies with fallback:
// embedded metadata, active probe, manifest summation. Each strategy yields
// "unknown" (0) on failure rather than an error; an all-unknown result is
// not fatal to resolution.
type DurationEstimator struct {
	Prober    probe.Prober
	Manifests hls.Estimator
}

func finite(d float64) bool {
	return d > 0 && !math.IsInf(d, 0) && !math.IsNaN(d)
}

// Estimate tries the strategies in fixed order until one yields a positive,
// finite value. The embedded value short-circuits the lower-priority
// strategies entirely; no probe or manifest fetch happens when it is usable.
func (e *DurationEstimator) Estimate(ctx context.Context, embedded float64, directURL string) float64 {
	if finite(embedded) {
		return embedded
	}
	if directURL == "" {
		return 0
	}
	if d := e.Prober.Duration(ctx, directURL); finite(d) {
		return d
	}
	if hls.LooksSegmented(directURL) {
		if d := e.Manifests.ManifestDuration(ctx, directURL); finite(d) {
			return d
		}
	}
	return 0
}
