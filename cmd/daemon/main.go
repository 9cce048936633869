// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/u2a/internal/api"
	"github.com/ManuGH/u2a/internal/config"
	"github.com/ManuGH/u2a/internal/extract"
	"github.com/ManuGH/u2a/internal/ffmpeg"
	"github.com/ManuGH/u2a/internal/hls"
	xglog "github.com/ManuGH/u2a/internal/log"
	"github.com/ManuGH/u2a/internal/probe"
	"github.com/ManuGH/u2a/internal/resolve"
	"github.com/ManuGH/u2a/internal/segment"
)

var (
	version   = "v0.3.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load() // best-effort: load .env if present

	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	cfg := config.FromEnv()

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: "u2a",
		Version: version,
	})
	logger := xglog.WithComponent("daemon")

	if err := cfg.Validate(); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.invalid").
			Msg("configuration validation failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	extractor := extract.NewCommandClient(cfg.YTDLPPath, cfg.UserAgent, xglog.WithComponent("extract"))
	prober := probe.NewCommandProber(cfg.FFprobePath, cfg.ProbeTimeout, xglog.WithComponent("probe"))
	manifests := hls.NewHTTPEstimator(&http.Client{Timeout: 30 * time.Second}, cfg.UserAgent, xglog.WithComponent("hls"))
	resolver := resolve.New(extractor, &resolve.DurationEstimator{
		Prober:    prober,
		Manifests: manifests,
	}, xglog.WithComponent("resolve"))

	transcoder := ffmpeg.NewCLI(cfg.FFmpegPath, xglog.WithComponent("ffmpeg"))
	ledger := segment.NewLedger()
	cutter := segment.NewCutter(transcoder, ledger, cfg.TempDir, xglog.WithComponent("segment"))

	server := api.New(cfg, resolver, transcoder, cutter, ledger, xglog.WithComponent("api"))

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// No write timeout: streaming responses have no upper bound.
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("event", "server.start").
			Str("listen", cfg.ListenAddr).
			Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Str("event", "server.shutdown").Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Str("event", "server.failed").Msg("daemon exited with error")
	}
	logger.Info().Str("event", "server.stopped").Msg("daemon stopped")
}
