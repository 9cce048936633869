// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeProbe writes a shell script standing in for the probe binary.
func fakeProbe(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}
	path := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestDuration_ParsesFormatDocument(t *testing.T) {
	path := fakeProbe(t, `echo '{"format":{"duration":"213.400000"}}'`)
	p := NewCommandProber(path, 5*time.Second, zerolog.Nop())

	got := p.Duration(context.Background(), "https://cdn.example/audio")
	if got < 213.39 || got > 213.41 {
		t.Errorf("expected 213.4, got %f", got)
	}
}

func TestDuration_FailuresYieldZero(t *testing.T) {
	cases := map[string]string{
		"nonzero exit":     `exit 1`,
		"garbage output":   `echo 'not json'`,
		"missing duration": `echo '{"format":{}}'`,
		"negative value":   `echo '{"format":{"duration":"-5"}}'`,
	}
	for name, script := range cases {
		t.Run(name, func(t *testing.T) {
			p := NewCommandProber(fakeProbe(t, script), 5*time.Second, zerolog.Nop())
			if got := p.Duration(context.Background(), "https://cdn.example/audio"); got != 0 {
				t.Errorf("expected 0, got %f", got)
			}
		})
	}
}

func TestDuration_TimeoutYieldsZero(t *testing.T) {
	path := fakeProbe(t, `sleep 5`)
	p := NewCommandProber(path, 50*time.Millisecond, zerolog.Nop())

	start := time.Now()
	if got := p.Duration(context.Background(), "https://cdn.example/audio"); got != 0 {
		t.Errorf("expected 0 on timeout, got %f", got)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("probe did not honor its timeout, took %s", elapsed)
	}
}

func TestNewCommandProber_DefaultTimeout(t *testing.T) {
	p := NewCommandProber("ffprobe", 0, zerolog.Nop())
	if p.Timeout != 10*time.Second {
		t.Errorf("expected 10s default, got %s", p.Timeout)
	}
}
