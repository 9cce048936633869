// SPDX-License-Identifier: MIT

package hls

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestLooksSegmented(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"https://cdn.example/playlist.m3u8", true},
		{"https://cdn.example/PLAYLIST.M3U8?sig=abc", true},
		{"https://cdn.example/stream.mpd", true},
		{"https://cdn.example/manifest/video", true},
		{"https://cdn.example/dash/init.mp4", true},
		{"https://cdn.example/audio.mp3", false},
		{"https://cdn.example/clip.m4a?range=0-100", false},
	}
	for _, tc := range cases {
		if got := LooksSegmented(tc.url); got != tc.want {
			t.Errorf("LooksSegmented(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestSumManifestDurations(t *testing.T) {
	playlist := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXTINF:9.009,
seg0.ts
#EXTINF:9.009,
seg1.ts
#EXTINF:3.003,
seg2.ts
#EXT-X-ENDLIST
`
	got := SumManifestDurations(playlist)
	want := 21.021
	if got < want-0.001 || got > want+0.001 {
		t.Errorf("SumManifestDurations = %f, want %f", got, want)
	}
}

func TestSumManifestDurations_SkipsMalformedTags(t *testing.T) {
	playlist := "#EXTINF:not-a-number,\nseg0.ts\n#EXTINF:4.5,\nseg1.ts\n"
	if got := SumManifestDurations(playlist); got != 4.5 {
		t.Errorf("expected malformed tags to be skipped, got %f", got)
	}
}

func TestSumManifestDurations_NoTags(t *testing.T) {
	if got := SumManifestDurations("#EXTM3U\nseg0.ts\n"); got != 0 {
		t.Errorf("expected 0 for manifest without duration tags, got %f", got)
	}
}

func TestHTTPEstimator_ManifestDuration(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("#EXTM3U\n#EXTINF:5.0,\nseg0.ts\n#EXTINF:5.0,\nseg1.ts\n"))
	}))
	defer srv.Close()

	est := NewHTTPEstimator(srv.Client(), "probe-agent/1.0", zerolog.Nop())
	got := est.ManifestDuration(context.Background(), srv.URL)
	if got != 10.0 {
		t.Errorf("expected 10.0, got %f", got)
	}
	if gotUA != "probe-agent/1.0" {
		t.Errorf("expected configured user agent to be sent, got %q", gotUA)
	}
}

func TestHTTPEstimator_FetchFailureYieldsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	est := NewHTTPEstimator(srv.Client(), "", zerolog.Nop())
	if got := est.ManifestDuration(context.Background(), srv.URL); got != 0 {
		t.Errorf("expected 0 on refused fetch, got %f", got)
	}

	// Unreachable host must also degrade to 0, never error.
	if got := est.ManifestDuration(context.Background(), "http://127.0.0.1:1/playlist.m3u8"); got != 0 {
		t.Errorf("expected 0 on connection failure, got %f", got)
	}
}
