// SPDX-License-Identifier: MIT

package ffmpeg

import (
	"strings"
	"testing"

	"github.com/ManuGH/u2a/internal/media"
)

func TestHeaderBlock(t *testing.T) {
	got := headerBlock("https://page.example/watch")
	if !strings.HasPrefix(got, "User-Agent: Mozilla/5.0\r\n") {
		t.Errorf("missing user agent line: %q", got)
	}
	if !strings.Contains(got, "Referer: https://page.example/watch\r\n") {
		t.Errorf("missing referer line: %q", got)
	}
}

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{30, "30"},
		{45.5, "45.5"},
		{213.4, "213.4"},
	}
	for _, tc := range cases {
		if got := formatSeconds(tc.in); got != tc.want {
			t.Errorf("formatSeconds(%f) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCutArgs(t *testing.T) {
	c := &CLI{Path: "ffmpeg"}
	spec := CutSpec{
		InputURL: "https://cdn.example/audio",
		Referer:  "https://page.example/watch",
		Start:    30,
		End:      90,
		Format:   media.FormatMP3,
	}
	args := c.cutArgs(spec, "pipe:1")
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-hide_banner",
		"-loglevel error",
		"-i https://cdn.example/audio",
		"-ss 30",
		"-t 60",
		"-vn",
		"-acodec libmp3lame",
		"-b:a 192k",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
	if args[len(args)-1] != "pipe:1" {
		t.Errorf("output target must be last, got %q", args[len(args)-1])
	}

	// Seek and trim must precede the codec arguments so the cut applies to
	// the decoded input, not the encoded output tail.
	seekIdx := indexOf(args, "-ss")
	codecIdx := indexOf(args, "-acodec")
	if seekIdx == -1 || codecIdx == -1 || seekIdx > codecIdx {
		t.Errorf("unexpected argument ordering: %s", joined)
	}
}

func indexOf(args []string, want string) int {
	for i, a := range args {
		if a == want {
			return i
		}
	}
	return -1
}
