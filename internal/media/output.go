// SPDX-License-Identifier: MIT

package media

// OutputFormat names a target codec/container pairing for extraction output.
type OutputFormat string

const (
	FormatMP3  OutputFormat = "mp3"
	FormatWAV  OutputFormat = "wav"
	FormatFLAC OutputFormat = "flac"
	FormatCopy OutputFormat = "copy"
)

// ParseOutputFormat normalizes a requested output format. An empty request
// defaults to mp3; anything outside the known pairings falls back to stream
// copy, matching the transcoder contract.
func ParseOutputFormat(s string) OutputFormat {
	switch OutputFormat(s) {
	case FormatMP3, FormatWAV, FormatFLAC, FormatCopy:
		return OutputFormat(s)
	case "":
		return FormatMP3
	default:
		return FormatCopy
	}
}

// Ext returns the file extension for segment filenames.
func (f OutputFormat) Ext() string {
	if f == FormatCopy {
		return "m4a"
	}
	return string(f)
}

// MIMEType returns the Content-Type for a response carrying this format.
func (f OutputFormat) MIMEType() string {
	switch f {
	case FormatMP3:
		return "audio/mpeg"
	case FormatWAV:
		return "audio/wav"
	case FormatFLAC:
		return "audio/flac"
	default:
		return "audio/mp4"
	}
}

// CodecArgs returns the ffmpeg codec and container arguments for this format.
func (f OutputFormat) CodecArgs() []string {
	switch f {
	case FormatMP3:
		return []string{"-acodec", "libmp3lame", "-b:a", "192k", "-f", "mp3"}
	case FormatWAV:
		return []string{"-acodec", "pcm_s16le", "-f", "wav"}
	case FormatFLAC:
		return []string{"-acodec", "flac", "-f", "flac"}
	default:
		return []string{"-acodec", "copy", "-f", "mp4", "-movflags", "frag_keyframe+empty_moov"}
	}
}
