package ffprobe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Encoding classifies how a file's audio was compressed.
type Encoding string

const (
	EncodingUnknown  Encoding = "unknown"
	EncodingLossless Encoding = "lossless"
	EncodingLossy    Encoding = "lossy"
)

// Thresholds below which a lossless-looking file is flagged as suspect.
const (
	MinBitDepth   = 16
	MinSampleRate = 44100
)

var losslessCodecs = map[string]bool{
	"flac": true, "alac": true, "wavpack": true, "ape": true, "tta": true, "mlp": true, "truehd": true,
}

var lossyCodecs = map[string]bool{
	"aac": true, "mp3": true, "mp2": true, "opus": true, "vorbis": true, "wmav2": true, "ac3": true, "eac3": true,
}

// Analysis is the metadata report for one audio file. Zero numeric fields
// mean ffprobe did not report the value.
type Analysis struct {
	Path       string   `json:"path"`
	Codec      string   `json:"codec,omitempty"`
	SampleRate int      `json:"sample_rate,omitempty"`
	BitDepth   int      `json:"bit_depth,omitempty"`
	Channels   int      `json:"channels,omitempty"`
	BitRate    int64    `json:"bit_rate,omitempty"`
	Encoding   Encoding `json:"encoding"`
	Warnings   []string `json:"warnings,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// ChannelLabel renders the channel count the way listeners describe it.
func (a Analysis) ChannelLabel() string {
	switch a.Channels {
	case 0:
		return "N/A"
	case 1:
		return "Mono"
	case 2:
		return "Stereo"
	default:
		return fmt.Sprintf("%d channels", a.Channels)
	}
}

// AnalyzeFile inspects path with binary and builds its Analysis. Inspection
// failures are reported on the Analysis rather than returned, so one
// unreadable file does not stop a directory scan.
func AnalyzeFile(ctx context.Context, binary, path string) Analysis {
	result, err := Inspect(ctx, binary, path)
	if err != nil {
		return Analysis{Path: path, Encoding: EncodingUnknown, Error: err.Error()}
	}
	return Analyze(path, result)
}

// Analyze builds the report for path from an ffprobe Result.
func Analyze(path string, result Result) Analysis {
	a := Analysis{Path: path, Encoding: EncodingUnknown, BitRate: result.BitRate()}
	stream, ok := result.AudioStream()
	if !ok {
		a.Error = "no audio stream"
		return a
	}
	a.Codec = strings.ToLower(strings.TrimSpace(stream.CodecName))
	a.SampleRate = stream.SampleRateHz()
	a.BitDepth = stream.BitDepth()
	a.Channels = stream.Channels
	a.Encoding = classify(strings.ToLower(filepath.Ext(path)), a.Codec)

	if a.Encoding == EncodingUnknown && a.Codec != "" {
		a.Warnings = append(a.Warnings, fmt.Sprintf("unknown codec: %s", a.Codec))
	}
	if a.BitDepth > 0 && a.BitDepth < MinBitDepth {
		a.Warnings = append(a.Warnings, "low bit depth may indicate lossy encoding")
	}
	if a.SampleRate > 0 && a.SampleRate < MinSampleRate {
		a.Warnings = append(a.Warnings, "low sample rate may indicate lossy encoding")
	}
	return a
}

func classify(ext, codec string) Encoding {
	switch ext {
	case ".opus", ".mp3":
		return EncodingLossy
	case ".m4a":
		// MP4 audio is either AAC or ALAC; anything else is unexpected.
		switch {
		case strings.Contains(codec, "aac"):
			return EncodingLossy
		case strings.Contains(codec, "alac"):
			return EncodingLossless
		default:
			return EncodingUnknown
		}
	}
	switch {
	case losslessCodecs[codec], strings.HasPrefix(codec, "pcm_"):
		return EncodingLossless
	case lossyCodecs[codec]:
		return EncodingLossy
	}
	return EncodingUnknown
}
