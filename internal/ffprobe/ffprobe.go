package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the container.
type Stream struct {
	Index            int    `json:"index"`
	CodecName        string `json:"codec_name"`
	CodecType        string `json:"codec_type"`
	SampleFormat     string `json:"sample_fmt"`
	SampleRate       string `json:"sample_rate"`
	Channels         int    `json:"channels"`
	ChannelLayout    string `json:"channel_layout"`
	BitsPerSample    int    `json:"bits_per_sample"`
	BitsPerRawSample string `json:"bits_per_raw_sample"`
	BitRate          string `json:"bit_rate"`
}

// Format captures container-level metadata.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// AudioStream returns the first audio stream.
func (r Result) AudioStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			return stream, true
		}
	}
	return Stream{}, false
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	d := parseFloat(r.Format.Duration)
	if math.IsNaN(d) || d < 0 {
		return 0
	}
	return d
}

// BitRate returns the container bitrate in bits per second, falling back to
// the audio stream's rate. It is 0 when neither reports one.
func (r Result) BitRate() int64 {
	rate := parseFloat(r.Format.BitRate)
	if rate <= 0 || math.IsNaN(rate) {
		if stream, ok := r.AudioStream(); ok {
			rate = parseFloat(stream.BitRate)
		}
	}
	if math.IsNaN(rate) || rate < 0 {
		return 0
	}
	return int64(rate)
}

// SampleRateHz returns the stream sample rate in Hz, or 0 when unavailable.
func (s Stream) SampleRateHz() int {
	rate, err := strconv.Atoi(strings.TrimSpace(s.SampleRate))
	if err != nil || rate < 0 {
		return 0
	}
	return rate
}

// BitDepth returns bits_per_raw_sample, then bits_per_sample, or 0 when the
// codec reports neither (lossy codecs usually do not).
func (s Stream) BitDepth() int {
	if depth, err := strconv.Atoi(strings.TrimSpace(s.BitsPerRawSample)); err == nil && depth > 0 {
		return depth
	}
	if s.BitsPerSample > 0 {
		return s.BitsPerSample
	}
	return 0
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
