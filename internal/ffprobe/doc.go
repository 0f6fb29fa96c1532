// Package ffprobe wraps ffprobe JSON output for audio files.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Analysis: the per-file audio report built from a Result
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - Analyze: summarizes codec, sample rate, bit depth, channels and
//     bitrate, and classifies the encoding as lossless or lossy
package ffprobe
