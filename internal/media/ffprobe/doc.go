// Package ffprobe provides a typed wrapper around ffprobe JSON output for
// audio files.
//
// Inspect runs ffprobe and decodes its streams and format sections. Helper
// methods on Result pick out the first audio stream and parse the string
// encoded numbers ffprobe emits (duration, sample rate, size).
package ffprobe
