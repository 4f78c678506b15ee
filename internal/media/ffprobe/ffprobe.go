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

// showEntries limits ffprobe output to the fields Result decodes.
const showEntries = "format=duration,format_name:stream=index,codec_name,codec_type,duration,sample_rate,channels"

// Result is the decoded ffprobe report for one file.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream is one audio stream. ffprobe reports numeric durations and rates
// as strings.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format is the container section of the report.
type Format struct {
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Args returns the ffprobe arguments used to inspect path. Only audio
// streams are selected.
func Args(path string) []string {
	return []string{
		"-v", "error",
		"-hide_banner",
		"-select_streams", "a",
		"-show_entries", showEntries,
		"-of", "json",
		"--", path,
	}
}

// Inspect runs binary against path and decodes the report.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	output, err := exec.CommandContext(ctx, binary, Args(path)...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}
	return Parse(output)
}

// Parse decodes a raw ffprobe JSON payload.
func Parse(payload []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// AudioStreamCount returns the number of audio streams in the report.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if isAudio(stream) {
			count++
		}
	}
	return count
}

// PrimaryAudio returns the first audio stream.
func (r Result) PrimaryAudio() (Stream, bool) {
	for _, stream := range r.Streams {
		if isAudio(stream) {
			return stream, true
		}
	}
	return Stream{}, false
}

// DurationSeconds returns the container duration in seconds, falling back
// to the primary audio stream. Missing values yield 0, malformed ones NaN.
func (r Result) DurationSeconds() float64 {
	if strings.TrimSpace(r.Format.Duration) != "" {
		return parseFloat(r.Format.Duration)
	}
	if stream, ok := r.PrimaryAudio(); ok {
		return parseFloat(stream.Duration)
	}
	return 0
}

// Channels returns the channel count of the primary audio stream.
func (r Result) Channels() int {
	stream, _ := r.PrimaryAudio()
	return stream.Channels
}

// SampleRate returns the primary audio stream's sample rate in Hz, or 0.
func (r Result) SampleRate() int {
	stream, ok := r.PrimaryAudio()
	if !ok {
		return 0
	}
	rate := parseFloat(stream.SampleRate)
	if math.IsNaN(rate) || rate < 0 {
		return 0
	}
	return int(rate)
}

// With -select_streams a every stream is audio, but reports recorded
// without it still carry video and data streams.
func isAudio(s Stream) bool {
	return strings.EqualFold(s.CodecType, "audio")
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
