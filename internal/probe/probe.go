// Package probe adapts ffprobe to the asset.Prober contract.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"soundpack/internal/asset"
	"soundpack/internal/logging"
	"soundpack/internal/media/ffprobe"
	"soundpack/internal/services"
)

// InspectFunc runs an inspection of path with the given binary.
type InspectFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// FFprobe probes audio files with an external ffprobe binary.
type FFprobe struct {
	binary  string
	timeout time.Duration
	inspect InspectFunc
	logger  *slog.Logger
}

// Option customizes an FFprobe prober.
type Option func(*FFprobe)

// WithInspector replaces the ffprobe invocation, mainly for tests.
func WithInspector(fn InspectFunc) Option {
	return func(p *FFprobe) {
		if fn != nil {
			p.inspect = fn
		}
	}
}

// WithTimeout bounds each ffprobe run. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(p *FFprobe) {
		p.timeout = timeout
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *FFprobe) {
		p.logger = logging.NewComponentLogger(logger, "probe")
	}
}

// New builds an ffprobe-backed prober.
func New(binary string, opts ...Option) *FFprobe {
	p := &FFprobe{
		binary:  binary,
		inspect: ffprobe.Inspect,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe implements asset.Prober. Files without an audio stream or with an
// unreadable duration are reported as failures.
func (p *FFprobe) Probe(ctx context.Context, path string) (asset.Properties, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	result, err := p.inspect(ctx, p.binary, path)
	if err != nil {
		return asset.Properties{}, services.Wrap(services.ErrExternalTool, "probe", "ffprobe", path, err)
	}
	if result.AudioStreamCount() == 0 {
		return asset.Properties{}, services.Wrap(services.ErrValidation, "probe", "ffprobe", fmt.Sprintf("%s has no audio stream", path), nil)
	}
	duration := result.DurationSeconds()
	if math.IsNaN(duration) {
		return asset.Properties{}, services.Wrap(services.ErrValidation, "probe", "ffprobe", fmt.Sprintf("%s reports an unreadable duration", path), nil)
	}
	props := asset.Properties{
		Duration:   duration,
		Channels:   result.Channels(),
		SampleRate: result.SampleRate(),
	}
	p.logger.DebugContext(ctx, "probed audio",
		logging.String(logging.FieldPath, path),
		logging.Float64("duration", props.Duration),
		logging.Int("channels", props.Channels),
	)
	return props, nil
}
