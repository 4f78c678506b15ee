package testsupport

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"soundpack/internal/asset"
)

// StubProber derives audio properties from file size so tests never need
// ffprobe. Empty files fail to decode. Durations and Failures override the
// result per file base name.
type StubProber struct {
	Durations map[string]float64
	Failures  map[string]error
	Calls     []string
}

// Probe implements asset.Prober.
func (p *StubProber) Probe(_ context.Context, path string) (asset.Properties, error) {
	name := filepath.Base(path)
	p.Calls = append(p.Calls, name)
	if err, ok := p.Failures[name]; ok {
		return asset.Properties{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return asset.Properties{}, err
	}
	if info.Size() == 0 {
		return asset.Properties{}, errors.New("decode: empty file")
	}
	duration := float64(info.Size()) / 1000
	if d, ok := p.Durations[name]; ok {
		duration = d
	}
	return asset.Properties{Duration: duration, Channels: 2, SampleRate: 44100}, nil
}
