package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"soundpack/internal/media/ffprobe"
	"soundpack/internal/services"
)

func TestProbeMapsAudioProperties(t *testing.T) {
	var gotBinary string
	p := New("custom-ffprobe", WithTimeout(time.Second), WithInspector(func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		gotBinary = binary
		if _, ok := ctx.Deadline(); !ok {
			t.Fatal("expected deadline on probe context")
		}
		return ffprobe.Result{
			Streams: []ffprobe.Stream{{CodecType: "audio", Channels: 1, SampleRate: "48000"}},
			Format:  ffprobe.Format{Duration: "0.75"},
		}, nil
	}))

	props, err := p.Probe(context.Background(), "/tmp/hat.wav")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if gotBinary != "custom-ffprobe" {
		t.Fatalf("unexpected binary %q", gotBinary)
	}
	if props.Duration != 0.75 || props.Channels != 1 || props.SampleRate != 48000 {
		t.Fatalf("unexpected properties %+v", props)
	}
}

func TestProbeFailures(t *testing.T) {
	cases := []struct {
		name   string
		result ffprobe.Result
		err    error
		want   error
	}{
		{"tool error", ffprobe.Result{}, errors.New("exit status 1"), services.ErrExternalTool},
		{"no audio", ffprobe.Result{Format: ffprobe.Format{Duration: "1"}}, nil, services.ErrValidation},
		{"bad duration", ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "audio"}}, Format: ffprobe.Format{Duration: "n/a"}}, nil, services.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := New("ffprobe", WithInspector(func(context.Context, string, string) (ffprobe.Result, error) {
				return tc.result, tc.err
			}))
			if _, err := p.Probe(context.Background(), "x.wav"); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
