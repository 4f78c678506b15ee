package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"soundpack/internal/services"
)

// Parameters is the rendering parameter set stored with a record.
type Parameters map[string]any

// DefaultParameters returns the stock parameter set. Each call builds a new
// value, so callers may modify the result.
func DefaultParameters() Parameters {
	return Parameters{
		"xFeature":     "MFCC_0",
		"yFeature":     "MFCC_1",
		"zFeature":     "MFCC_2",
		"rFeature":     "MFCC_3",
		"gFeature":     "MFCC_4",
		"bFeature":     "MFCC_5",
		"scaleFeature": "RMS",
		"windowSize":   8192,
		"hopSize":      8192,
		"scaleMult":    0.01,
		"scaleExp":     0.1,
		"useHSV":       false,
		"posAxisScale": []any{1, 1, 1},
	}
}

// Merge returns a copy of p with every key of overrides applied on top.
func (p Parameters) Merge(overrides Parameters) Parameters {
	out := make(Parameters, len(p)+len(overrides))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Session is the opaque sequencer state stored with a record.
type Session map[string]any

// EmptySession returns a fresh session with no sequences.
func EmptySession() Session {
	return Session{"sequences": []any{}}
}

// LoadParameters reads a parameter set from a JSON (comments and trailing
// commas allowed), YAML, or TOML file, chosen by extension. JSON numbers
// keep their literal form so 1 and 1.0 hash differently, as they would in
// the original record files.
func LoadParameters(path string) (Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.WrapIO("artifact", "load parameters", path, err)
	}
	params, err := decodeParameters(strings.ToLower(filepath.Ext(path)), data)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "artifact", "load parameters", path, err)
	}
	if params == nil {
		params = Parameters{}
	}
	return params, nil
}

func decodeParameters(ext string, data []byte) (Parameters, error) {
	var params Parameters
	switch ext {
	case ".json", ".jsonc", "":
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.UseNumber()
		if err := dec.Decode(&params); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &params); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &params); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported parameter file type %q", ext)
	}
	return params, nil
}
