package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"soundpack/internal/fileutil"
	"soundpack/internal/hashing"
	"soundpack/internal/logging"
	"soundpack/internal/resource"
	"soundpack/internal/services"
	"soundpack/internal/textutil"
)

// Creator identifies who made a record.
type Creator struct {
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
}

// Record is the persisted derived artifact document.
type Record struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Hash        string          `json:"hash"`
	Creator     Creator         `json:"creator"`
	Parameters  Parameters      `json:"parameters"`
	Resources   []resource.Data `json:"resources"`
	Session     Session         `json:"session"`
}

// Request describes one record build. Nil Parameters and Session fall back
// to DefaultParameters and EmptySession.
type Request struct {
	// SourcePath is the sample file the record was made from; its name
	// supplies the title when Title is empty.
	SourcePath  string
	Title       string
	Description string
	Creator     Creator
	Parameters  Parameters
	Resources   []resource.Data
	Session     Session
	// Output overrides the default {metadataDir}/{hash}.json location.
	Output string
}

// Result is a built record and where it was written.
type Result struct {
	Record Record
	Path   string
}

// Builder assembles and persists records.
type Builder struct {
	hasher         *hashing.Hasher
	metadataDir    string
	defaultCreator Creator
	logger         *slog.Logger
}

// NewBuilder constructs a Builder writing into metadataDir.
func NewBuilder(hasher *hashing.Hasher, metadataDir string, defaultCreator Creator, logger *slog.Logger) *Builder {
	if hasher == nil {
		hasher = hashing.Default()
	}
	return &Builder{
		hasher:         hasher,
		metadataDir:    metadataDir,
		defaultCreator: defaultCreator,
		logger:         logging.NewComponentLogger(logger, "artifact"),
	}
}

// PrimarySample returns the single resource categorized as a sample.
func PrimarySample(resources []resource.Data) (resource.Data, error) {
	var found []resource.Data
	for _, r := range resources {
		if r.Category == resource.CategorySample {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return resource.Data{}, services.Wrap(services.ErrValidation, "artifact", "primary sample", "no resource with category \"sample\"", nil)
	case 1:
		return found[0], nil
	default:
		return resource.Data{}, services.Wrap(services.ErrValidation, "artifact", "primary sample", fmt.Sprintf("%d resources with category \"sample\"; expected exactly one", len(found)), nil)
	}
}

// CompositeHash combines a sample hash with the hash of a parameter set.
func CompositeHash(h *hashing.Hasher, sampleHash string, params Parameters) (string, error) {
	if strings.TrimSpace(sampleHash) == "" {
		return "", services.Wrap(services.ErrValidation, "artifact", "composite hash", "sample hash is empty", nil)
	}
	paramsHash, err := h.HashStructured(map[string]any(params), false)
	if err != nil {
		return "", err
	}
	return h.HashStructured([]any{sampleHash, paramsHash}, false)
}

// Build validates req, computes the composite hash, and writes the record.
// Validation failures return before anything is hashed or written.
func (b *Builder) Build(ctx context.Context, req Request) (Result, error) {
	sample, err := PrimarySample(req.Resources)
	if err != nil {
		return Result{}, err
	}
	params := req.Parameters
	if params == nil {
		params = DefaultParameters()
	}
	session := req.Session
	if session == nil {
		session = EmptySession()
	}

	sum, err := CompositeHash(b.hasher, sample.Hash, params)
	if err != nil {
		return Result{}, err
	}

	creator := req.Creator
	if strings.TrimSpace(creator.Name) == "" {
		creator = b.defaultCreator
	}
	record := Record{
		Title:       b.title(req, sample),
		Description: req.Description,
		Hash:        sum,
		Creator:     creator,
		Parameters:  params,
		Resources:   append([]resource.Data(nil), req.Resources...),
		Session:     session,
	}

	out := req.Output
	if out == "" {
		out = filepath.Join(b.metadataDir, sum+".json")
	}
	data, err := encodeRecord(record)
	if err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return Result{}, services.WrapIO("artifact", "build", filepath.Dir(out), err)
	}
	if err := fileutil.WriteFileAtomic(out, data, 0o644); err != nil {
		return Result{}, services.WrapIO("artifact", "write record", out, err)
	}

	b.logger.InfoContext(ctx, "artifact record written",
		logging.String(logging.FieldPath, out),
		logging.String(logging.FieldHash, b.hasher.Short(sum)),
		logging.Int("resources", len(record.Resources)),
		logging.String(logging.FieldEventType, "artifact_written"),
	)
	return Result{Record: record, Path: out}, nil
}

func (b *Builder) title(req Request, sample resource.Data) string {
	if title := strings.TrimSpace(req.Title); title != "" {
		return title
	}
	source := req.SourcePath
	if source == "" {
		source = path.Base(sample.URI)
	}
	return textutil.TitleCase(textutil.FileStem(filepath.Base(source)))
}

func encodeRecord(record Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(record); err != nil {
		return nil, services.Wrap(services.ErrValidation, "artifact", "encode record", "", err)
	}
	return buf.Bytes(), nil
}

// ReadRecord loads a record file.
func ReadRecord(file string) (Record, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Record{}, services.WrapIO("artifact", "read record", file, err)
	}
	var record Record
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&record); err != nil {
		return Record{}, services.Wrap(services.ErrValidation, "artifact", "read record", file, err)
	}
	return record, nil
}
