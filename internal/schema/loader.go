// Package schema turns CSAF JSON into a csaf.Document of the matching schema version.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/yorozuya-cybersecurity/csafcheck/internal/csaf"
	"github.com/yorozuya-cybersecurity/csafcheck/internal/schema/csaf20"
	"github.com/yorozuya-cybersecurity/csafcheck/internal/schema/csaf21"
	"github.com/yorozuya-cybersecurity/csafcheck/internal/validation"
)

//go:embed csaf_structure.json
var structureSchema string

const structureSchemaURL = "https://csafcheck.local/csaf_structure.json"

// ErrUnsupportedVersion is returned for a csaf_version no schema package handles.
var ErrUnsupportedVersion = errors.New("unsupported csaf_version")

// Loaded is a decoded document plus whatever the structural pre-check found.
type Loaded struct {
	Document     csaf.Document
	Version      string
	SchemaErrors validation.Errors
}

// Loader decodes documents. It is safe for concurrent use.
type Loader struct {
	logger      *zap.Logger
	checkSchema bool
	structure   *jsonschema.Schema
}

// Option configures a Loader.
type Option func(*Loader)

func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithoutSchemaCheck skips the structural JSON-schema pre-check.
func WithoutSchemaCheck() Option {
	return func(ld *Loader) { ld.checkSchema = false }
}

// NewLoader compiles the embedded structure schema.
func NewLoader(opts ...Option) (*Loader, error) {
	l := &Loader{logger: zap.NewNop(), checkSchema: true}
	for _, opt := range opts {
		opt(l)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(structureSchemaURL, strings.NewReader(structureSchema)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(structureSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	l.structure = compiled
	return l, nil
}

// LoadFile reads and decodes the document at path.
func (l *Loader) LoadFile(path string) (Loaded, error) {
	f, err := os.Open(path)
	if err != nil {
		return Loaded{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return l.Load(f)
}

// Load decodes one document. Structural problems are returned in Loaded.SchemaErrors; only
// unreadable input, invalid JSON and unknown versions are errors.
func (l *Loader) Load(r io.Reader) (Loaded, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Loaded{}, fmt.Errorf("read document: %w", err)
	}

	var probe struct {
		Document struct {
			CSAFVersion string `json:"csaf_version"`
		} `json:"document"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Loaded{}, fmt.Errorf("parse document: %w", err)
	}

	var parse func([]byte) (csaf.Document, error)
	switch v := probe.Document.CSAFVersion; v {
	case csaf20.Version:
		parse = csaf20.Parse
	case csaf21.Version:
		parse = csaf21.Parse
	default:
		return Loaded{}, fmt.Errorf("%w %q", ErrUnsupportedVersion, v)
	}

	out := Loaded{Version: probe.Document.CSAFVersion}
	if l.checkSchema {
		out.SchemaErrors, err = l.validateStructure(data)
		if err != nil {
			return Loaded{}, err
		}
	}

	out.Document, err = parse(data)
	if err != nil {
		return Loaded{}, err
	}
	l.logger.Debug("document loaded",
		zap.String("csaf_version", out.Version),
		zap.String("tracking_id", out.Document.Meta().Tracking().ID()),
		zap.Int("schema_errors", len(out.SchemaErrors)),
	)
	return out, nil
}

func (l *Loader) validateStructure(data []byte) (validation.Errors, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	err := l.structure.Validate(payload)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("validate structure: %w", err)
	}
	errs := flatten(ve, nil)
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].InstancePath != errs[j].InstancePath {
			return errs[i].InstancePath < errs[j].InstancePath
		}
		return errs[i].Message < errs[j].Message
	})
	return errs, nil
}

// flatten keeps the leaf causes; the inner nodes only repeat "doesn't validate with".
func flatten(ve *jsonschema.ValidationError, out validation.Errors) validation.Errors {
	if len(ve.Causes) == 0 {
		return append(out, validation.ValidationError{Message: ve.Message, InstancePath: ve.InstanceLocation})
	}
	for _, c := range ve.Causes {
		out = flatten(c, out)
	}
	return out
}
