// Package bundle loads a model bundle: the abstract interconnect database,
// its naming tables and a concrete grid, from one YAML document.
//
// Documents are checked against an embedded CUE schema before conversion,
// so a misspelled field fails loudly instead of silently defaulting.
package bundle

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/OpenTraceFabric/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/intdb"
	"github.com/OpenTraceLab/OpenTraceFabric/pkg/naming"
)

//go:embed schema.cue
var schemaSource []byte

// Bundle is a loaded model.
type Bundle struct {
	DB     *intdb.IntDb
	Naming *naming.NamingDb
	Grid   *grid.ExpandedGrid
}

// Validator checks bundle documents against the schema.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource)
	if schema.Err() != nil {
		return nil, fmt.Errorf("bundle: compiling schema: %w", schema.Err())
	}
	return &Validator{ctx: ctx, schema: schema}, nil
}

// Validate checks a decoded document tree.
func (v *Validator) Validate(tree any) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("bundle: marshaling document: %w", err)
	}
	return v.ValidateJSON(data)
}

// ValidateJSON checks a document given as JSON.
func (v *Validator) ValidateJSON(data []byte) error {
	value := v.ctx.CompileBytes(data)
	if value.Err() != nil {
		return fmt.Errorf("bundle: compiling document: %w", value.Err())
	}
	def := v.schema.LookupPath(cue.ParsePath("#Bundle"))
	if def.Err() != nil {
		return fmt.Errorf("bundle: looking up #Bundle: %w", def.Err())
	}
	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("bundle: schema validation failed: %w", err)
	}
	return nil
}

// Parse decodes and validates a YAML document without building it.
func Parse(data []byte) (*Document, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("bundle: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("bundle: empty document")
	}
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	if err := v.Validate(tree); err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("bundle: %w", err)
	}
	return &doc, nil
}

// Load reads, validates and builds a bundle.
func Load(r io.Reader) (*Bundle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("bundle: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

// LoadFile loads a bundle from a file.
func LoadFile(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bundle: %w", err)
	}
	defer f.Close()
	b, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}
