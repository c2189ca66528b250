package ontology

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/skylane-labs/fieldscore/pkg/apperrors"
)

// ontologyFile is the on-disk YAML shape of an ontology artifact:
//
//	version: "2026.1"
//	aspects:
//	  cost: [cheap, reasonable, expensive]
type ontologyFile struct {
	Version string              `yaml:"version"`
	Aspects map[string][]string `yaml:"aspects"`
}

// Parse builds an Ontology from raw YAML bytes.
func Parse(data []byte) (*Ontology, error) {
	var f ontologyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, apperrors.NewValidationError(fmt.Errorf("parse ontology yaml: %w", err))
	}
	return New(f.Version, f.Aspects)
}

// LoadFile reads and parses an ontology artifact from disk.
func LoadFile(path string) (*Ontology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Errorf("read ontology file: %w", err))
	}
	ont, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ont, nil
}
