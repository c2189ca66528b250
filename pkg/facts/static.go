package facts

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/skylane-labs/fieldscore/pkg/apperrors"
	"github.com/skylane-labs/fieldscore/pkg/models"
)

// StaticSource serves fields from an in-memory map. It backs the -facts file
// option for offline builds and stands in for a live database in tests.
type StaticSource struct {
	values map[string]models.FactValues
}

// Compile-time check that StaticSource implements Source.
var _ Source = (*StaticSource)(nil)

// NewStatic creates a static source. Values are canonicalized on the way in;
// a nil map yields a source that knows nothing, which keeps the pipeline
// code uniform when no facts are configured.
func NewStatic(values map[string]models.FactValues) *StaticSource {
	copied := make(map[string]models.FactValues, len(values))
	for ident, fields := range values {
		row := make(models.FactValues, len(fields))
		for field, value := range fields {
			row[field] = CanonicalValue(value)
		}
		copied[ident] = row
	}
	return &StaticSource{values: copied}
}

// staticFile is the on-disk YAML shape of a facts artifact. Values that YAML
// would read as booleans (yes/no) must be quoted.
type staticFile struct {
	Airports map[string]map[string]string `yaml:"airports"`
}

// LoadStaticFile reads a facts artifact from disk. Unrecognized field names
// fail the load: the file is operator-authored configuration and a typo
// should surface immediately.
func LoadStaticFile(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Errorf("read facts file: %w", err))
	}

	var f staticFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, apperrors.NewValidationError(fmt.Errorf("parse facts yaml: %w", err))
	}

	values := make(map[string]models.FactValues, len(f.Airports))
	for ident, fields := range f.Airports {
		if ident == "" {
			return nil, apperrors.NewValidationError(fmt.Errorf("facts file contains an empty airport ident"))
		}
		row := make(models.FactValues, len(fields))
		for field, value := range fields {
			if !IsRecognizedField(field) {
				return nil, apperrors.NewValidationError(fmt.Errorf("facts file: airport %s has unrecognized field %q", ident, field))
			}
			row[field] = value
		}
		values[ident] = row
	}

	return NewStatic(values), nil
}

// Values returns a copy of the airport's fields.
func (s *StaticSource) Values(_ context.Context, ident string) (models.FactValues, error) {
	row := s.values[ident]
	out := make(models.FactValues, len(row))
	for field, value := range row {
		out[field] = value
	}
	return out, nil
}

// Fields returns the full registry: a static source can carry any field.
func (s *StaticSource) Fields() []string {
	return Fields()
}

// Close is a no-op for the in-memory source.
func (s *StaticSource) Close() error {
	return nil
}
