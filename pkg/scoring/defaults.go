package scoring

import (
	_ "embed"

	"go.uber.org/zap"

	"github.com/skylane-labs/fieldscore/pkg/ontology"
)

//go:embed default.yaml
var defaultYAML []byte

//go:embed personas.yaml
var defaultPersonasYAML []byte

// Default returns the built-in feature mappings validated against the given
// ontology and fact field registry. Unlike the embedded ontology this can
// fail, since a custom ontology may not cover the built-in mappings.
func Default(ont *ontology.Ontology, factFields []string) (*Config, error) {
	return Load(defaultYAML, ont, factFields)
}

// DefaultPersonas returns the built-in personas validated against cfg.
func DefaultPersonas(cfg *Config, logger *zap.Logger) (*PersonaSet, error) {
	return LoadPersonas(defaultPersonasYAML, cfg, logger)
}
