package ontology

import (
	_ "embed"
	"fmt"
)

//go:embed default.yaml
var defaultYAML []byte

// Default returns the built-in taxonomy, used when no ontology file is
// configured. Panics if the embedded artifact is invalid, which can only
// happen through a bad edit to default.yaml.
func Default() *Ontology {
	ont, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default ontology is invalid: %v", err))
	}
	return ont
}
