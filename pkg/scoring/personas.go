package scoring

import (
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/skylane-labs/fieldscore/pkg/apperrors"
	"github.com/skylane-labs/fieldscore/pkg/models"
)

// weightSumTolerance bounds how far a persona's weight sum may drift from
// 1.0 before loading logs a warning. The scoring formula self-normalizes,
// so drift reads badly but computes correctly.
const weightSumTolerance = 0.01

// personasFile is the on-disk YAML shape of a personas artifact.
type personasFile struct {
	Version  string            `yaml:"version"`
	Personas []*models.Persona `yaml:"personas"`
}

// PersonaSet is the validated persona configuration for one process. Adding
// or tuning a persona never touches persisted feature scores.
type PersonaSet struct {
	version  string
	personas map[string]*models.Persona
	order    []string
}

// LoadPersonas parses and validates a personas artifact against the loaded
// scoring config. A weight on an unknown feature fails the load; a weight
// sum away from 1.0 only warns.
func LoadPersonas(data []byte, cfg *Config, logger *zap.Logger) (*PersonaSet, error) {
	log := logger.Named("personas")

	var f personasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, apperrors.NewValidationError(fmt.Errorf("parse personas yaml: %w", err))
	}
	if f.Version == "" {
		return nil, apperrors.NewValidationError(fmt.Errorf("personas version is required"))
	}
	if len(f.Personas) == 0 {
		return nil, apperrors.NewValidationError(fmt.Errorf("personas config declares no personas"))
	}

	set := &PersonaSet{
		version:  f.Version,
		personas: make(map[string]*models.Persona, len(f.Personas)),
	}

	for _, p := range f.Personas {
		if p == nil || p.ID == "" {
			return nil, apperrors.NewValidationError(fmt.Errorf("persona without an id"))
		}
		if _, dup := set.personas[p.ID]; dup {
			return nil, apperrors.NewValidationError(fmt.Errorf("persona %q declared twice", p.ID))
		}
		if len(p.Weights) == 0 {
			return nil, apperrors.NewValidationError(fmt.Errorf("persona %q has no weights", p.ID))
		}
		if p.Label == "" {
			p.Label = p.ID
		}

		for _, feature := range sortedKeys(p.Weights) {
			if !cfg.IsFeature(feature) {
				return nil, apperrors.NewValidationError(fmt.Errorf("persona %q weights unknown feature %q", p.ID, feature))
			}
			if p.Weights[feature] < 0 {
				return nil, apperrors.NewValidationError(fmt.Errorf("persona %q: feature %q weight must not be negative", p.ID, feature))
			}
		}
		for _, feature := range sortedKeys(p.Missing) {
			if !cfg.IsFeature(feature) {
				return nil, apperrors.NewValidationError(fmt.Errorf("persona %q sets missing policy for unknown feature %q", p.ID, feature))
			}
			if !models.IsValidMissingPolicy(string(p.Missing[feature])) {
				return nil, apperrors.NewValidationError(fmt.Errorf("persona %q: unknown missing policy %q for feature %q", p.ID, p.Missing[feature], feature))
			}
		}

		if sum := p.TotalWeight(); math.Abs(sum-1.0) > weightSumTolerance {
			log.Warn("persona weights do not sum to 1.0; the formula self-normalizes but the file is harder to read",
				zap.String("persona", p.ID),
				zap.Float64("weight_sum", sum))
		}

		set.personas[p.ID] = p
		set.order = append(set.order, p.ID)
	}

	return set, nil
}

// LoadPersonasFile reads and validates a personas artifact from disk.
func LoadPersonasFile(path string, cfg *Config, logger *zap.Logger) (*PersonaSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Errorf("read personas file: %w", err))
	}
	set, err := LoadPersonas(data, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return set, nil
}

// Version returns the personas version stamp recorded in build metadata.
func (s *PersonaSet) Version() string {
	return s.version
}

// Get returns a persona by id, or ErrPersonaUnknown.
func (s *PersonaSet) Get(id string) (*models.Persona, error) {
	p, ok := s.personas[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrPersonaUnknown, id)
	}
	return p, nil
}

// All returns the personas in declaration order.
func (s *PersonaSet) All() []*models.Persona {
	out := make([]*models.Persona, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.personas[id])
	}
	return out
}

// Score computes one persona's friendliness score from an airport's feature
// values. Per feature with positive weight: a present value is used as is; a
// missing one goes through the persona's missing policy, where exclude also
// removes the feature's weight from the denominator. Zero-weight features
// are ignored outright, missing or not. When nothing contributes weight the
// score is the documented neutral default of 0.5.
func Score(p *models.Persona, features *models.FeatureScores) *models.PersonaScore {
	total := 0.0
	totalWeight := 0.0
	present := 0
	missing := 0

	for _, name := range sortedKeys(p.Weights) {
		weight := p.Weights[name]
		if weight <= 0 {
			continue
		}

		if value, ok := features.Value(name); ok {
			total += weight * value
			totalWeight += weight
			present++
			continue
		}

		missing++
		substitute, include := p.MissingPolicyFor(name).Substitute()
		if !include {
			continue
		}
		total += weight * substitute
		totalWeight += weight
	}

	score := 0.5
	if totalWeight > 0 {
		score = total / totalWeight
	}

	return &models.PersonaScore{
		AirportIdent:    features.AirportIdent,
		PersonaID:       p.ID,
		Score:           score,
		FeaturesPresent: present,
		FeaturesMissing: missing,
	}
}
