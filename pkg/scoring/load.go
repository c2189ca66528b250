package scoring

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/skylane-labs/fieldscore/pkg/apperrors"
	"github.com/skylane-labs/fieldscore/pkg/ontology"
)

// Feature names become columns of the score table, so they are held to SQL
// identifier rules at load time.
var featureNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// scoringFile is the on-disk YAML shape of a feature mapping artifact.
type scoringFile struct {
	Version        string                       `yaml:"version"`
	ReviewFeatures map[string]reviewFeatureFile `yaml:"review_features"`
	FactFeatures   map[string]factFeatureFile   `yaml:"fact_features"`
}

type reviewFeatureFile struct {
	Aspects     map[string]float64 `yaml:"aspects"`
	LabelScores LabelScores        `yaml:"label_scores"`
}

// factFeatureFile accepts the compact single-field form (field + flat
// value_scores) and the weighted multi-field form (fields + nested
// value_scores). Both normalize into FactFeatureDef.
type factFeatureFile struct {
	Field       string             `yaml:"field"`
	Fields      map[string]float64 `yaml:"fields"`
	ValueScores yaml.Node          `yaml:"value_scores"`
}

// Load parses and validates a scoring artifact. Every aspect and label is
// resolved against the ontology and every fact field against the recognized
// field registry; unresolved references fail the load so typos can never
// silently drift scores.
func Load(data []byte, ont *ontology.Ontology, factFields []string) (*Config, error) {
	var f scoringFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, apperrors.NewValidationError(fmt.Errorf("parse scoring yaml: %w", err))
	}
	if f.Version == "" {
		return nil, apperrors.NewValidationError(fmt.Errorf("scoring version is required"))
	}
	if len(f.ReviewFeatures)+len(f.FactFeatures) == 0 {
		return nil, apperrors.NewValidationError(fmt.Errorf("scoring config declares no features"))
	}

	registry := make(map[string]struct{}, len(factFields))
	for _, field := range factFields {
		registry[field] = struct{}{}
	}

	cfg := &Config{
		version: f.Version,
		review:  make(map[string]*ReviewFeatureDef, len(f.ReviewFeatures)),
		fact:    make(map[string]*FactFeatureDef, len(f.FactFeatures)),
	}

	for _, name := range sortedKeys(f.ReviewFeatures) {
		def, err := buildReviewDef(name, f.ReviewFeatures[name], ont)
		if err != nil {
			return nil, apperrors.NewValidationError(err)
		}
		cfg.review[name] = def
		cfg.names = append(cfg.names, name)
	}
	for _, name := range sortedKeys(f.FactFeatures) {
		if _, dup := cfg.review[name]; dup {
			return nil, apperrors.NewValidationError(fmt.Errorf("feature %q declared in both families", name))
		}
		def, err := buildFactDef(name, f.FactFeatures[name], registry)
		if err != nil {
			return nil, apperrors.NewValidationError(err)
		}
		cfg.fact[name] = def
		cfg.names = append(cfg.names, name)
	}

	sort.Strings(cfg.names)
	return cfg, nil
}

// LoadFile reads and validates a scoring artifact from disk.
func LoadFile(path string, ont *ontology.Ontology, factFields []string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Errorf("read scoring file: %w", err))
	}
	cfg, err := Load(data, ont, factFields)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

func buildReviewDef(name string, raw reviewFeatureFile, ont *ontology.Ontology) (*ReviewFeatureDef, error) {
	if !featureNamePattern.MatchString(name) {
		return nil, fmt.Errorf("feature name %q is not a valid identifier", name)
	}
	if len(raw.Aspects) == 0 {
		return nil, fmt.Errorf("review feature %q reads no aspects", name)
	}
	for _, aspect := range sortedKeys(raw.Aspects) {
		if !ont.ValidAspect(aspect) {
			return nil, fmt.Errorf("review feature %q reads unknown aspect %q (ontology %s)", name, aspect, ont.Version())
		}
		if raw.Aspects[aspect] <= 0 {
			return nil, fmt.Errorf("review feature %q: aspect %q weight must be positive", name, aspect)
		}
	}

	table := raw.LabelScores
	switch {
	case len(table.Flat) > 0:
		for _, label := range sortedKeys(table.Flat) {
			if !labelInAnyAspect(ont, raw.Aspects, label) {
				return nil, fmt.Errorf("review feature %q scores label %q not allowed by any aspect it reads", name, label)
			}
			if err := checkScore(table.Flat[label]); err != nil {
				return nil, fmt.Errorf("review feature %q label %q: %w", name, label, err)
			}
		}
	case len(table.Nested) > 0:
		for _, aspect := range sortedKeys(table.Nested) {
			if _, declared := raw.Aspects[aspect]; !declared {
				return nil, fmt.Errorf("review feature %q scores aspect %q it does not read", name, aspect)
			}
			labels := table.Nested[aspect]
			if len(labels) == 0 {
				return nil, fmt.Errorf("review feature %q has an empty label table for aspect %q", name, aspect)
			}
			for _, label := range sortedKeys(labels) {
				if !ont.ValidLabel(aspect, label) {
					return nil, fmt.Errorf("review feature %q scores unknown label %q for aspect %q", name, label, aspect)
				}
				if err := checkScore(labels[label]); err != nil {
					return nil, fmt.Errorf("review feature %q label %s/%s: %w", name, aspect, label, err)
				}
			}
		}
	default:
		return nil, fmt.Errorf("review feature %q has no label_scores", name)
	}

	return &ReviewFeatureDef{Name: name, Aspects: raw.Aspects, LabelScores: table}, nil
}

func buildFactDef(name string, raw factFeatureFile, registry map[string]struct{}) (*FactFeatureDef, error) {
	if !featureNamePattern.MatchString(name) {
		return nil, fmt.Errorf("feature name %q is not a valid identifier", name)
	}
	if raw.ValueScores.Kind == 0 {
		return nil, fmt.Errorf("fact feature %q has no value_scores", name)
	}

	var fields map[string]float64
	nested := make(map[string]map[string]float64)
	switch {
	case raw.Field != "" && len(raw.Fields) > 0:
		return nil, fmt.Errorf("fact feature %q sets both field and fields", name)
	case raw.Field != "":
		var flat map[string]float64
		if err := raw.ValueScores.Decode(&flat); err != nil {
			return nil, fmt.Errorf("fact feature %q: single-field value_scores must map value to score: %w", name, err)
		}
		fields = map[string]float64{raw.Field: 1.0}
		nested[raw.Field] = flat
	case len(raw.Fields) > 0:
		if err := raw.ValueScores.Decode(&nested); err != nil {
			return nil, fmt.Errorf("fact feature %q: multi-field value_scores must map field to value to score: %w", name, err)
		}
		fields = raw.Fields
	default:
		return nil, fmt.Errorf("fact feature %q reads no fields", name)
	}

	for _, field := range sortedKeys(fields) {
		if _, ok := registry[field]; !ok {
			return nil, fmt.Errorf("fact feature %q reads unrecognized field %q", name, field)
		}
		if fields[field] <= 0 {
			return nil, fmt.Errorf("fact feature %q: field %q weight must be positive", name, field)
		}
		table := nested[field]
		if len(table) == 0 {
			return nil, fmt.Errorf("fact feature %q has no value_scores for field %q", name, field)
		}
		for _, value := range sortedKeys(table) {
			if err := checkScore(table[value]); err != nil {
				return nil, fmt.Errorf("fact feature %q field %q value %q: %w", name, field, value, err)
			}
		}
	}
	for _, field := range sortedKeys(nested) {
		if _, declared := fields[field]; !declared {
			return nil, fmt.Errorf("fact feature %q scores field %q it does not read", name, field)
		}
	}

	return &FactFeatureDef{Name: name, Fields: fields, ValueScores: nested}, nil
}

func labelInAnyAspect(ont *ontology.Ontology, aspects map[string]float64, label string) bool {
	for aspect := range aspects {
		if ont.ValidLabel(aspect, label) {
			return true
		}
	}
	return false
}

func checkScore(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("score %v outside [0,1]", v)
	}
	return nil
}
