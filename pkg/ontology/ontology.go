// Package ontology defines the versioned taxonomy of review aspects and the
// closed label sets allowed within each aspect. Every extracted tag and every
// review feature definition is validated against the loaded ontology, so a
// typo in configuration surfaces at load time instead of drifting scores.
package ontology

import (
	"fmt"
	"sort"

	"github.com/skylane-labs/fieldscore/pkg/apperrors"
)

// Ontology is an immutable taxonomy value. Construct one with New, LoadFile,
// or Default; never mutate it during a build run.
type Ontology struct {
	version string
	labels  map[string]map[string]struct{}
	sorted  map[string][]string
}

// New constructs an Ontology from a version stamp and an aspect→labels map.
// The input is copied, so callers may reuse or modify the map afterward.
// Fails with a validation error on a missing version, an empty aspect set,
// an aspect without labels, or a duplicate label within an aspect.
func New(version string, aspects map[string][]string) (*Ontology, error) {
	if version == "" {
		return nil, apperrors.NewValidationError(fmt.Errorf("ontology version is required"))
	}
	if len(aspects) == 0 {
		return nil, apperrors.NewValidationError(fmt.Errorf("ontology declares no aspects"))
	}

	labels := make(map[string]map[string]struct{}, len(aspects))
	sorted := make(map[string][]string, len(aspects))
	for aspect, list := range aspects {
		if aspect == "" {
			return nil, apperrors.NewValidationError(fmt.Errorf("ontology contains an aspect with an empty name"))
		}
		if len(list) == 0 {
			return nil, apperrors.NewValidationError(fmt.Errorf("aspect %q declares no labels", aspect))
		}
		set := make(map[string]struct{}, len(list))
		for _, label := range list {
			if label == "" {
				return nil, apperrors.NewValidationError(fmt.Errorf("aspect %q contains an empty label", aspect))
			}
			if _, dup := set[label]; dup {
				return nil, apperrors.NewValidationError(fmt.Errorf("aspect %q declares label %q twice", aspect, label))
			}
			set[label] = struct{}{}
		}
		labels[aspect] = set

		names := make([]string, 0, len(set))
		for label := range set {
			names = append(names, label)
		}
		sort.Strings(names)
		sorted[aspect] = names
	}

	return &Ontology{version: version, labels: labels, sorted: sorted}, nil
}

// Version returns the taxonomy version stamp, recorded in build metadata so
// consumers can tell which taxonomy produced the persisted tags.
func (o *Ontology) Version() string {
	return o.version
}

// ValidAspect reports whether name is a declared aspect.
func (o *Ontology) ValidAspect(name string) bool {
	_, ok := o.labels[name]
	return ok
}

// ValidLabel reports whether label belongs to the aspect's closed label set.
// Unknown aspects have no valid labels.
func (o *Ontology) ValidLabel(aspect, label string) bool {
	set, ok := o.labels[aspect]
	if !ok {
		return false
	}
	_, ok = set[label]
	return ok
}

// Aspects returns the declared aspect names in sorted order.
func (o *Ontology) Aspects() []string {
	names := make([]string, 0, len(o.labels))
	for name := range o.labels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Labels returns the aspect's allowed labels in sorted order, or nil for an
// unknown aspect. The returned slice is a copy.
func (o *Ontology) Labels(aspect string) []string {
	src, ok := o.sorted[aspect]
	if !ok {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}
