// Package facts is the read-only boundary to official aeronautical
// information. Sources expose raw string fields per airport ident; the
// scoring config's fact feature tables interpret them. This system never
// writes to a fact source and never sees its internal row ids, only the
// ident join key.
package facts

import (
	"context"
	"sort"
	"strings"

	"github.com/skylane-labs/fieldscore/pkg/models"
)

// Recognized raw fields. Fact feature definitions are validated against this
// registry at load time, so a typo in a field name can never silently zero
// a score.
const (
	FieldProcedureCapability = "procedure_capability"
	FieldCustomsAvailable    = "customs_available"
	FieldFuelAvgas           = "fuel_avgas"
	FieldFuelJetA            = "fuel_jet_a"
	FieldMaintenance         = "maintenance"
)

// Fields returns the recognized field registry in sorted order.
func Fields() []string {
	fields := []string{
		FieldProcedureCapability,
		FieldCustomsAvailable,
		FieldFuelAvgas,
		FieldFuelJetA,
		FieldMaintenance,
	}
	sort.Strings(fields)
	return fields
}

// IsRecognizedField reports whether name is in the registry.
func IsRecognizedField(name string) bool {
	for _, f := range Fields() {
		if f == name {
			return true
		}
	}
	return false
}

// Source is a read-only provider of official airport fields.
// Each implementation owns its connection and must be closed when done.
type Source interface {
	// Values returns the raw fields known for one airport, canonicalized
	// to trimmed lowercase. A missing airport yields an empty map and no
	// error: absence of facts is data, not a failure.
	Values(ctx context.Context, ident string) (models.FactValues, error)

	// Fields lists the registry fields this source can serve. The build
	// warns when a configured fact feature reads a field outside it.
	Fields() []string

	// Close releases the underlying connection.
	Close() error
}

// CanonicalValue normalizes a raw field value so the scoring tables match
// without per-source casing rules.
func CanonicalValue(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
