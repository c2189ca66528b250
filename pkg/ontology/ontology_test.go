package ontology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylane-labs/fieldscore/pkg/apperrors"
)

func TestNew_Valid(t *testing.T) {
	ont, err := New("2026.1", map[string][]string{
		"cost":        {"cheap", "reasonable", "expensive"},
		"bureaucracy": {"none", "heavy"},
	})
	require.NoError(t, err)

	assert.Equal(t, "2026.1", ont.Version())

	assert.True(t, ont.ValidAspect("cost"))
	assert.True(t, ont.ValidAspect("bureaucracy"))
	assert.False(t, ont.ValidAspect("runway_condition"))

	assert.True(t, ont.ValidLabel("cost", "cheap"))
	assert.False(t, ont.ValidLabel("cost", "heavy"))
	assert.False(t, ont.ValidLabel("runway_condition", "cheap"))

	assert.Equal(t, []string{"bureaucracy", "cost"}, ont.Aspects())
	assert.Equal(t, []string{"cheap", "expensive", "reasonable"}, ont.Labels("cost"))
	assert.Nil(t, ont.Labels("runway_condition"))
}

func TestNew_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		version string
		aspects map[string][]string
		wantMsg string
	}{
		{
			name:    "missing version",
			version: "",
			aspects: map[string][]string{"cost": {"cheap"}},
			wantMsg: "version is required",
		},
		{
			name:    "no aspects",
			version: "1",
			aspects: map[string][]string{},
			wantMsg: "no aspects",
		},
		{
			name:    "empty aspect name",
			version: "1",
			aspects: map[string][]string{"": {"cheap"}},
			wantMsg: "empty name",
		},
		{
			name:    "aspect without labels",
			version: "1",
			aspects: map[string][]string{"cost": {}},
			wantMsg: "declares no labels",
		},
		{
			name:    "empty label",
			version: "1",
			aspects: map[string][]string{"cost": {"cheap", ""}},
			wantMsg: "empty label",
		},
		{
			name:    "duplicate label",
			version: "1",
			aspects: map[string][]string{"cost": {"cheap", "cheap"}},
			wantMsg: "twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.version, tt.aspects)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err), "expected a validation error, got %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLabels_ReturnsCopy(t *testing.T) {
	ont, err := New("1", map[string][]string{"cost": {"cheap", "expensive"}})
	require.NoError(t, err)

	labels := ont.Labels("cost")
	labels[0] = "mutated"

	assert.Equal(t, []string{"cheap", "expensive"}, ont.Labels("cost"))
}

func TestParse(t *testing.T) {
	data := []byte(`
version: "9.9"
aspects:
  cost: [cheap, expensive]
  food: [great_restaurant, nothing]
`)
	ont, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "9.9", ont.Version())
	assert.True(t, ont.ValidLabel("food", "nothing"))
	assert.Equal(t, []string{"cost", "food"}, ont.Aspects())
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("aspects: [not, a, map"))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ontology.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\naspects:\n  cost: [cheap]\n"), 0o644))

	ont, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, ont.ValidLabel("cost", "cheap"))
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestDefault(t *testing.T) {
	ont := Default()

	assert.NotEmpty(t, ont.Version())
	assert.True(t, ont.ValidAspect("cost"))
	assert.True(t, ont.ValidLabel("cost", "cheap"))
	assert.True(t, ont.ValidLabel("bureaucracy", "ppr_required"))

	for _, aspect := range ont.Aspects() {
		assert.GreaterOrEqual(t, len(ont.Labels(aspect)), 2, "aspect %s should offer a real choice of labels", aspect)
	}
}
