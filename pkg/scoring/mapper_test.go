package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylane-labs/fieldscore/pkg/models"
)

func costDef() *ReviewFeatureDef {
	return &ReviewFeatureDef{
		Name:    "cost",
		Aspects: map[string]float64{"cost": 1.0},
		LabelScores: LabelScores{
			Flat: map[string]float64{"cheap": 0.9, "reasonable": 0.6},
		},
	}
}

func TestReviewFeature_ConfidenceWeightedAverage(t *testing.T) {
	dists := Aggregate([]models.Tag{
		{AirportIdent: "AAAA", Aspect: "cost", Label: "cheap", Confidence: 0.9},
		{AirportIdent: "AAAA", Aspect: "cost", Label: "reasonable", Confidence: 0.3},
	})

	got := ReviewFeature(costDef(), dists)

	require.NotNil(t, got)
	assert.InDelta(t, 0.825, *got, 1e-9, "(0.9*0.9+0.3*0.6)/(0.9+0.3)")
}

func TestReviewFeature_NoData(t *testing.T) {
	got := ReviewFeature(costDef(), models.Distributions{})
	assert.Nil(t, got, "no aspect data must yield nil, not a number")
}

func TestReviewFeature_UnscoredLabelContributesNothing(t *testing.T) {
	// "expensive" is outside the table; its confidence mass must drop out of
	// the denominator instead of dragging the score down.
	dists := models.Distributions{
		"cost": {"cheap": 0.8, "expensive": 0.4},
	}
	def := &ReviewFeatureDef{
		Name:        "cost",
		Aspects:     map[string]float64{"cost": 1.0},
		LabelScores: LabelScores{Flat: map[string]float64{"cheap": 0.9}},
	}

	got := ReviewFeature(def, dists)

	require.NotNil(t, got)
	assert.InDelta(t, 0.9, *got, 1e-9)
}

func TestReviewFeature_AspectWithOnlyUnscoredLabels(t *testing.T) {
	dists := models.Distributions{
		"cost": {"expensive": 1.0},
	}
	def := &ReviewFeatureDef{
		Name:        "cost",
		Aspects:     map[string]float64{"cost": 1.0},
		LabelScores: LabelScores{Flat: map[string]float64{"cheap": 0.9}},
	}

	assert.Nil(t, ReviewFeature(def, dists))
}

func TestReviewFeature_MissingAspectExcludedFromNormalization(t *testing.T) {
	def := &ReviewFeatureDef{
		Name:    "hospitality",
		Aspects: map[string]float64{"hospitality": 0.7, "food": 0.3},
		LabelScores: LabelScores{
			Nested: map[string]map[string]float64{
				"hospitality": {"welcoming": 1.0, "unfriendly": 0.0},
				"food":        {"great_restaurant": 1.0},
			},
		},
	}
	// Only hospitality tags exist; food's 0.3 weight must not dilute.
	dists := models.Distributions{
		"hospitality": {"welcoming": 0.5},
	}

	got := ReviewFeature(def, dists)

	require.NotNil(t, got)
	assert.InDelta(t, 1.0, *got, 1e-9)
}

func TestReviewFeature_CrossAspectWeighting(t *testing.T) {
	def := &ReviewFeatureDef{
		Name:    "hospitality",
		Aspects: map[string]float64{"hospitality": 0.7, "food": 0.3},
		LabelScores: LabelScores{
			Nested: map[string]map[string]float64{
				"hospitality": {"welcoming": 1.0},
				"food":        {"nothing": 0.0},
			},
		},
	}
	dists := models.Distributions{
		"hospitality": {"welcoming": 2.0},
		"food":        {"nothing": 1.0},
	}

	got := ReviewFeature(def, dists)

	require.NotNil(t, got)
	assert.InDelta(t, 0.7, *got, 1e-9, "0.7*1.0 + 0.3*0.0")
}

func ifrDef() *FactFeatureDef {
	return &FactFeatureDef{
		Name:   "ifr",
		Fields: map[string]float64{"procedure_capability": 1.0},
		ValueScores: map[string]map[string]float64{
			"procedure_capability": {"precision": 1.0, "rnav": 0.7, "none": 0.0},
		},
	}
}

func TestFactFeature_SingleFieldLookup(t *testing.T) {
	got := FactFeature(ifrDef(), models.FactValues{"procedure_capability": "precision"})
	require.NotNil(t, got)
	assert.InDelta(t, 1.0, *got, 1e-9)

	got = FactFeature(ifrDef(), models.FactValues{"procedure_capability": "rnav"})
	require.NotNil(t, got)
	assert.InDelta(t, 0.7, *got, 1e-9)
}

func TestFactFeature_AbsentFieldYieldsNil(t *testing.T) {
	assert.Nil(t, FactFeature(ifrDef(), models.FactValues{}))
	assert.Nil(t, FactFeature(ifrDef(), nil))
}

func TestFactFeature_UnknownValueContributesNothing(t *testing.T) {
	assert.Nil(t, FactFeature(ifrDef(), models.FactValues{"procedure_capability": "ils_cat_iiib"}))
}

func TestFactFeature_AbsentFieldExcludedFromNormalization(t *testing.T) {
	def := &FactFeatureDef{
		Name:   "services",
		Fields: map[string]float64{"fuel_avgas": 0.4, "fuel_jet_a": 0.2, "maintenance": 0.4},
		ValueScores: map[string]map[string]float64{
			"fuel_avgas":  {"yes": 1.0, "no": 0.0},
			"fuel_jet_a":  {"yes": 1.0, "no": 0.0},
			"maintenance": {"yes": 1.0, "no": 0.0},
		},
	}

	got := FactFeature(def, models.FactValues{"fuel_avgas": "yes"})
	require.NotNil(t, got)
	assert.InDelta(t, 1.0, *got, 1e-9, "only avgas known; its weight renormalizes to 1")

	got = FactFeature(def, models.FactValues{"fuel_avgas": "yes", "maintenance": "no"})
	require.NotNil(t, got)
	assert.InDelta(t, 0.5, *got, 1e-9, "(0.4*1+0.4*0)/0.8")
}

func TestScores_EveryFeatureAlwaysPresent(t *testing.T) {
	cfg := loadTestConfig(t)

	scores := cfg.Scores("LFAT", models.Distributions{}, models.FactValues{})

	assert.Equal(t, "LFAT", scores.AirportIdent)
	assert.Len(t, scores.Values, len(cfg.FeatureNames()))
	for name, value := range scores.Values {
		assert.Nil(t, value, "feature %s must be null with no data", name)
	}
	assert.Equal(t, 0, scores.Present())
}

func TestScores_MixedFamilies(t *testing.T) {
	cfg := loadTestConfig(t)

	dists := Aggregate([]models.Tag{
		{AirportIdent: "LFAT", Aspect: "cost", Label: "cheap", Confidence: 0.9},
		{AirportIdent: "LFAT", Aspect: "cost", Label: "reasonable", Confidence: 0.3},
	})
	facts := models.FactValues{"procedure_capability": "precision"}

	scores := cfg.Scores("LFAT", dists, facts)

	cost, ok := scores.Value("cost")
	require.True(t, ok)
	assert.InDelta(t, 0.825, cost, 1e-9)

	ifr, ok := scores.Value("ifr")
	require.True(t, ok)
	assert.InDelta(t, 1.0, ifr, 1e-9)

	_, ok = scores.Value("hassle")
	assert.False(t, ok, "hassle has no tags and must stay null")
}
