package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skylane-labs/fieldscore/pkg/apperrors"
	"github.com/skylane-labs/fieldscore/pkg/database"
	"github.com/skylane-labs/fieldscore/pkg/facts"
	"github.com/skylane-labs/fieldscore/pkg/models"
	"github.com/skylane-labs/fieldscore/pkg/repositories"
	"github.com/skylane-labs/fieldscore/pkg/scoring"
)

// newScoreEnv opens a migrated in-memory store with all test feature columns
// and returns the loaded configs alongside it.
func newScoreEnv(t *testing.T) (*database.Store, *scoring.Config, *scoring.PersonaSet) {
	t.Helper()

	store, err := database.Open(&database.Config{Path: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate())

	ont := testOntology(t)
	cfg, err := scoring.Load([]byte(testScoringYAML), ont, facts.Fields())
	require.NoError(t, err)
	personas, err := scoring.LoadPersonas([]byte(testPersonasYAML), cfg, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, store.ReconcileFeatureColumns(context.Background(), cfg.FeatureNames()))
	return store, cfg, personas
}

func seedScores(t *testing.T, store *database.Store, ident string, values map[string]*float64) {
	t.Helper()
	features := make([]string, 0, len(values))
	for f := range values {
		features = append(features, f)
	}
	err := repositories.NewScoresRepository().Upsert(
		context.Background(), store.DB(),
		&models.FeatureScores{AirportIdent: ident, Values: values},
		features, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
}

func TestScoreServiceScorePersona(t *testing.T) {
	ctx := context.Background()
	store, cfg, personas := newScoreEnv(t)
	svc := NewScoreService(store, cfg, personas, zap.NewNop())

	cost := 0.8
	customs := 1.0
	seedScores(t, store, "EDKA", map[string]*float64{
		"cost":        &cost,
		"hospitality": nil,
		"customs":     &customs,
	})

	score, err := svc.ScorePersona(ctx, "EDKA", "touring")
	require.NoError(t, err)
	assert.Equal(t, "EDKA", score.AirportIdent)
	assert.Equal(t, "touring", score.PersonaID)
	// (0.5*0.8 + 0.3*0.5 neutral + 0.2*1.0) / 1.0
	assert.InDelta(t, 0.75, score.Score, 1e-9)
	assert.Equal(t, 2, score.FeaturesPresent)
	assert.Equal(t, 1, score.FeaturesMissing)
}

func TestScoreServiceScorePersona_AllNull(t *testing.T) {
	ctx := context.Background()
	store, cfg, personas := newScoreEnv(t)
	svc := NewScoreService(store, cfg, personas, zap.NewNop())

	seedScores(t, store, "EDKA", map[string]*float64{
		"cost":        nil,
		"hospitality": nil,
		"customs":     nil,
	})

	// Both neutral substitutions, customs excluded: the score lands on the
	// documented no-data value.
	score, err := svc.ScorePersona(ctx, "EDKA", "touring")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score.Score, 1e-9)
	assert.Equal(t, 0, score.FeaturesPresent)
	assert.Equal(t, 3, score.FeaturesMissing)
}

func TestScoreServiceScorePersona_UnknownPersona(t *testing.T) {
	store, cfg, personas := newScoreEnv(t)
	svc := NewScoreService(store, cfg, personas, zap.NewNop())

	_, err := svc.ScorePersona(context.Background(), "EDKA", "astronaut")
	require.ErrorIs(t, err, apperrors.ErrPersonaUnknown)
}

func TestScoreServiceScorePersona_UnscoredAirport(t *testing.T) {
	store, cfg, personas := newScoreEnv(t)
	svc := NewScoreService(store, cfg, personas, zap.NewNop())

	_, err := svc.ScorePersona(context.Background(), "ZZZZ", "touring")
	require.ErrorIs(t, err, apperrors.ErrAirportNotScored)
}

func TestScoreServiceFeatureScores_DeclaredButUnbuilt(t *testing.T) {
	ctx := context.Background()

	store, err := database.Open(&database.Config{Path: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate())

	ont := testOntology(t)
	cfg, err := scoring.Load([]byte(testScoringYAML), ont, facts.Fields())
	require.NoError(t, err)
	personas, err := scoring.LoadPersonas([]byte(testPersonasYAML), cfg, zap.NewNop())
	require.NoError(t, err)

	// The store predates the customs feature: only review columns exist.
	require.NoError(t, store.ReconcileFeatureColumns(ctx, []string{"cost", "hospitality"}))
	cost := 0.8
	seedScores(t, store, "EDKA", map[string]*float64{
		"cost":        &cost,
		"hospitality": nil,
	})

	svc := NewScoreService(store, cfg, personas, zap.NewNop())
	scores, err := svc.FeatureScores(ctx, "EDKA")
	require.NoError(t, err)

	val, ok := scores.Values["customs"]
	require.True(t, ok, "declared features always appear in the result")
	assert.Nil(t, val)

	// Unbuilt features flow through the missing policy: customs excluded,
	// so (0.5*0.8 + 0.3*0.5) / 0.8.
	score, err := svc.ScorePersona(ctx, "EDKA", "touring")
	require.NoError(t, err)
	assert.InDelta(t, 0.6875, score.Score, 1e-9)
}

func TestScoreServiceFeature(t *testing.T) {
	ctx := context.Background()
	store, cfg, personas := newScoreEnv(t)
	svc := NewScoreService(store, cfg, personas, zap.NewNop())

	cost := 0.8
	seedScores(t, store, "EDKA", map[string]*float64{
		"cost":        &cost,
		"hospitality": nil,
		"customs":     nil,
	})

	val, err := svc.Feature(ctx, "EDKA", "cost")
	require.NoError(t, err)
	require.NotNil(t, val)
	assert.InDelta(t, 0.8, *val, 1e-9)

	val, err = svc.Feature(ctx, "EDKA", "hospitality")
	require.NoError(t, err)
	assert.Nil(t, val, "null means insufficient data, not zero")

	_, err = svc.Feature(ctx, "EDKA", "runway_length")
	require.ErrorIs(t, err, apperrors.ErrFeatureUnknown)
}

func TestScoreServiceAirportsAndMeta(t *testing.T) {
	ctx := context.Background()
	store, cfg, personas := newScoreEnv(t)
	svc := NewScoreService(store, cfg, personas, zap.NewNop())

	cost := 0.5
	seedScores(t, store, "LFAT", map[string]*float64{"cost": &cost})
	seedScores(t, store, "EDKA", map[string]*float64{"cost": &cost})

	idents, err := svc.Airports(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"EDKA", "LFAT"}, idents)

	metaRepo := repositories.NewMetaRepository()
	require.NoError(t, metaRepo.Set(ctx, store.DB(), models.MetaBuildID, "build-123"))

	meta, err := svc.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, "build-123", meta[models.MetaBuildID])
}

func TestScoreServiceSummaryAndPersonas(t *testing.T) {
	ctx := context.Background()
	store, cfg, personas := newScoreEnv(t)
	svc := NewScoreService(store, cfg, personas, zap.NewNop())

	_, err := svc.Summary(ctx, "EDKA")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	err = repositories.NewSummariesRepository().Upsert(ctx, store.DB(), &models.AirportSummary{
		AirportIdent: "EDKA",
		Summary:      "Friendly field with cheap fees.",
		ReviewCount:  4,
		GeneratedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, "EDKA")
	require.NoError(t, err)
	assert.Equal(t, 4, summary.ReviewCount)

	all := svc.Personas()
	require.Len(t, all, 1)
	assert.Equal(t, "touring", all[0].ID)
}
