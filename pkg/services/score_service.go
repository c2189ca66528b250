package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/skylane-labs/fieldscore/pkg/apperrors"
	"github.com/skylane-labs/fieldscore/pkg/database"
	"github.com/skylane-labs/fieldscore/pkg/models"
	"github.com/skylane-labs/fieldscore/pkg/repositories"
	"github.com/skylane-labs/fieldscore/pkg/scoring"
)

// ScoreService is the runtime read path over the persisted store. Persona
// scores are computed on demand from stored feature values and are never
// persisted, so tuning a persona requires no rebuild.
type ScoreService interface {
	// ScorePersona computes one persona's score for one airport. Returns
	// apperrors.ErrPersonaUnknown or apperrors.ErrAirportNotScored in
	// their respective cases.
	ScorePersona(ctx context.Context, ident, personaID string) (*models.PersonaScore, error)

	// FeatureScores returns the persisted feature values for one airport.
	// A feature declared in the current scoring config but absent from the
	// store (no build since it was declared) reads as missing data.
	FeatureScores(ctx context.Context, ident string) (*models.FeatureScores, error)

	// Feature returns one feature value for one airport; nil means the
	// store holds no data for it. Returns apperrors.ErrFeatureUnknown for
	// names outside the scoring config.
	Feature(ctx context.Context, ident, feature string) (*float64, error)

	// Summary returns the stored review summary for one airport, or
	// apperrors.ErrNotFound when none was generated.
	Summary(ctx context.Context, ident string) (*models.AirportSummary, error)

	// Airports lists every scored ident in sorted order.
	Airports(ctx context.Context) ([]string, error)

	// Meta returns the build metadata stamped by the last run.
	Meta(ctx context.Context) (map[string]string, error)

	// Personas lists the loaded personas in declaration order.
	Personas() []*models.Persona
}

type scoreService struct {
	store      *database.Store
	scoringCfg *scoring.Config
	personas   *scoring.PersonaSet
	features   []string
	logger     *zap.Logger

	scoresRepo    repositories.ScoresRepository
	summariesRepo repositories.SummariesRepository
	metaRepo      repositories.MetaRepository
}

// NewScoreService creates the read-path service over an opened store.
func NewScoreService(
	store *database.Store,
	scoringCfg *scoring.Config,
	personas *scoring.PersonaSet,
	logger *zap.Logger,
) ScoreService {
	return &scoreService{
		store:         store,
		scoringCfg:    scoringCfg,
		personas:      personas,
		features:      scoringCfg.FeatureNames(),
		logger:        logger.Named("score-service"),
		scoresRepo:    repositories.NewScoresRepository(),
		summariesRepo: repositories.NewSummariesRepository(),
		metaRepo:      repositories.NewMetaRepository(),
	}
}

// ScorePersona computes one persona's score for one airport.
func (s *scoreService) ScorePersona(ctx context.Context, ident, personaID string) (*models.PersonaScore, error) {
	persona, err := s.personas.Get(personaID)
	if err != nil {
		return nil, err
	}

	features, err := s.FeatureScores(ctx, ident)
	if err != nil {
		return nil, err
	}

	score := scoring.Score(persona, features)
	s.logger.Debug("Scored persona",
		zap.String("airport_ident", ident),
		zap.String("persona", personaID),
		zap.Float64("score", score.Score),
		zap.Int("features_present", score.FeaturesPresent),
		zap.Int("features_missing", score.FeaturesMissing))
	return score, nil
}

// FeatureScores returns the persisted feature values for one airport.
func (s *scoreService) FeatureScores(ctx context.Context, ident string) (*models.FeatureScores, error) {
	cols, err := s.store.FeatureColumns(ctx)
	if err != nil {
		return nil, fmt.Errorf("inspect score columns: %w", err)
	}
	colSet := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		colSet[c] = struct{}{}
	}

	stored := make([]string, 0, len(s.features))
	for _, f := range s.features {
		if _, ok := colSet[f]; ok {
			stored = append(stored, f)
		}
	}

	scores, err := s.scoresRepo.Get(ctx, s.store.DB(), ident, stored)
	if err != nil {
		return nil, err
	}

	// Features declared after the last build have no column yet. They read
	// as null, which the persona engine treats through its missing policy.
	for _, f := range s.features {
		if _, ok := scores.Values[f]; !ok {
			scores.Values[f] = nil
		}
	}
	return scores, nil
}

// Feature returns one feature value for one airport.
func (s *scoreService) Feature(ctx context.Context, ident, feature string) (*float64, error) {
	if !s.scoringCfg.IsFeature(feature) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrFeatureUnknown, feature)
	}
	scores, err := s.FeatureScores(ctx, ident)
	if err != nil {
		return nil, err
	}
	return scores.Values[feature], nil
}

// Summary returns the stored review summary for one airport.
func (s *scoreService) Summary(ctx context.Context, ident string) (*models.AirportSummary, error) {
	return s.summariesRepo.Get(ctx, s.store.DB(), ident)
}

// Airports lists every scored ident.
func (s *scoreService) Airports(ctx context.Context) ([]string, error) {
	return s.scoresRepo.Idents(ctx, s.store.DB())
}

// Meta returns the build metadata stamped by the last run.
func (s *scoreService) Meta(ctx context.Context) (map[string]string, error) {
	return s.metaRepo.All(ctx, s.store.DB())
}

// Personas lists the loaded personas.
func (s *scoreService) Personas() []*models.Persona {
	return s.personas.All()
}

var _ ScoreService = (*scoreService)(nil)
