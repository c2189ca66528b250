// Package reviews supplies raw pilot reviews to the build pipeline.
//
// Sources are the ingestion boundary: the pipeline asks a Source for the
// full review set once per run, groups it by airport, and never sees the
// transport the source pulled from. Review text lives only inside the run;
// nothing in this package persists it.
package reviews

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/skylane-labs/fieldscore/pkg/models"
)

// Source delivers the raw reviews for one build run.
type Source interface {
	// Reviews returns every review the source currently holds. Order is the
	// source's own; callers group and sort downstream.
	Reviews(ctx context.Context) ([]models.RawReview, error)

	// SourceVersion identifies the dataset revision for build metadata.
	SourceVersion() string
}

// ============================================================================
// Static Source
// ============================================================================

// StaticSource serves a fixed in-memory review list. Useful in tests and for
// wiring an already-parsed batch through the pipeline.
type StaticSource struct {
	reviews []models.RawReview
	version string
}

var _ Source = (*StaticSource)(nil)

// NewStatic creates a source over the given reviews. The slice is copied so
// later mutation by the caller cannot leak into a run.
func NewStatic(version string, reviews []models.RawReview) *StaticSource {
	owned := make([]models.RawReview, len(reviews))
	copy(owned, reviews)
	return &StaticSource{reviews: owned, version: version}
}

func (s *StaticSource) Reviews(_ context.Context) ([]models.RawReview, error) {
	out := make([]models.RawReview, len(s.reviews))
	copy(out, s.reviews)
	return out, nil
}

func (s *StaticSource) SourceVersion() string {
	return s.version
}

// ============================================================================
// Merged Source
// ============================================================================

// Merged concatenates several sources into one stream. When two sources
// deliver a review with the same fingerprint, the earlier source wins and
// the later copy is dropped.
type Merged struct {
	sources []Source
	logger  *zap.Logger
}

var _ Source = (*Merged)(nil)

// Merge combines sources in precedence order.
func Merge(logger *zap.Logger, sources ...Source) *Merged {
	return &Merged{sources: sources, logger: logger.Named("reviews-merge")}
}

func (m *Merged) Reviews(ctx context.Context) ([]models.RawReview, error) {
	seen := make(map[string]struct{})
	var out []models.RawReview

	for _, src := range m.sources {
		batch, err := src.Reviews(ctx)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.SourceVersion(), err)
		}

		dropped := 0
		for _, r := range batch {
			fp := r.Fingerprint()
			if _, ok := seen[fp]; ok {
				dropped++
				continue
			}
			seen[fp] = struct{}{}
			out = append(out, r)
		}
		if dropped > 0 {
			m.logger.Debug("dropped duplicate reviews",
				zap.String("source", src.SourceVersion()),
				zap.Int("dropped", dropped))
		}
	}
	return out, nil
}

// SourceVersion joins the child versions so build metadata records every
// dataset that fed the run.
func (m *Merged) SourceVersion() string {
	versions := make([]string, len(m.sources))
	for i, src := range m.sources {
		versions[i] = src.SourceVersion()
	}
	return strings.Join(versions, "+")
}

// ============================================================================
// Grouping
// ============================================================================

// GroupByAirport buckets reviews into per-airport batches, sorted by ident
// so processing order is stable across runs.
func GroupByAirport(reviews []models.RawReview) []models.ReviewBatch {
	byIdent := make(map[string][]models.RawReview)
	for _, r := range reviews {
		byIdent[r.AirportIdent] = append(byIdent[r.AirportIdent], r)
	}

	idents := make([]string, 0, len(byIdent))
	for ident := range byIdent {
		idents = append(idents, ident)
	}
	sort.Strings(idents)

	batches := make([]models.ReviewBatch, 0, len(idents))
	for _, ident := range idents {
		batches = append(batches, models.ReviewBatch{
			AirportIdent: ident,
			Reviews:      byIdent[ident],
		})
	}
	return batches
}
