package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylane-labs/fieldscore/pkg/apperrors"
	"github.com/skylane-labs/fieldscore/pkg/models"
)

func TestSummariesRepository_UpsertAndGet(t *testing.T) {
	store := setupStore(t)
	repo := NewSummariesRepository()
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	summary := &models.AirportSummary{
		AirportIdent: "EDKA",
		Summary:      "A quiet grass field with low fees and a well-liked cafe.",
		ReviewCount:  7,
		GeneratedAt:  now,
	}
	require.NoError(t, repo.Upsert(ctx, store.DB(), summary))

	got, err := repo.Get(ctx, store.DB(), "EDKA")
	require.NoError(t, err)
	assert.Equal(t, summary.Summary, got.Summary)
	assert.Equal(t, 7, got.ReviewCount)
	assert.Equal(t, now, got.GeneratedAt.UTC())
}

func TestSummariesRepository_UpsertReplaces(t *testing.T) {
	store := setupStore(t)
	repo := NewSummariesRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, store.DB(), &models.AirportSummary{
		AirportIdent: "EDKA",
		Summary:      "Old text.",
		ReviewCount:  2,
		GeneratedAt:  time.Now().UTC(),
	}))
	require.NoError(t, repo.Upsert(ctx, store.DB(), &models.AirportSummary{
		AirportIdent: "EDKA",
		Summary:      "New text.",
		ReviewCount:  5,
		GeneratedAt:  time.Now().UTC(),
	}))

	got, err := repo.Get(ctx, store.DB(), "EDKA")
	require.NoError(t, err)
	assert.Equal(t, "New text.", got.Summary)
	assert.Equal(t, 5, got.ReviewCount)
}

func TestSummariesRepository_GetMissing(t *testing.T) {
	store := setupStore(t)
	repo := NewSummariesRepository()

	_, err := repo.Get(context.Background(), store.DB(), "ZZZZ")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSummariesRepository_Delete(t *testing.T) {
	store := setupStore(t)
	repo := NewSummariesRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, store.DB(), &models.AirportSummary{
		AirportIdent: "EDKA",
		Summary:      "Text.",
		GeneratedAt:  time.Now().UTC(),
	}))
	require.NoError(t, repo.Delete(ctx, store.DB(), "EDKA"))

	_, err := repo.Get(ctx, store.DB(), "EDKA")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Deleting an absent summary is not an error.
	assert.NoError(t, repo.Delete(ctx, store.DB(), "EDKA"))
}
