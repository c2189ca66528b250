package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skylane-labs/fieldscore/pkg/database"
)

// testFeatures is the feature column set used across repository tests.
var testFeatures = []string{"cost", "hassle", "ifr"}

func setupStore(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.Open(&database.Config{Path: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Migrate())
	require.NoError(t, store.ReconcileFeatureColumns(context.Background(), testFeatures))
	return store
}
