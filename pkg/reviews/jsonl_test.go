package reviews

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func writeReviewsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reviews.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestJSONLSource_LoadsValidLines(t *testing.T) {
	path := writeReviewsFile(t, `
{"airport_ident":"EDKA","review_id":"r1","text":"friendly tower, cheap fuel","rating":4.5}

{"airport_ident":"EDKA","review_id":"r2","text":"cafe closed on mondays","observed_at":"2026-02-01T10:00:00Z"}
{"airport_ident":"LFAT","review_id":"r3","text":"great lunch stop","ai_generated":true}
`)

	src := NewJSONL(path, "export-2026-02", zap.NewNop())
	got, err := src.Reviews(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "EDKA", got[0].AirportIdent)
	require.NotNil(t, got[0].Rating)
	assert.InDelta(t, 4.5, *got[0].Rating, 1e-9)

	require.NotNil(t, got[1].ObservedAt)
	assert.Equal(t, 2026, got[1].ObservedAt.Year())

	assert.True(t, got[2].AIGenerated)
	assert.Equal(t, "export-2026-02", src.SourceVersion())
}

func TestJSONLSource_SkipsBadLines(t *testing.T) {
	path := writeReviewsFile(t, `
{"airport_ident":"EDKA","review_id":"r1","text":"ok"}
{not json at all
{"review_id":"orphan","text":"no ident"}
{"airport_ident":"LFAT","review_id":"r2","text":"fine"}
`)

	core, logs := observer.New(zap.WarnLevel)
	src := NewJSONL(path, "", zap.New(core))

	got, err := src.Reviews(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)

	assert.Equal(t, 1, logs.FilterMessageSnippet("malformed review line").Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("without airport ident").Len())

	summary := logs.FilterMessageSnippet("skipped unusable review lines")
	require.Equal(t, 1, summary.Len())
	fields := summary.All()[0].ContextMap()
	assert.EqualValues(t, 2, fields["skipped"])
	assert.EqualValues(t, 2, fields["loaded"])
}

func TestJSONLSource_MissingFile(t *testing.T) {
	src := NewJSONL(filepath.Join(t.TempDir(), "absent.jsonl"), "", zap.NewNop())
	_, err := src.Reviews(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open reviews file")
}

func TestJSONLSource_VersionDefaultsToBaseName(t *testing.T) {
	src := NewJSONL("/var/data/exports/reviews-2026q1.jsonl", "", zap.NewNop())
	assert.Equal(t, "reviews-2026q1.jsonl", src.SourceVersion())
}
