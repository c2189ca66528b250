package reviews

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/skylane-labs/fieldscore/pkg/models"
)

// Review exports carry free text; a megabyte per line is far beyond any
// real review but keeps the scanner from choking on merged records.
const maxReviewLineBytes = 1 << 20

// JSONLSource reads reviews from a newline-delimited JSON export, one
// review object per line. Blank lines are ignored. Malformed lines and
// lines without an airport ident are skipped with a warning rather than
// failing the run, so one bad record cannot sink an entire export.
type JSONLSource struct {
	path    string
	version string
	logger  *zap.Logger
}

var _ Source = (*JSONLSource)(nil)

// NewJSONL creates a source over the file at path. When version is empty
// the file's base name stands in as the dataset revision.
func NewJSONL(path, version string, logger *zap.Logger) *JSONLSource {
	if version == "" {
		version = filepath.Base(path)
	}
	return &JSONLSource{
		path:    path,
		version: version,
		logger:  logger.Named("reviews-jsonl"),
	}
}

func (s *JSONLSource) Reviews(_ context.Context) ([]models.RawReview, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open reviews file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxReviewLineBytes)

	var (
		out     []models.RawReview
		lineNo  int
		skipped int
	)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var r models.RawReview
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			skipped++
			s.logger.Warn("skipping malformed review line",
				zap.String("file", s.path),
				zap.Int("line", lineNo),
				zap.Error(err))
			continue
		}
		if r.AirportIdent == "" {
			skipped++
			s.logger.Warn("skipping review without airport ident",
				zap.String("file", s.path),
				zap.Int("line", lineNo))
			continue
		}
		out = append(out, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read reviews file: %w", err)
	}

	if skipped > 0 {
		s.logger.Warn("skipped unusable review lines",
			zap.String("file", s.path),
			zap.Int("skipped", skipped),
			zap.Int("loaded", len(out)))
	}
	return out, nil
}

func (s *JSONLSource) SourceVersion() string {
	return s.version
}
