package pipeline

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jonathan/candidate-recommender/internal/ingestion"
	"github.com/jonathan/candidate-recommender/internal/observability"
	"github.com/jonathan/candidate-recommender/internal/types"
)

// RankFiles reads resumes from disk (txt, pdf or docx) and ranks them.
// Files that cannot be read become extraction_failed skips; input indexes
// follow the order of paths.
func (r *Ranker) RankFiles(ctx context.Context, jobText string, paths []string) (*types.RankedCandidates, error) {
	inputs := make([]indexedResume, 0, len(paths))
	var skipped []types.SkippedResume

	for i, path := range paths {
		name := filepath.Base(path)
		doc, err := ingestion.ReadFile(path)
		if err != nil {
			observability.RecordResume(string(types.StageExtractionFailed))
			r.logger.Warn("skipping unreadable resume", zap.String("path", path), zap.Error(err))
			skipped = append(skipped, types.SkippedResume{
				ID:         name,
				InputIndex: i,
				Stage:      types.StageExtractionFailed,
				Reason:     err.Error(),
			})
			continue
		}
		inputs = append(inputs, indexedResume{
			index: i,
			input: types.ResumeInput{ID: name, RawText: doc.Text, Source: path},
		})
	}

	return r.rank(ctx, jobText, inputs, skipped)
}
