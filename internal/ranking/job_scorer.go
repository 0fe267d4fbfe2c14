package ranking

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/candidate-recommender/internal/embedding"
	"github.com/jonathan/candidate-recommender/internal/types"
)

// JobScorer holds the embedded job description so each resume only needs its
// own sections embedded. It is safe for concurrent use once built.
type JobScorer struct {
	engine     *Engine
	mapping    types.SectionMapping
	job        *types.SectionedDocument
	jobText    string
	jobVectors map[string]embedding.Vector
}

// PrepareJob embeds the job-side texts that the strategy needs, in one call.
// For StrategySections those are the mapped job sections; for
// StrategyWholeDocument it is the full job text.
func (e *Engine) PrepareJob(ctx context.Context, job *types.SectionedDocument, jobText string, mapping types.SectionMapping, strategy Strategy) (*JobScorer, error) {
	if err := mapping.Validate(); err != nil {
		return nil, err
	}

	batch := newTextBatch()
	switch strategy {
	case StrategyWholeDocument:
		if t := strings.TrimSpace(jobText); t != "" {
			batch.add(t)
		}
	default:
		for _, pair := range mapping {
			if t := strings.TrimSpace(job.Get(pair.Job)); t != "" {
				batch.add(t)
			}
		}
	}

	vectors, err := batch.embed(ctx, e.provider)
	if err != nil {
		return nil, err
	}

	return &JobScorer{
		engine:     e,
		mapping:    mapping,
		job:        job.Clone(),
		jobText:    strings.TrimSpace(jobText),
		jobVectors: vectors,
	}, nil
}

// Job returns a copy of the sectioned job description
func (s *JobScorer) Job() *types.SectionedDocument {
	return s.job.Clone()
}

// ScoreSections scores a sectioned resume against the prepared job description.
// Resume texts identical to a job section reuse the job's vector.
func (s *JobScorer) ScoreSections(ctx context.Context, resume *types.SectionedDocument) (*types.ScoreBreakdown, error) {
	batch := newTextBatch()
	for _, pair := range s.mapping {
		r, j := pairTexts(pair, resume, s.job)
		if r == "" || j == "" {
			continue
		}
		if _, ok := s.jobVectors[r]; !ok {
			batch.add(r)
		}
	}

	resumeVectors, err := batch.embed(ctx, s.engine.provider)
	if err != nil {
		return nil, err
	}

	return aggregate(s.mapping, resume, s.job, func(text string) (embedding.Vector, bool) {
		if v, ok := resumeVectors[text]; ok {
			return v, true
		}
		v, ok := s.jobVectors[text]
		return v, ok
	})
}

// ScoreWholeDocument compares a full resume text with the prepared job text
func (s *JobScorer) ScoreWholeDocument(ctx context.Context, resumeText string) (float64, error) {
	r := strings.TrimSpace(resumeText)
	if r == "" || s.jobText == "" {
		return 0.0, nil
	}
	jv, ok := s.jobVectors[s.jobText]
	if !ok {
		return 0, fmt.Errorf("job text was not prepared for whole-document scoring")
	}

	if r == s.jobText {
		return Cosine(jv, jv)
	}

	vectors, err := s.engine.provider.Embed(ctx, []string{r})
	if err != nil {
		return 0, fmt.Errorf("failed to embed resume: %w", err)
	}
	if len(vectors) != 1 {
		return 0, fmt.Errorf("%w: got %d vectors for 1 text", embedding.ErrCountMismatch, len(vectors))
	}
	return Cosine(vectors[0], jv)
}
