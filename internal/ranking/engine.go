package ranking

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/candidate-recommender/internal/embedding"
	"github.com/jonathan/candidate-recommender/internal/types"
)

// Strategy selects how a resume is compared with the job description
type Strategy string

const (
	// StrategySections compares mapped section pairs and averages them
	StrategySections Strategy = "sections"
	// StrategyWholeDocument compares the full texts with a single similarity
	StrategyWholeDocument Strategy = "whole_document"
)

// ParseStrategy resolves a strategy name, defaulting to sections
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.TrimSpace(s)) {
	case "", StrategySections:
		return StrategySections, nil
	case StrategyWholeDocument:
		return StrategyWholeDocument, nil
	default:
		return "", fmt.Errorf("unknown ranking strategy %q", s)
	}
}

// Engine computes similarity scores using an embedding provider
type Engine struct {
	provider embedding.Provider
	logger   *zap.Logger
}

// NewEngine creates an engine over the given provider
func NewEngine(provider embedding.Provider, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{provider: provider, logger: logger}
}

// Score compares each mapped section pair and averages over the whole mapping.
// Pairs with a blank side score 0.0 without an embedding call; all other texts
// go to the provider in one batch, with identical texts sharing a vector.
// Neither document is modified.
func (e *Engine) Score(ctx context.Context, resume, job *types.SectionedDocument, mapping types.SectionMapping) (*types.ScoreBreakdown, error) {
	if len(mapping) == 0 {
		return nil, fmt.Errorf("section mapping is empty")
	}

	batch := newTextBatch()
	for _, pair := range mapping {
		r, j := pairTexts(pair, resume, job)
		if r == "" || j == "" {
			continue
		}
		batch.add(r)
		batch.add(j)
	}

	vectors, err := batch.embed(ctx, e.provider)
	if err != nil {
		return nil, err
	}

	breakdown, err := aggregate(mapping, resume, job, func(text string) (embedding.Vector, bool) {
		v, ok := vectors[text]
		return v, ok
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("scored section pairs",
		zap.Int("pairs", len(mapping)),
		zap.Int("embedded_texts", len(batch.texts)),
		zap.Float64("overall", breakdown.Overall))
	return breakdown, nil
}

// WholeDocumentScore embeds both full texts and returns their cosine similarity.
// This is a separate comparison mode and is never mixed into the section average.
func (e *Engine) WholeDocumentScore(ctx context.Context, resumeText, jobText string) (float64, error) {
	r := strings.TrimSpace(resumeText)
	j := strings.TrimSpace(jobText)
	if r == "" || j == "" {
		return 0.0, nil
	}

	batch := newTextBatch()
	batch.add(r)
	batch.add(j)
	vectors, err := batch.embed(ctx, e.provider)
	if err != nil {
		return 0, err
	}
	return Cosine(vectors[r], vectors[j])
}

// aggregate scores every mapped pair with already embedded vectors and averages
// over the whole mapping. A pair with a blank side scores 0.0 and is marked Empty.
func aggregate(mapping types.SectionMapping, resume, job *types.SectionedDocument, lookup func(text string) (embedding.Vector, bool)) (*types.ScoreBreakdown, error) {
	breakdown := &types.ScoreBreakdown{PerSection: make([]types.SectionScore, 0, len(mapping))}
	var sum float64
	for _, pair := range mapping {
		score := types.SectionScore{
			Label:         pair.Label(),
			ResumeSection: pair.Resume,
			JobSection:    pair.Job,
		}
		r, j := pairTexts(pair, resume, job)
		if r == "" || j == "" {
			score.Empty = true
		} else {
			rv, rok := lookup(r)
			jv, jok := lookup(j)
			if !rok || !jok {
				return nil, fmt.Errorf("section pair %s was not embedded", pair.Label())
			}
			sim, err := Cosine(rv, jv)
			if err != nil {
				return nil, fmt.Errorf("failed to compare %s: %w", pair.Label(), err)
			}
			score.Score = sim
		}
		sum += score.Score
		breakdown.PerSection = append(breakdown.PerSection, score)
	}
	breakdown.Overall = sum / float64(len(mapping))
	return breakdown, nil
}

func pairTexts(pair types.SectionPair, resume, job *types.SectionedDocument) (string, string) {
	return strings.TrimSpace(resume.Get(pair.Resume)), strings.TrimSpace(job.Get(pair.Job))
}

// textBatch collects unique texts for a single embedding call
type textBatch struct {
	texts []string
	seen  map[string]bool
}

func newTextBatch() *textBatch {
	return &textBatch{seen: make(map[string]bool)}
}

func (b *textBatch) add(text string) {
	if b.seen[text] {
		return
	}
	b.seen[text] = true
	b.texts = append(b.texts, text)
}

func (b *textBatch) embed(ctx context.Context, provider embedding.Provider) (map[string]embedding.Vector, error) {
	out := make(map[string]embedding.Vector, len(b.texts))
	if len(b.texts) == 0 {
		return out, nil
	}
	vectors, err := provider.Embed(ctx, b.texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed sections: %w", err)
	}
	if len(vectors) != len(b.texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", embedding.ErrCountMismatch, len(vectors), len(b.texts))
	}
	for i, text := range b.texts {
		out[text] = vectors[i]
	}
	return out, nil
}
