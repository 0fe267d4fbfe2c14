// Package parsing splits raw resume and job description text into named sections.
package parsing

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/candidate-recommender/internal/llm"
	"github.com/jonathan/candidate-recommender/internal/types"
)

// Extractor turns raw document text into a SectionedDocument.
// Implementations return *ExtractionError on failure and are safe for
// concurrent use.
type Extractor interface {
	ExtractResume(ctx context.Context, text string) (*types.SectionedDocument, error)
	ExtractJobDescription(ctx context.Context, text string) (*types.SectionedDocument, error)
}

// Mode selects which extractor implementation to build
type Mode string

const (
	ModePattern Mode = "pattern"
	ModeLLM     Mode = "llm"
	// ModeAuto uses the LLM when a client is available and falls back to patterns
	ModeAuto Mode = "auto"
)

// NewExtractor builds an extractor for the mode. client may be nil for ModePattern and ModeAuto.
func NewExtractor(mode Mode, client llm.Client, logger *zap.Logger) (Extractor, error) {
	switch Mode(strings.ToLower(string(mode))) {
	case ModePattern, "":
		return NewPatternExtractor(), nil
	case ModeLLM:
		if client == nil {
			return nil, fmt.Errorf("llm extraction requires an LLM client")
		}
		return NewLLMExtractor(client, logger), nil
	case ModeAuto:
		if client == nil {
			return NewPatternExtractor(), nil
		}
		return NewFallbackExtractor(NewLLMExtractor(client, logger), NewPatternExtractor(), logger), nil
	default:
		return nil, fmt.Errorf("unknown extractor mode %q", mode)
	}
}

// Extract dispatches to the extractor method for the document kind
func Extract(ctx context.Context, ex Extractor, kind types.DocumentKind, text string) (*types.SectionedDocument, error) {
	if kind == types.DocumentJob {
		return ex.ExtractJobDescription(ctx, text)
	}
	return ex.ExtractResume(ctx, text)
}

// FallbackExtractor tries Primary and, if it fails, Secondary
type FallbackExtractor struct {
	Primary   Extractor
	Secondary Extractor
	logger    *zap.Logger
}

// NewFallbackExtractor creates a fallback extractor
func NewFallbackExtractor(primary, secondary Extractor, logger *zap.Logger) *FallbackExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackExtractor{Primary: primary, Secondary: secondary, logger: logger}
}

// ExtractResume extracts resume sections
func (f *FallbackExtractor) ExtractResume(ctx context.Context, text string) (*types.SectionedDocument, error) {
	return f.run(ctx, types.DocumentResume, text)
}

// ExtractJobDescription extracts job description sections
func (f *FallbackExtractor) ExtractJobDescription(ctx context.Context, text string) (*types.SectionedDocument, error) {
	return f.run(ctx, types.DocumentJob, text)
}

func (f *FallbackExtractor) run(ctx context.Context, kind types.DocumentKind, text string) (*types.SectionedDocument, error) {
	doc, err := Extract(ctx, f.Primary, kind, text)
	if err == nil {
		return doc, nil
	}
	if IsKind(err, KindEmptyInput) || ctx.Err() != nil {
		return nil, err
	}

	f.logger.Warn("primary section extractor failed, falling back",
		zap.String("document", string(kind)),
		zap.Error(err))
	return Extract(ctx, f.Secondary, kind, text)
}
