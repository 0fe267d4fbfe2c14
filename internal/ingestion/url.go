package ingestion

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/candidate-recommender/internal/fetch"
)

var (
	// ErrHTTPRequestFailed is returned when the job posting could not be fetched
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrNoContent is returned when the page contained no usable text
	ErrNoContent = errors.New("no text content found")
)

// IngestFromURL fetches a job posting and returns its cleaned text. When
// useBrowser is set, pages that yield too little text are rendered in a
// headless browser first.
func IngestFromURL(ctx context.Context, urlStr string, useBrowser bool, logger *zap.Logger) (*Document, error) {
	page, err := fetch.JobPosting(ctx, urlStr, fetch.JobOptions{UseBrowser: useBrowser, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}

	text := CleanText(page.Text)
	if text == "" {
		return nil, fmt.Errorf("%w at %s", ErrNoContent, urlStr)
	}

	metadata := NewMetadata(text, urlStr)
	metadata.Platform = string(page.Platform)
	return &Document{Name: urlStr, Format: FormatText, Text: text, Metadata: metadata}, nil
}
