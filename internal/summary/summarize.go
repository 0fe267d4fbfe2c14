// Package summary writes short narrative explanations of why a candidate fits a job.
package summary

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jonathan/candidate-recommender/internal/llm"
	"github.com/jonathan/candidate-recommender/internal/prompts"
)

// DefaultMaxInputChars keeps prompts within small-context models such as llama3-8b
const DefaultMaxInputChars = 12000

// APICallError represents a failed summary request
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("summary failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("summary failed: %s", e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// Summarizer asks an LLM to explain a candidate's fit in a few sentences
type Summarizer struct {
	client        llm.Client
	maxInputChars int
	logger        *zap.Logger
}

// NewSummarizer creates a summarizer. maxInputChars <= 0 uses DefaultMaxInputChars.
func NewSummarizer(client llm.Client, maxInputChars int, logger *zap.Logger) *Summarizer {
	if maxInputChars <= 0 {
		maxInputChars = DefaultMaxInputChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{client: client, maxInputChars: maxInputChars, logger: logger}
}

// Summarize explains in three sentences why the resume fits the job description
func (s *Summarizer) Summarize(ctx context.Context, jobText, resumeText string) (string, error) {
	if strings.TrimSpace(jobText) == "" || strings.TrimSpace(resumeText) == "" {
		return "", &APICallError{Message: "job description and resume are both required"}
	}
	if s.client == nil {
		return "", &APICallError{Message: "no LLM client configured"}
	}

	prompt, err := prompts.Render(prompts.FitSummary, map[string]string{
		"JobDescription": truncate(jobText, s.maxInputChars),
		"Resume":         truncate(resumeText, s.maxInputChars),
	})
	if err != nil {
		return "", &APICallError{Message: "failed to build prompt", Cause: err}
	}

	text, err := s.client.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		return "", &APICallError{Message: "failed to generate content from LLM", Cause: err}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &APICallError{Message: "model returned an empty summary"}
	}
	s.logger.Debug("generated fit summary",
		zap.String("model", s.client.GetModel(llm.TierLite)),
		zap.Int("chars", len(text)))
	return text, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
