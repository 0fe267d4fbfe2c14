package parsing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/candidate-recommender/internal/types"
)

func TestNewExtractor(t *testing.T) {
	ex, err := NewExtractor(ModePattern, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &PatternExtractor{}, ex)

	ex, err = NewExtractor(ModeAuto, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &PatternExtractor{}, ex)

	ex, err = NewExtractor(ModeAuto, &fakeClient{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FallbackExtractor{}, ex)

	ex, err = NewExtractor(ModeLLM, &fakeClient{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LLMExtractor{}, ex)

	_, err = NewExtractor(ModeLLM, nil, nil)
	assert.Error(t, err)

	_, err = NewExtractor("regex", nil, nil)
	assert.Error(t, err)
}

func TestFallbackExtractor_UsesSecondaryOnFailure(t *testing.T) {
	primary := NewLLMExtractor(&fakeClient{err: errors.New("503 service unavailable")}, nil)
	ex := NewFallbackExtractor(primary, NewPatternExtractor(), nil)

	doc, err := ex.ExtractResume(context.Background(), "Skills\nGo, Rust")
	require.NoError(t, err)
	assert.Equal(t, "Go, Rust", doc.Get(types.SectionSkillsCertifications))
}

func TestFallbackExtractor_PrimarySucceeds(t *testing.T) {
	primary := NewLLMExtractor(&fakeClient{response: `{"required_skills": "Go"}`}, nil)
	ex := NewFallbackExtractor(primary, NewPatternExtractor(), nil)

	doc, err := ex.ExtractJobDescription(context.Background(), "no headings at all")
	require.NoError(t, err)
	assert.Equal(t, "Go", doc.Get(types.SectionRequiredSkills))
}

func TestFallbackExtractor_EmptyInputNotRetried(t *testing.T) {
	client := &fakeClient{}
	ex := NewFallbackExtractor(NewPatternExtractor(), NewLLMExtractor(client, nil), nil)

	_, err := ex.ExtractResume(context.Background(), "")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindEmptyInput))
	assert.Empty(t, client.prompts)
}

func TestFallbackExtractor_BothFail(t *testing.T) {
	primary := NewLLMExtractor(&fakeClient{response: "not json"}, nil)
	ex := NewFallbackExtractor(primary, NewPatternExtractor(), nil)

	_, err := ex.ExtractResume(context.Background(), "just a paragraph of prose")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNoSections))
}

func TestExtract_DispatchesByKind(t *testing.T) {
	ex := NewPatternExtractor()
	doc, err := Extract(context.Background(), ex, types.DocumentJob, "Responsibilities\nShip code")
	require.NoError(t, err)
	assert.Equal(t, types.DocumentJob, doc.Kind)
	assert.Equal(t, "Ship code", doc.Get(types.SectionResponsibilitiesDuties))
}

func TestExtractionError_Message(t *testing.T) {
	cause := errors.New("timeout")
	err := &ExtractionError{Kind: KindProvider, Document: types.DocumentJob, Message: "llm failed", Cause: cause}
	assert.Equal(t, "job_description extraction failed (provider): llm failed: timeout", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsKind(cause, KindProvider))
}
