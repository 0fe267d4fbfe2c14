// Package types provides type definitions for structured data used throughout the candidate recommender.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// SectionScore is the similarity for one mapped section pair
type SectionScore struct {
	Label         string      `json:"label"`
	ResumeSection SectionName `json:"resume_section"`
	JobSection    SectionName `json:"job_section"`
	Score         float64     `json:"score"`
	// Empty is true when either side had no text and the score was forced to 0.0
	Empty bool `json:"empty,omitempty"`
}

// ScoreBreakdown holds per-pair scores and their arithmetic mean
type ScoreBreakdown struct {
	PerSection []SectionScore `json:"per_section"`
	Overall    float64        `json:"overall"`
}

// PerSectionMap returns the per-pair scores keyed by label
func (b *ScoreBreakdown) PerSectionMap() map[string]float64 {
	out := make(map[string]float64, len(b.PerSection))
	for _, s := range b.PerSection {
		out[s.Label] = s.Score
	}
	return out
}

// ResumeInput is one resume submitted for ranking
type ResumeInput struct {
	ID      string `json:"id"`
	RawText string `json:"raw_text"`
	// Source is the originating file name or URL, if any
	Source string `json:"source,omitempty"`
}

// ContactInfo holds contact details found in a resume
type ContactInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// CandidateResult is the scored outcome for one resume. It is built once per
// run and not modified after ranking returns.
type CandidateResult struct {
	ID         string         `json:"id"`
	InputIndex int            `json:"input_index"`
	PerSection []SectionScore `json:"per_section"`
	Overall    float64        `json:"overall"`
	Text       string         `json:"text,omitempty"`
	Source     string         `json:"source,omitempty"`
	Contact    *ContactInfo   `json:"contact,omitempty"`
	Notes      string         `json:"notes,omitempty"`
	Summary    string         `json:"summary,omitempty"`
}

// ProcessingStage tracks how far a resume got through the pipeline
type ProcessingStage string

// Processing stages. Failures are terminal for the resume but not for the batch.
const (
	StageUploaded                ProcessingStage = "uploaded"
	StageTextExtracted           ProcessingStage = "text_extracted"
	StageExtractionFailed        ProcessingStage = "extraction_failed"
	StageSectionsExtracted       ProcessingStage = "sections_extracted"
	StageSectionExtractionFailed ProcessingStage = "section_extraction_failed"
	StageTimedOut                ProcessingStage = "timed_out"
	StageScoringFailed           ProcessingStage = "scoring_failed"
	StageScored                  ProcessingStage = "scored"
)

// SkippedResume records a resume excluded from ranking and why
type SkippedResume struct {
	ID         string          `json:"id"`
	InputIndex int             `json:"input_index"`
	Stage      ProcessingStage `json:"stage"`
	Reason     string          `json:"reason"`
}

// RankedCandidates is the output of a ranking run, ordered by Overall
// descending with ties kept in input order.
type RankedCandidates struct {
	RunID      string            `json:"run_id"`
	Strategy   string            `json:"strategy"`
	Candidates []CandidateResult `json:"candidates"`
	Skipped    []SkippedResume   `json:"skipped,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Top returns at most n candidates from the head of the ranking
func (r *RankedCandidates) Top(n int) []CandidateResult {
	if n <= 0 || n >= len(r.Candidates) {
		return r.Candidates
	}
	return r.Candidates[:n]
}
