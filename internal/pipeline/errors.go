package pipeline

import (
	"errors"
	"fmt"

	"github.com/jonathan/candidate-recommender/internal/types"
)

// ErrNoValidCandidates is matched by errors.Is when a run produced no scored candidates
var ErrNoValidCandidates = errors.New("no valid candidates")

// NoValidCandidatesError reports a run where every resume was skipped or none were given
type NoValidCandidatesError struct {
	Skipped []types.SkippedResume
}

func (e *NoValidCandidatesError) Error() string {
	if len(e.Skipped) == 0 {
		return "no valid candidates: no resumes were provided"
	}
	return fmt.Sprintf("no valid candidates: all %d resumes were skipped", len(e.Skipped))
}

// Is lets errors.Is(err, ErrNoValidCandidates) match
func (e *NoValidCandidatesError) Is(target error) bool {
	return target == ErrNoValidCandidates
}

// JobDescriptionError means the job description could not be prepared for scoring.
// It is fatal for the run.
type JobDescriptionError struct {
	Message string
	Cause   error
}

func (e *JobDescriptionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("job description: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("job description: %s", e.Message)
}

func (e *JobDescriptionError) Unwrap() error {
	return e.Cause
}
