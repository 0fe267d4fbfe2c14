// Package server provides the HTTP API for the candidate recommender.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/candidate-recommender/internal/embedding"
	"github.com/jonathan/candidate-recommender/internal/parsing"
	"github.com/jonathan/candidate-recommender/internal/pipeline"
)

// Messages shown for the most common request mistakes
const (
	msgMissingJobDescription = "Please enter a job description."
	msgMissingResumes        = "Please upload at least one resume."
)

var errNotConfigured = errors.New("not configured on this server")

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// newValidationError converts a validator error into the first user-facing ErrValidation
func newValidationError(err error) *ErrValidation {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}

	fe := validationErrs[0]
	switch fe.Field() {
	case "JobDescription":
		return &ErrValidation{Field: "job_description", Message: msgMissingJobDescription}
	case "Resumes":
		return &ErrValidation{Field: "resumes", Message: msgMissingResumes}
	}
	return &ErrValidation{
		Field:   fe.Namespace(),
		Message: fmt.Sprintf("failed '%s' validation", fe.Tag()),
	}
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		noValidErr    *pipeline.NoValidCandidatesError
		jobErr        *pipeline.JobDescriptionError
		extractionErr *parsing.ExtractionError
	)
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &noValidErr), errors.As(err, &jobErr):
		return http.StatusUnprocessableEntity
	case embedding.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case errors.As(err, &extractionErr):
		if extractionErr.Kind == parsing.KindProvider {
			return http.StatusBadGateway
		}
		return http.StatusUnprocessableEntity
	case errors.Is(err, errNotConfigured):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
