// Package types provides type definitions for structured data used throughout the candidate recommender.
package types

import (
	"github.com/go-playground/validator/v10"
)

// ResumePayload is a single resume in an API ranking request
type ResumePayload struct {
	ID   string `json:"id" validate:"required,min=1"`
	Text string `json:"text" validate:"required"`
}

// RankRequest is the body of a ranking API call
type RankRequest struct {
	JobDescription string          `json:"job_description" validate:"required"`
	Resumes        []ResumePayload `json:"resumes" validate:"required,min=1,dive"`
	TopN           int             `json:"top_n,omitempty" validate:"gte=0"`
	Strategy       string          `json:"strategy,omitempty" validate:"omitempty,oneof=sections whole_document"`
	Summary        bool            `json:"summary,omitempty"`
}

// SectionsRequest asks for a single document to be split into sections
type SectionsRequest struct {
	Kind string `json:"kind" validate:"required,oneof=resume job_description"`
	Text string `json:"text" validate:"required"`
}

// Validate validates the RankRequest using the validator.
func (r *RankRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the SectionsRequest using the validator.
func (r *SectionsRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ResumeInputs converts the payload to pipeline inputs, preserving order
func (r *RankRequest) ResumeInputs() []ResumeInput {
	inputs := make([]ResumeInput, 0, len(r.Resumes))
	for _, p := range r.Resumes {
		inputs = append(inputs, ResumeInput{ID: p.ID, RawText: p.Text})
	}
	return inputs
}
