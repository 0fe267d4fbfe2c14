package parsing

import (
	"errors"
	"fmt"

	"github.com/jonathan/candidate-recommender/internal/types"
)

// ErrorKind classifies why section extraction failed
type ErrorKind string

const (
	// KindEmptyInput means the document had no text at all
	KindEmptyInput ErrorKind = "empty_input"
	// KindNoSections means no recognizable section could be found
	KindNoSections ErrorKind = "no_sections"
	// KindMalformed means the LLM returned something that is not the expected JSON
	KindMalformed ErrorKind = "malformed_response"
	// KindProvider means the LLM call itself failed
	KindProvider ErrorKind = "provider"
)

// ExtractionError is returned by every Extractor implementation
type ExtractionError struct {
	Kind     ErrorKind
	Document types.DocumentKind
	Message  string
	Cause    error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("%s extraction failed (%s): %s", e.Document, e.Kind, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is an ExtractionError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var extractionErr *ExtractionError
	if errors.As(err, &extractionErr) {
		return extractionErr.Kind == kind
	}
	return false
}
