package ingestion

import (
	"regexp"
	"strings"

	"github.com/jonathan/candidate-recommender/internal/types"
)

var (
	emailToken   = regexp.MustCompile(`\S+@\S+`)
	emailShape   = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	phonePattern = regexp.MustCompile(`(?:\+?\d{1,3}[\s.\-]?)?(?:\(\d{2,4}\)|\d{2,4})[\s.\-]?\d{3,4}[\s.\-]?\d{3,4}`)
)

// ExtractContact finds the first email address and phone number in text.
// Returns nil when neither is present.
func ExtractContact(text string) *types.ContactInfo {
	info := &types.ContactInfo{Email: FindEmail(text), Phone: findPhone(text)}
	if info.Email == "" && info.Phone == "" {
		return nil
	}
	return info
}

// FindEmail returns the first email-like token with surrounding punctuation removed
func FindEmail(text string) string {
	for _, token := range emailToken.FindAllString(text, -1) {
		candidate := strings.Trim(token, `.,;:()[]<>"'|`)
		candidate = strings.TrimPrefix(candidate, "mailto:")
		if emailShape.MatchString(candidate) {
			return candidate
		}
	}
	return ""
}

func findPhone(text string) string {
	for _, match := range phonePattern.FindAllString(text, -1) {
		digits := 0
		for _, r := range match {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		// Years ranges like "2018 - 2020" don't reach 10 digits
		if digits >= 10 && digits <= 15 {
			return strings.TrimSpace(match)
		}
	}
	return ""
}
