package ranking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/candidate-recommender/internal/types"
)

// Score bands used when describing a match
const (
	strongMatchThreshold   = 0.7
	moderateMatchThreshold = 0.4
)

// SortCandidates orders candidates by overall score, highest first.
// Equal scores keep their original submission order.
func SortCandidates(candidates []types.CandidateResult) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Overall != candidates[j].Overall {
			return candidates[i].Overall > candidates[j].Overall
		}
		return candidates[i].InputIndex < candidates[j].InputIndex
	})
}

// MatchLevel buckets a similarity score into a short description
func MatchLevel(score float64) string {
	switch {
	case score >= strongMatchThreshold:
		return "strong"
	case score >= moderateMatchThreshold:
		return "moderate"
	case score > 0:
		return "weak"
	default:
		return "none"
	}
}

// GenerateNotes creates a brief explanation of a candidate's section scores
func GenerateNotes(perSection []types.SectionScore) string {
	if len(perSection) == 0 {
		return ""
	}

	var strong, moderate, missing []string
	for _, s := range perSection {
		switch {
		case s.Empty:
			missing = append(missing, s.Label)
		case s.Score >= strongMatchThreshold:
			strong = append(strong, s.Label)
		case s.Score >= moderateMatchThreshold:
			moderate = append(moderate, s.Label)
		}
	}

	var parts []string
	if len(strong) > 0 {
		parts = append(parts, fmt.Sprintf("Strong match in %s", strings.Join(strong, ", ")))
	}
	if len(moderate) > 0 {
		parts = append(parts, fmt.Sprintf("Moderate match in %s", strings.Join(moderate, ", ")))
	}
	if len(strong) == 0 && len(moderate) == 0 {
		parts = append(parts, "No strong section matches")
	}
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("Nothing to compare for %s", strings.Join(missing, ", ")))
	}
	return strings.Join(parts, ". ")
}
