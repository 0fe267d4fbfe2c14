package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/candidate-recommender/internal/types"
)

func ids(candidates []types.CandidateResult) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.ID
	}
	return out
}

func TestSortCandidates_Descending(t *testing.T) {
	candidates := []types.CandidateResult{
		{ID: "low", InputIndex: 0, Overall: 0.1},
		{ID: "high", InputIndex: 1, Overall: 0.9},
		{ID: "mid", InputIndex: 2, Overall: 0.5},
	}
	SortCandidates(candidates)
	assert.Equal(t, []string{"high", "mid", "low"}, ids(candidates))
}

func TestSortCandidates_TiesKeepInputOrder(t *testing.T) {
	candidates := []types.CandidateResult{
		{ID: "B", InputIndex: 0, Overall: 0.82},
		{ID: "A", InputIndex: 1, Overall: 0.82},
	}
	SortCandidates(candidates)
	assert.Equal(t, []string{"B", "A"}, ids(candidates))
}

func TestSortCandidates_TiesResolvedByIndexNotSlicePosition(t *testing.T) {
	// Results gathered from concurrent workers can arrive out of order.
	candidates := []types.CandidateResult{
		{ID: "third", InputIndex: 2, Overall: 0.5},
		{ID: "first", InputIndex: 0, Overall: 0.5},
		{ID: "top", InputIndex: 3, Overall: 0.7},
		{ID: "second", InputIndex: 1, Overall: 0.5},
	}
	SortCandidates(candidates)
	assert.Equal(t, []string{"top", "first", "second", "third"}, ids(candidates))
}

func TestSortCandidates_NonIncreasing(t *testing.T) {
	candidates := []types.CandidateResult{
		{ID: "a", InputIndex: 0, Overall: -0.2},
		{ID: "b", InputIndex: 1, Overall: 0.0},
		{ID: "c", InputIndex: 2, Overall: 0.33},
		{ID: "d", InputIndex: 3, Overall: 0.0},
	}
	SortCandidates(candidates)
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Overall, candidates[i].Overall)
	}
	assert.Equal(t, []string{"c", "b", "d", "a"}, ids(candidates))
}

func TestMatchLevel(t *testing.T) {
	assert.Equal(t, "strong", MatchLevel(0.85))
	assert.Equal(t, "moderate", MatchLevel(0.5))
	assert.Equal(t, "weak", MatchLevel(0.1))
	assert.Equal(t, "none", MatchLevel(0))
	assert.Equal(t, "none", MatchLevel(-0.3))
}

func TestGenerateNotes(t *testing.T) {
	notes := GenerateNotes([]types.SectionScore{
		{Label: "Qualifications and Education", Score: 0.75},
		{Label: "Required Skills and Technologies", Score: 0.45},
		{Label: "Responsibilities and Duties", Empty: true},
	})
	assert.Contains(t, notes, "Strong match in Qualifications and Education")
	assert.Contains(t, notes, "Moderate match in Required Skills and Technologies")
	assert.Contains(t, notes, "Nothing to compare for Responsibilities and Duties")

	notes = GenerateNotes([]types.SectionScore{{Label: "Role", Score: 0.1}})
	assert.Equal(t, "No strong section matches", notes)

	assert.Equal(t, "", GenerateNotes(nil))
}
