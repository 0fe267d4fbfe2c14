package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/candidate-recommender/internal/types"
)

func sampleRanking() *types.RankedCandidates {
	perSection := func(a, b, c float64) []types.SectionScore {
		return []types.SectionScore{
			{Label: "Qualifications and Education", Score: a},
			{Label: "Required Skills and Technologies", Score: b},
			{Label: "Responsibilities and Duties", Score: c},
		}
	}
	return &types.RankedCandidates{
		RunID:    "run-1",
		Strategy: "sections",
		Candidates: []types.CandidateResult{
			{
				ID: "alice.pdf", PerSection: perSection(0.9, 0.8, 0.7), Overall: 0.8,
				Contact: &types.ContactInfo{Email: "alice@example.com"},
				Summary: "Deep Go experience.",
				Text:    "Alice\nGo engineer",
			},
			{ID: "bob.txt", InputIndex: 1, PerSection: perSection(0.1, 0.2, 0.3), Overall: 0.2},
			{ID: "carol.docx", InputIndex: 2, PerSection: perSection(0, 0, 0), Overall: 0},
		},
		Skipped: []types.SkippedResume{
			{ID: "dave.csv", InputIndex: 3, Stage: types.StageExtractionFailed, Reason: "unsupported file type"},
		},
	}
}

func TestPrintRanking(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRanking(sampleRanking(), 2, false)
	output := buf.String()

	assert.Contains(t, output, "Top candidates (2 of 3, strategy sections)")
	assert.Contains(t, output, "alice.pdf")
	assert.Contains(t, output, "alice@example.com")
	assert.Contains(t, output, "0.8000")
	assert.Contains(t, output, "0.9000")
	assert.Contains(t, output, "Required Skills and Technologies")
	assert.Contains(t, output, "bob.txt")
	assert.NotContains(t, output, "carol.docx")
	assert.Contains(t, output, "Why: Deep Go experience.")
	assert.NotContains(t, output, "Go engineer", "text is hidden unless requested")

	assert.Contains(t, output, "1 resume(s) skipped")
	assert.Contains(t, output, "dave.csv (extraction_failed): unsupported file type")
	assert.NotContains(t, output, "\x1b[", "colors are off by default")
}

func TestPrintRanking_ShowText(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRanking(sampleRanking(), 1, true)

	assert.Contains(t, buf.String(), "Go engineer")
}

func TestPrintRanking_Colors(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).WithColors(true).PrintRanking(sampleRanking(), 1, false)

	assert.Contains(t, buf.String(), "\x1b[")
}

func TestPrintRanking_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRanking(nil, 5, false)
	assert.Empty(t, buf.String())
}

func TestPrintSections(t *testing.T) {
	doc := types.NewSectionedDocument(types.DocumentResume)
	doc.Set(types.SectionSkillsCertifications, "Go\nKubernetes")

	var buf bytes.Buffer
	NewPrinter(&buf).PrintSections(doc)
	output := buf.String()

	assert.Contains(t, output, "RESUME SECTIONS")
	assert.Contains(t, output, string(types.SectionSkillsCertifications)+":")
	assert.Contains(t, output, "  Kubernetes")
	assert.Contains(t, output, "(empty)")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).printBox("TITLE", strings.Repeat("é", 100))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestHeadLines(t *testing.T) {
	assert.Equal(t, "a\nb", headLines("a\nb", 3))
	assert.Equal(t, "a\nb\n...", headLines("a\nb\nc", 2))
}
