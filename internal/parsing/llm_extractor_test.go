package parsing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/candidate-recommender/internal/llm"
	"github.com/jonathan/candidate-recommender/internal/types"
)

// fakeClient is an llm.Client returning a canned response
type fakeClient struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeClient) GenerateContent(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.GenerateContent(ctx, prompt, tier)
}

func (f *fakeClient) GetModel(llm.ModelTier) string { return "fake-model" }
func (f *fakeClient) Close() error                  { return nil }

func TestLLMExtractor_Resume(t *testing.T) {
	client := &fakeClient{response: "```json\n" + `{
		"qualifications_education": "MSc Data Science",
		"skills_certifications": ["Python", "SQL"],
		"projects_experience": "Built churn models",
		"hobbies": "chess"
	}` + "\n```"}
	ex := NewLLMExtractor(client, nil)

	doc, err := ex.ExtractResume(context.Background(), "resume text here")
	require.NoError(t, err)

	assert.Equal(t, "MSc Data Science", doc.Get(types.SectionQualificationsEducation))
	assert.Equal(t, "Python\nSQL", doc.Get(types.SectionSkillsCertifications))
	assert.Equal(t, "Built churn models", doc.Get(types.SectionProjectsExperience))
	assert.Len(t, doc.Sections, 3)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "resume text here")
	assert.Contains(t, client.prompts[0], `"skills_certifications"`)
	assert.NotContains(t, client.prompts[0], "{{.")
}

func TestLLMExtractor_JobAcceptsLabels(t *testing.T) {
	client := &fakeClient{response: `{"Required Skills and Technologies": "Go", "about_company": "Fintech", "skills_certifications": "ignored"}`}
	doc, err := NewLLMExtractor(client, nil).ExtractJobDescription(context.Background(), "job text")
	require.NoError(t, err)

	assert.Equal(t, "Go", doc.Get(types.SectionRequiredSkills))
	assert.Equal(t, "Fintech", doc.Get(types.SectionAboutCompany))
	assert.Equal(t, "", doc.Get(types.SectionSkillsCertifications))
	assert.Contains(t, client.prompts[0], `"responsibilities_duties"`)
}

func TestLLMExtractor_Errors(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClient
		text   string
		kind   ErrorKind
	}{
		{"empty input", &fakeClient{}, "  ", KindEmptyInput},
		{"provider error", &fakeClient{err: errors.New("quota exceeded")}, "text", KindProvider},
		{"malformed", &fakeClient{response: "I could not find any sections"}, "text", KindMalformed},
		{"wrong value type", &fakeClient{response: `{"skills_certifications": 42}`}, "text", KindMalformed},
		{"all empty", &fakeClient{response: `{"skills_certifications": "", "projects_experience": null}`}, "text", KindNoSections},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLLMExtractor(tt.client, nil).ExtractResume(context.Background(), tt.text)
			require.Error(t, err)
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestLLMExtractor_EmptyInputSkipsCall(t *testing.T) {
	client := &fakeClient{}
	_, err := NewLLMExtractor(client, nil).ExtractResume(context.Background(), "")
	require.Error(t, err)
	assert.Empty(t, client.prompts)
}

func TestSectionSchema(t *testing.T) {
	schema := SectionSchema(types.DocumentJob)
	assert.Equal(t, []string{
		"about_company", "role_overview", "required_skills",
		"qualifications_education", "responsibilities_duties",
	}, schema.FieldNames())
	assert.True(t, strings.HasPrefix(schema.FieldList(), "{\n"))
}
