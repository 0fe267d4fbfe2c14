package parsing

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/candidate-recommender/internal/llm"
	"github.com/jonathan/candidate-recommender/internal/prompts"
	"github.com/jonathan/candidate-recommender/internal/types"
)

var sectionDescriptions = map[types.SectionName]string{
	types.SectionQualificationsEducation: "degrees, schools, coursework and academic qualifications, verbatim",
	types.SectionSkillsCertifications:    "skills, tools, languages and certifications, verbatim",
	types.SectionProjectsExperience:      "jobs, internships and projects with their descriptions, verbatim",
	types.SectionAboutCompany:            "what the company does and its mission, verbatim",
	types.SectionRoleOverview:            "summary of the role and team, verbatim",
	types.SectionRequiredSkills:          "required and preferred skills and technologies, verbatim",
	types.SectionResponsibilitiesDuties:  "duties and day-to-day responsibilities, verbatim",
}

// LLMExtractor asks a language model to split a document into sections
type LLMExtractor struct {
	client llm.Client
	tier   llm.ModelTier
	logger *zap.Logger
}

// NewLLMExtractor creates an extractor backed by client
func NewLLMExtractor(client llm.Client, logger *zap.Logger) *LLMExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMExtractor{client: client, tier: llm.TierLite, logger: logger}
}

// ExtractResume extracts resume sections
func (e *LLMExtractor) ExtractResume(ctx context.Context, text string) (*types.SectionedDocument, error) {
	return e.extract(ctx, types.DocumentResume, text)
}

// ExtractJobDescription extracts job description sections
func (e *LLMExtractor) ExtractJobDescription(ctx context.Context, text string) (*types.SectionedDocument, error) {
	return e.extract(ctx, types.DocumentJob, text)
}

func (e *LLMExtractor) extract(ctx context.Context, kind types.DocumentKind, text string) (*types.SectionedDocument, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ExtractionError{Kind: KindEmptyInput, Document: kind, Message: "document has no text"}
	}

	prompt, err := buildSectionsPrompt(kind, text)
	if err != nil {
		return nil, &ExtractionError{Kind: KindProvider, Document: kind, Message: "failed to load prompt", Cause: err}
	}

	responseText, err := e.client.GenerateJSON(ctx, prompt, e.tier)
	if err != nil {
		return nil, &ExtractionError{
			Kind:     KindProvider,
			Document: kind,
			Message:  "failed to generate content from LLM",
			Cause:    err,
		}
	}

	doc, err := parseSectionsResponse(kind, responseText)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("extracted sections with LLM",
		zap.String("document", string(kind)),
		zap.String("model", e.client.GetModel(e.tier)))
	return doc, nil
}

// SectionSchema returns the JSON schema the model is asked to fill for a document kind
func SectionSchema(kind types.DocumentKind) llm.ExtractionSchema {
	doc := &types.SectionedDocument{Kind: kind}
	schema := llm.ExtractionSchema{Name: string(kind) + "_sections"}
	for _, name := range doc.ExpectedSections() {
		schema.Fields = append(schema.Fields, llm.SchemaField{
			Name:        string(name),
			Type:        `"string"`,
			Description: sectionDescriptions[name],
			Required:    true,
		})
	}
	return schema
}

func buildSectionsPrompt(kind types.DocumentKind, text string) (string, error) {
	prompt := prompts.ResumeSections
	if kind == types.DocumentJob {
		prompt = prompts.JobSections
	}
	return prompts.Render(prompt, map[string]string{
		"Fields": SectionSchema(kind).FieldList(),
		"Text":   text,
	})
}

// parseSectionsResponse maps the model's JSON onto a SectionedDocument.
// Keys may be canonical names or display labels; values may be strings or
// lists of strings. Unknown keys and sections not expected for the kind are dropped.
func parseSectionsResponse(kind types.DocumentKind, responseText string) (*types.SectionedDocument, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(responseText)), &raw); err != nil {
		return nil, &ExtractionError{
			Kind:     KindMalformed,
			Document: kind,
			Message:  "failed to parse JSON response",
			Cause:    err,
		}
	}

	doc := types.NewSectionedDocument(kind)
	expected := make(map[types.SectionName]bool)
	for _, name := range doc.ExpectedSections() {
		expected[name] = true
	}

	for key, value := range raw {
		name, ok := types.ParseSectionName(key)
		if !ok || !expected[name] {
			continue
		}
		text, err := sectionValue(value)
		if err != nil {
			return nil, &ExtractionError{
				Kind:     KindMalformed,
				Document: kind,
				Message:  "unexpected value for " + key,
				Cause:    err,
			}
		}
		doc.Set(name, text)
	}

	if doc.IsEmpty() {
		return nil, &ExtractionError{Kind: KindNoSections, Document: kind, Message: "model returned no section text"}
	}
	return doc, nil
}

func sectionValue(value json.RawMessage) (string, error) {
	if string(value) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var list []string
	if err := json.Unmarshal(value, &list); err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Join(list, "\n")), nil
}
