// Package prompts holds the LLM prompt templates for section extraction and
// fit summaries. Templates live in embedded JSON files and use {{.Name}}
// placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// Prompt names a template and the placeholders it must contain
type Prompt struct {
	File   string
	Key    string
	Fields []string
}

var (
	// ResumeSections asks the model to split a resume into the resume sections
	ResumeSections = Prompt{File: "sections.json", Key: "extract-resume-sections", Fields: []string{"Fields", "Text"}}
	// JobSections asks the model to split a job description into the job sections
	JobSections = Prompt{File: "sections.json", Key: "extract-job-sections", Fields: []string{"Fields", "Text"}}
	// FitSummary asks for a three sentence explanation of a candidate's fit
	FitSummary = Prompt{File: "summary.json", Key: "fit-summary", Fields: []string{"JobDescription", "Resume"}}
)

// All lists every prompt the application uses
func All() []Prompt {
	return []Prompt{ResumeSections, JobSections, FitSummary}
}

var placeholderPattern = regexp.MustCompile(`\{\{\.(\w+)\}\}`)

// catalog parses every embedded file once: file -> key -> template
var catalog = sync.OnceValues(func() (map[string]map[string]string, error) {
	entries, err := promptFiles.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt files: %w", err)
	}
	out := make(map[string]map[string]string, len(entries))
	for _, entry := range entries {
		data, err := promptFiles.ReadFile(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", entry.Name(), err)
		}
		var templates map[string]string
		if err := json.Unmarshal(data, &templates); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", entry.Name(), err)
		}
		out[entry.Name()] = templates
	}
	return out, nil
})

// Load returns the template for p. The template must use exactly the
// placeholders listed in p.Fields.
func Load(p Prompt) (string, error) {
	files, err := catalog()
	if err != nil {
		return "", err
	}
	templates, ok := files[p.File]
	if !ok {
		return "", fmt.Errorf("prompt file %s not found", p.File)
	}
	template, ok := templates[p.Key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", p.Key, p.File)
	}

	found := Placeholders(template)
	for _, field := range p.Fields {
		if !slices.Contains(found, field) {
			return "", fmt.Errorf("prompt %s is missing placeholder {{.%s}}", p.Key, field)
		}
	}
	for _, name := range found {
		if !slices.Contains(p.Fields, name) {
			return "", fmt.Errorf("prompt %s has unknown placeholder {{.%s}}", p.Key, name)
		}
	}
	return template, nil
}

// Render loads p and fills every placeholder from data in a single pass,
// so placeholder-like text inside a value is left alone.
func Render(p Prompt, data map[string]string) (string, error) {
	template, err := Load(p)
	if err != nil {
		return "", err
	}
	pairs := make([]string, 0, 2*len(p.Fields))
	for _, field := range p.Fields {
		value, ok := data[field]
		if !ok {
			return "", fmt.Errorf("prompt %s: no value for %s", p.Key, field)
		}
		pairs = append(pairs, "{{."+field+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template), nil
}

// Placeholders returns the distinct placeholder names in template, in order of appearance
func Placeholders(template string) []string {
	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if !slices.Contains(names, m[1]) {
			names = append(names, m[1])
		}
	}
	return names
}
