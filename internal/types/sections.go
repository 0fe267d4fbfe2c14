// Package types provides type definitions for structured data used throughout the candidate recommender.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
)

// SectionName identifies a logical section of a resume or job description
type SectionName string

// Resume-side sections
const (
	SectionQualificationsEducation SectionName = "qualifications_education"
	SectionSkillsCertifications    SectionName = "skills_certifications"
	SectionProjectsExperience      SectionName = "projects_experience"
)

// Job-description-side sections. Qualifications and Education is shared with the resume side.
const (
	SectionAboutCompany           SectionName = "about_company"
	SectionRoleOverview           SectionName = "role_overview"
	SectionRequiredSkills         SectionName = "required_skills"
	SectionResponsibilitiesDuties SectionName = "responsibilities_duties"
)

var sectionLabels = map[SectionName]string{
	SectionQualificationsEducation: "Qualifications and Education",
	SectionSkillsCertifications:    "Skills and Certifications",
	SectionProjectsExperience:      "Projects and Work Experience",
	SectionAboutCompany:            "About Company",
	SectionRoleOverview:            "Role Overview",
	SectionRequiredSkills:          "Required Skills and Technologies",
	SectionResponsibilitiesDuties:  "Responsibilities and Duties",
}

// Label returns the human-readable heading for the section
func (s SectionName) Label() string {
	if label, ok := sectionLabels[s]; ok {
		return label
	}
	return string(s)
}

// Known reports whether the section name is one the system understands
func (s SectionName) Known() bool {
	_, ok := sectionLabels[s]
	return ok
}

// ParseSectionName resolves either a canonical name or a display label
// ("Required Skills and Technologies") to a SectionName.
func ParseSectionName(s string) (SectionName, bool) {
	trimmed := strings.TrimSpace(s)
	if name := SectionName(trimmed); name.Known() {
		return name, true
	}
	for name, label := range sectionLabels {
		if strings.EqualFold(label, trimmed) {
			return name, true
		}
	}
	return "", false
}

// ResumeSections lists the sections extracted from a resume, in display order
func ResumeSections() []SectionName {
	return []SectionName{
		SectionQualificationsEducation,
		SectionSkillsCertifications,
		SectionProjectsExperience,
	}
}

// JobSections lists the sections extracted from a job description, in display order
func JobSections() []SectionName {
	return []SectionName{
		SectionAboutCompany,
		SectionRoleOverview,
		SectionRequiredSkills,
		SectionQualificationsEducation,
		SectionResponsibilitiesDuties,
	}
}

// SectionPair maps one resume section onto the job description section it is compared against
type SectionPair struct {
	Resume SectionName `json:"resume"`
	Job    SectionName `json:"job"`
}

// Label is the key used for this pair in score breakdowns (the job-side heading)
func (p SectionPair) Label() string {
	return p.Job.Label()
}

// SectionMapping is the ordered, static list of section pairs used for scoring
type SectionMapping []SectionPair

// DefaultSectionMapping returns the standard resume -> job description mapping
func DefaultSectionMapping() SectionMapping {
	return SectionMapping{
		{Resume: SectionQualificationsEducation, Job: SectionQualificationsEducation},
		{Resume: SectionSkillsCertifications, Job: SectionRequiredSkills},
		{Resume: SectionProjectsExperience, Job: SectionResponsibilitiesDuties},
	}
}

// Validate checks that the mapping is non-empty, uses known sections and has unique labels
func (m SectionMapping) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("section mapping must contain at least one pair")
	}
	seen := make(map[string]bool, len(m))
	for i, pair := range m {
		if !pair.Resume.Known() {
			return fmt.Errorf("section mapping[%d]: unknown resume section %q", i, pair.Resume)
		}
		if !pair.Job.Known() {
			return fmt.Errorf("section mapping[%d]: unknown job section %q", i, pair.Job)
		}
		label := pair.Label()
		if seen[label] {
			return fmt.Errorf("section mapping[%d]: duplicate label %q", i, label)
		}
		seen[label] = true
	}
	return nil
}

// ResumeNames returns the resume-side section names referenced by the mapping
func (m SectionMapping) ResumeNames() []SectionName {
	names := make([]SectionName, 0, len(m))
	for _, pair := range m {
		names = append(names, pair.Resume)
	}
	return names
}

// JobNames returns the job-side section names referenced by the mapping
func (m SectionMapping) JobNames() []SectionName {
	names := make([]SectionName, 0, len(m))
	for _, pair := range m {
		names = append(names, pair.Job)
	}
	return names
}

// DocumentKind distinguishes resumes from job descriptions
type DocumentKind string

const (
	// DocumentResume is a candidate resume
	DocumentResume DocumentKind = "resume"
	// DocumentJob is a job description
	DocumentJob DocumentKind = "job_description"
)

// SectionedDocument holds the named text sections extracted from a document.
// Absent sections read as the empty string.
type SectionedDocument struct {
	Kind     DocumentKind           `json:"kind"`
	Sections map[SectionName]string `json:"sections"`
}

// NewSectionedDocument creates a document with every expected section key present
func NewSectionedDocument(kind DocumentKind) *SectionedDocument {
	doc := &SectionedDocument{Kind: kind, Sections: make(map[SectionName]string)}
	doc.EnsureKeys(doc.ExpectedSections())
	return doc
}

// ExpectedSections returns the section names this kind of document is extracted into
func (d *SectionedDocument) ExpectedSections() []SectionName {
	if d.Kind == DocumentJob {
		return JobSections()
	}
	return ResumeSections()
}

// Get returns the text for a section, or "" if it is absent
func (d *SectionedDocument) Get(name SectionName) string {
	if d == nil || d.Sections == nil {
		return ""
	}
	return d.Sections[name]
}

// Set stores text for a section
func (d *SectionedDocument) Set(name SectionName, text string) {
	if d.Sections == nil {
		d.Sections = make(map[SectionName]string)
	}
	d.Sections[name] = text
}

// EnsureKeys adds an empty entry for every listed name that is missing
func (d *SectionedDocument) EnsureKeys(names []SectionName) {
	if d.Sections == nil {
		d.Sections = make(map[SectionName]string)
	}
	for _, name := range names {
		if _, ok := d.Sections[name]; !ok {
			d.Sections[name] = ""
		}
	}
}

// IsEmpty reports whether every section is blank
func (d *SectionedDocument) IsEmpty() bool {
	if d == nil {
		return true
	}
	for _, text := range d.Sections {
		if strings.TrimSpace(text) != "" {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers can't mutate shared section maps
func (d *SectionedDocument) Clone() *SectionedDocument {
	if d == nil {
		return nil
	}
	out := &SectionedDocument{Kind: d.Kind, Sections: make(map[SectionName]string, len(d.Sections))}
	for k, v := range d.Sections {
		out.Sections[k] = v
	}
	return out
}
