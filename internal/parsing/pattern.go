package parsing

import (
	"context"
	"regexp"
	"strings"

	"github.com/jonathan/candidate-recommender/internal/types"
)

// maxHeadingLength bounds how long a line can be and still count as a heading
const maxHeadingLength = 60

// headingRule maps a set of heading aliases onto a section. A rule with an
// empty Section still ends the current section but collects nothing.
type headingRule struct {
	Section types.SectionName
	Pattern *regexp.Regexp
}

func rule(section types.SectionName, aliases string) headingRule {
	return headingRule{Section: section, Pattern: regexp.MustCompile(`^(?:` + aliases + `)$`)}
}

// Rules are checked in order; the first match wins.
var resumeRules = []headingRule{
	rule(types.SectionQualificationsEducation,
		`education|educational background|academic background|academics|academic qualifications|qualifications|`+
			`education (?:and|&) (?:qualifications|training)|qualifications (?:and|&) education|degrees?|relevant coursework|coursework`),
	rule(types.SectionSkillsCertifications,
		`skills|technical skills|core skills|key skills|skill set|skills (?:and|&) (?:certifications|tools|technologies|abilities)|`+
			`certifications?|certifications (?:and|&) licenses|licenses (?:and|&) certifications|technologies|tools|`+
			`tools (?:and|&) technologies|competencies|core competencies|programming languages|technical proficiencies|tech stack`),
	rule(types.SectionProjectsExperience,
		`experience|work experience|professional experience|relevant experience|employment|employment history|work history|`+
			`career history|projects|personal projects|academic projects|key projects|selected projects|`+
			`projects (?:and|&) (?:work )?experience|(?:work )?experience (?:and|&) projects|internships?|research experience`),
	rule("",
		`summary|professional summary|career summary|objective|career objective|profile|professional profile|about me|`+
			`contact|contact information|contact details|interests|hobbies|hobbies (?:and|&) interests|references|`+
			`awards|honors|awards (?:and|&) honors|publications|volunteer(?:ing)?|volunteer experience|languages spoken|activities`),
}

var jobRules = []headingRule{
	rule(types.SectionRoleOverview,
		`about the (?:role|job|position|opportunity)|role overview|job overview|position overview|overview|job summary|`+
			`position summary|role summary|the role|the opportunity|job description|position description`),
	rule(types.SectionAboutCompany,
		`about (?:the )?(?:company|us|team)|who we are|our company|company overview|our mission|the company`),
	rule(types.SectionQualificationsEducation,
		`education|education requirements?|educational requirements?|academic requirements?|degree|degree requirements?|`+
			`qualifications (?:and|&) education|education (?:and|&) (?:qualifications|experience)`),
	rule(types.SectionRequiredSkills,
		`requirements|required skills|skills|required skills (?:and|&) technologies|skills (?:and|&) technologies|`+
			`technical skills|technologies|tech stack|what you(?:'|’)?ll need|what you need|what we(?:'|’)?re looking for|`+
			`who you are|about you|must haves?|nice to haves?|preferred skills|preferred qualifications|minimum qualifications|`+
			`basic qualifications|required qualifications|qualifications|bonus points|you have|you might also have`),
	rule(types.SectionResponsibilitiesDuties,
		`responsibilities|key responsibilities|job responsibilities|duties|duties (?:and|&) responsibilities|`+
			`responsibilities (?:and|&) duties|what you(?:'|’)?ll do|what you will do|your role|day to day|day-to-day|`+
			`in this role,? you will|you will|your impact|what you(?:'|’)?ll be doing`),
	rule("",
		`benefits|perks|perks (?:and|&) benefits|what we offer|compensation|salary|pay range|compensation (?:and|&) benefits|`+
			`equal opportunity(?: employer)?|eeo statement|how to apply|location|why join us|why you(?:'|’)?ll love working here`),
	// "About Acme" style company headings, checked last so "about the role" wins above
	rule(types.SectionAboutCompany, `about [a-z0-9][a-z0-9 .&-]{0,29}`),
}

var (
	headingDecoration = regexp.MustCompile(`^[\s#*•·=\->_]+|[\s*:=_]+$`)
	numberedPrefix    = regexp.MustCompile(`^(?:\d+|[ivx]+)[.)]\s+`)
	inlineHeading     = regexp.MustCompile(`^([^:]{1,40}):\s*(\S.*)$`)
	whitespaceRun     = regexp.MustCompile(`\s+`)
)

// PatternExtractor finds sections by matching heading lines against known
// aliases. It never calls out to a model, so results are deterministic.
type PatternExtractor struct {
	resume []headingRule
	job    []headingRule
}

// NewPatternExtractor creates a pattern extractor with the built-in heading aliases
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{resume: resumeRules, job: jobRules}
}

// ExtractResume extracts resume sections
func (p *PatternExtractor) ExtractResume(ctx context.Context, text string) (*types.SectionedDocument, error) {
	return p.extract(ctx, types.DocumentResume, p.resume, text)
}

// ExtractJobDescription extracts job description sections
func (p *PatternExtractor) ExtractJobDescription(ctx context.Context, text string) (*types.SectionedDocument, error) {
	return p.extract(ctx, types.DocumentJob, p.job, text)
}

func (p *PatternExtractor) extract(ctx context.Context, kind types.DocumentKind, rules []headingRule, text string) (*types.SectionedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ExtractionError{Kind: KindProvider, Document: kind, Message: "canceled", Cause: err}
	}
	if strings.TrimSpace(text) == "" {
		return nil, &ExtractionError{Kind: KindEmptyInput, Document: kind, Message: "document has no text"}
	}

	collected := make(map[types.SectionName][]string)
	var current types.SectionName
	inSection := false
	found := false

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		if section, rest, ok := matchHeading(rules, line); ok {
			current = section
			inSection = section != ""
			if inSection {
				found = true
				if rest != "" {
					collected[current] = append(collected[current], rest)
				}
			}
			continue
		}
		if inSection {
			collected[current] = append(collected[current], strings.TrimRight(line, " \t"))
		}
	}

	if !found {
		return nil, &ExtractionError{Kind: KindNoSections, Document: kind, Message: "no recognizable section headings"}
	}

	doc := types.NewSectionedDocument(kind)
	for section, lines := range collected {
		doc.Set(section, strings.TrimSpace(strings.Join(lines, "\n")))
	}
	return doc, nil
}

// matchHeading reports whether line is a section heading. Lines of the form
// "Skills: Go, SQL" match with the trailing text returned as rest.
func matchHeading(rules []headingRule, line string) (section types.SectionName, rest string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", "", false
	}

	if len(trimmed) <= maxHeadingLength {
		if s, ok := lookupHeading(rules, trimmed); ok {
			return s, "", true
		}
	}

	if m := inlineHeading.FindStringSubmatch(trimmed); m != nil {
		if s, ok := lookupHeading(rules, m[1]); ok {
			if s == "" {
				return "", "", true
			}
			return s, strings.TrimSpace(m[2]), true
		}
	}
	return "", "", false
}

func lookupHeading(rules []headingRule, candidate string) (types.SectionName, bool) {
	normalized := normalizeHeading(candidate)
	if normalized == "" {
		return "", false
	}
	for _, r := range rules {
		if r.Pattern.MatchString(normalized) {
			return r.Section, true
		}
	}
	return "", false
}

func normalizeHeading(s string) string {
	s = strings.ToLower(headingDecoration.ReplaceAllString(s, ""))
	s = numberedPrefix.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
