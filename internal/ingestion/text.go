// Package ingestion turns uploaded files and job posting URLs into clean text.
package ingestion

import (
	"regexp"
	"strings"
)

var (
	innerSpaces     = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	excessiveBlanks = regexp.MustCompile(`\n\n\n+`)
)

// CleanText normalizes line endings and spacing while keeping line structure,
// so section headings survive for extraction.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := strings.Join(lines, "\n")
	result = excessiveBlanks.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine collapses runs of spaces. Bullet indentation is kept so nested
// lists stay readable; other lines are left-trimmed.
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t ")
	trimmed := strings.TrimLeft(line, " \t ")
	if trimmed == "" {
		return ""
	}

	content := innerSpaces.ReplaceAllString(trimmed, " ")
	if isBulletLine(trimmed) {
		if indent := len(line) - len(trimmed); indent > 0 {
			return strings.Repeat(" ", indent) + content
		}
	}
	return content
}

func isBulletLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") ||
		strings.HasPrefix(trimmed, "• ") || strings.HasPrefix(trimmed, "· ")
}
