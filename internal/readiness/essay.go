// internal/readiness/essay.go
package readiness

import (
	"regexp"
	"strconv"
	"strings"

	"gradabroad-workers/internal/models"
)

// DefaultEssayLimit applies when a requirement note carries no limit.
const DefaultEssayLimit = 1000

var limitPattern = regexp.MustCompile(`(?i)(\d+)\s*(characters|chars|words|symbols|letters)`)

// IsEssay reports whether req is answered with text rather than a file.
func IsEssay(req models.Requirement) bool {
	switch strings.ToLower(strings.TrimSpace(req.RequirementType)) {
	case models.RequirementTypeEssay, models.RequirementTypeText:
		return true
	}
	label := strings.ToLower(req.Label)
	if strings.Contains(label, "essay") || strings.Contains(label, "motivation letter") {
		return true
	}
	return strings.Contains(label, "why") && !strings.Contains(label, "document")
}

// ParseLimit extracts the first number-plus-unit limit from note. Word
// limits are compared against characters like every other unit.
func ParseLimit(note string) int {
	m := limitPattern.FindStringSubmatch(note)
	if m == nil {
		return DefaultEssayLimit
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return DefaultEssayLimit
	}
	return n
}
