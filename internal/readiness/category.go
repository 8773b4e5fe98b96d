// internal/readiness/category.go
package readiness

import (
	"strings"
	"unicode"

	"gradabroad-workers/internal/models"
)

type categoryRule struct {
	key      models.CategoryKey
	title    string
	keywords []string
}

// categoryRules are checked in order; the first rule with a matching keyword
// wins. Application docs is the fallback.
var categoryRules = []categoryRule{
	{
		key:      models.CategoryFinancialDocs,
		title:    "Financial documents",
		keywords: []string{"bank", "financ", "sponsor", "balance", "income", "tuition", "payment", "receipt"},
	},
	{
		key:      models.CategoryFamily,
		title:    "Family",
		keywords: []string{"family", "parent", "mother", "father", "guardian", "relationship", "kinship"},
	},
	{
		key:      models.CategoryPersonalInfo,
		title:    "Personal information",
		keywords: []string{"passport", "photo", "id card", "identity", "birth", "personal", "visa", "residence"},
	},
	{
		key:      models.CategoryEducation,
		title:    "Education",
		keywords: []string{"diploma", "transcript", "degree", "school", "education", "graduat", "gpa", "academic record"},
	},
	{
		key:      models.CategoryCertificates,
		title:    "Certificates",
		keywords: []string{"certificate", "ielts", "toefl", "topik", "sat", "duolingo", "language"},
	},
}

var fallbackCategory = categoryRule{key: models.CategoryApplicationDocs, title: "Application documents"}

// displayOrder is the fixed order categories are reported in.
var displayOrder = []models.CategoryKey{
	models.CategoryPersonalInfo,
	models.CategoryEducation,
	models.CategoryCertificates,
	models.CategoryFamily,
	models.CategoryApplicationDocs,
	models.CategoryFinancialDocs,
}

// Classify assigns a document requirement to a display category from its
// type and label.
func Classify(req models.Requirement) models.CategoryKey {
	text := strings.ToLower(req.RequirementType + " " + req.Label)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if hasKeyword(text, words, kw) {
				return rule.key
			}
		}
	}
	return fallbackCategory.key
}

// hasKeyword matches short keywords as whole words only, so "sat" does not
// hit "compensation".
func hasKeyword(text string, words []string, kw string) bool {
	if len(kw) > 4 {
		return strings.Contains(text, kw)
	}
	for _, w := range words {
		if w == kw {
			return true
		}
	}
	return false
}

func categoryTitle(key models.CategoryKey) string {
	for _, rule := range categoryRules {
		if rule.key == key {
			return rule.title
		}
	}
	return fallbackCategory.title
}
