// internal/matching/matcher.go
// Package matching decides whether a student's documents satisfy an
// admission requirement.
package matching

import (
	"fmt"
	"strings"

	"gradabroad-workers/internal/models"
)

const (
	StrategySubstring = "substring"
	StrategyHint      = "hint"
)

// Matcher decides whether a document set satisfies a requirement.
type Matcher interface {
	IsFulfilled(req models.Requirement, docs *models.DocumentStatus) bool
	// Match returns the first document satisfying req, or nil.
	Match(req models.Requirement, docs *models.DocumentStatus) *models.Document
}

// New returns the matcher for the configured strategy. An empty strategy
// selects substring matching.
func New(strategy string) (Matcher, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategySubstring:
		return SubstringMatcher{}, nil
	case StrategyHint:
		return HintMatcher{Fallback: SubstringMatcher{}}, nil
	default:
		return nil, fmt.Errorf("unknown matching strategy %q", strategy)
	}
}

// Normalize lower-cases s and strips every character outside [a-z0-9].
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SubstringMatcher matches when any normalized document key contains the
// normalized requirement label. It fails closed on nil documents.
type SubstringMatcher struct{}

func (m SubstringMatcher) IsFulfilled(req models.Requirement, docs *models.DocumentStatus) bool {
	return m.Match(req, docs) != nil
}

func (SubstringMatcher) Match(req models.Requirement, docs *models.DocumentStatus) *models.Document {
	if docs == nil {
		return nil
	}
	// A label with no [a-z0-9] runes (Cyrillic, Hangul, punctuation)
	// normalizes to "" and is contained in every non-empty key.
	needle := Normalize(req.Label)

	for _, doc := range docs.All() {
		for _, key := range doc.Keys() {
			if key == "" {
				continue
			}
			if strings.Contains(Normalize(key), needle) {
				d := doc
				return &d
			}
		}
	}
	return nil
}

// HintMatcher prefers an exact doc_type match on the requirement's
// matching_doc_type and otherwise defers to Fallback.
type HintMatcher struct {
	Fallback Matcher
}

func (m HintMatcher) IsFulfilled(req models.Requirement, docs *models.DocumentStatus) bool {
	return m.Match(req, docs) != nil
}

func (m HintMatcher) Match(req models.Requirement, docs *models.DocumentStatus) *models.Document {
	if docs == nil {
		return nil
	}
	if hint := Normalize(req.MatchingDocType); hint != "" {
		for _, doc := range docs.All() {
			if Normalize(doc.DocType) == hint {
				d := doc
				return &d
			}
		}
	}
	if m.Fallback == nil {
		return nil
	}
	return m.Fallback.Match(req, docs)
}
