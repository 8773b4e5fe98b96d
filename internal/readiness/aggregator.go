// Package readiness computes per-requirement status for a programme.
package readiness

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"gradabroad-workers/internal/matching"
	"gradabroad-workers/internal/models"
)

// Input is everything a readiness computation depends on.
type Input struct {
	Programme models.Programme
	// Documents may be nil when the document store was unavailable; every
	// document requirement is then missing unless uploaded locally.
	Documents      *models.DocumentStatus
	EssayAnswers   map[int64]string
	UploadedLabels []string
}

// Aggregator turns requirements plus evidence into a Readiness table. It
// holds no state besides the matcher and never mutates its input.
type Aggregator struct {
	matcher matching.Matcher
}

// NewAggregator uses substring matching when m is nil.
func NewAggregator(m matching.Matcher) *Aggregator {
	if m == nil {
		m = matching.SubstringMatcher{}
	}
	return &Aggregator{matcher: m}
}

func (a *Aggregator) Compute(in Input) *models.Readiness {
	uploaded := make(map[string]bool, len(in.UploadedLabels))
	for _, label := range in.UploadedLabels {
		uploaded[label] = true
	}

	out := &models.Readiness{
		ProgrammeID:     in.Programme.ID,
		Requirements:    make([]models.ReadinessRequirement, 0, len(in.Programme.Requirements)),
		MissingRequired: []int64{},
	}

	for _, req := range in.Programme.Requirements {
		req = cloneRequirement(req)

		var rr models.ReadinessRequirement
		if IsEssay(req) {
			rr = evaluateEssay(req, in.EssayAnswers)
		} else {
			rr = a.evaluateDocument(req, in.Documents, uploaded)
		}

		if rr.IsBlocking() {
			out.MissingRequired = append(out.MissingRequired, req.ID)
		}
		out.Requirements = append(out.Requirements, rr)
	}

	out.Categories = summarizeCategories(out.Requirements)
	out.ReadyToSubmit = len(out.MissingRequired) == 0
	return out
}

func (a *Aggregator) evaluateDocument(req models.Requirement, docs *models.DocumentStatus, uploaded map[string]bool) models.ReadinessRequirement {
	rr := models.ReadinessRequirement{
		Requirement: req,
		Kind:        models.KindDocument,
		Category:    Classify(req),
	}

	if match := a.matcher.Match(req, docs); match != nil {
		rr.Status = models.StatusSatisfied
		rr.MatchedRecord = match
		return rr
	}
	if uploaded[req.Label] {
		rr.Status = models.StatusSatisfied
		return rr
	}

	rr.Status = models.StatusMissing
	if docs == nil {
		rr.Reason = "Document status is unavailable"
	} else {
		rr.Reason = fmt.Sprintf("No document matching %q was found", req.Label)
	}
	return rr
}

func evaluateEssay(req models.Requirement, answers map[int64]string) models.ReadinessRequirement {
	limit := ParseLimit(req.Note)
	text := strings.TrimSpace(answers[req.ID])
	count := utf8.RuneCountInString(text)

	rr := models.ReadinessRequirement{
		Requirement: req,
		Kind:        models.KindEssay,
		CharLimit:   limit,
		CharCount:   count,
	}

	switch {
	case count == 0:
		rr.Status = models.StatusMissing
		rr.Reason = "Essay answer is empty"
	case count > limit:
		rr.Status = models.StatusMissing
		rr.Reason = fmt.Sprintf("Essay exceeds the %d character limit (%d characters)", limit, count)
	default:
		rr.Status = models.StatusSatisfied
	}
	return rr
}

func summarizeCategories(reqs []models.ReadinessRequirement) []models.CategoryStatus {
	byKey := make(map[models.CategoryKey]*models.CategoryStatus, len(displayOrder))
	out := make([]models.CategoryStatus, len(displayOrder))
	for i, key := range displayOrder {
		out[i] = models.CategoryStatus{
			Key:            key,
			Title:          categoryTitle(key),
			RequirementIDs: []int64{},
			AllSatisfied:   true,
		}
		byKey[key] = &out[i]
	}

	for _, rr := range reqs {
		if rr.Kind != models.KindDocument {
			continue
		}
		cs := byKey[rr.Category]
		cs.RequirementIDs = append(cs.RequirementIDs, rr.Requirement.ID)
		if rr.IsBlocking() {
			cs.HasMissingRequired = true
		}
		if rr.Status != models.StatusSatisfied {
			cs.AllSatisfied = false
		}
	}

	for i := range out {
		if len(out[i].RequirementIDs) == 0 {
			out[i].AllSatisfied = false
		}
	}
	return out
}

func cloneRequirement(req models.Requirement) models.Requirement {
	if req.Required != nil {
		req.Required = models.BoolPtr(*req.Required)
	}
	return req
}
