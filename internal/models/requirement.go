// internal/models/requirement.go
package models

import (
	"encoding/json"
	"fmt"
)

// Requirement types as sent by the backend. Anything else is treated as a
// document requirement.
const (
	RequirementTypeDocument = "document"
	RequirementTypeFile     = "file"
	RequirementTypeUpload   = "upload"
	RequirementTypeEssay    = "essay"
	RequirementTypeText     = "text"
)

// Requirement is an admission criterion attached to a programme.
type Requirement struct {
	ID              int64  `json:"id"`
	RequirementType string `json:"requirementType"`
	Label           string `json:"label"`
	Required        *bool  `json:"required,omitempty"`
	Note            string `json:"note,omitempty"`
	MatchingDocType string `json:"matching_doc_type,omitempty"`
}

// IsRequired reports whether the requirement blocks submission when missing.
// An absent flag means required.
func (r Requirement) IsRequired() bool {
	return r.Required == nil || *r.Required
}

// UnmarshalJSON also accepts the snake_case "requirement_type" key some
// programme endpoints emit.
func (r *Requirement) UnmarshalJSON(data []byte) error {
	type plain Requirement
	var aux struct {
		plain
		SnakeType string `json:"requirement_type"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Requirement(aux.plain)
	if r.RequirementType == "" {
		r.RequirementType = aux.SnakeType
	}
	return nil
}

// RequirementList accepts a bare array or a {"results": [...]} wrapper.
type RequirementList []Requirement

func (l *RequirementList) UnmarshalJSON(data []byte) error {
	items, err := unmarshalListOrResults[Requirement](data)
	if err != nil {
		return fmt.Errorf("requirement list: %w", err)
	}
	*l = items
	return nil
}

// Programme is a study programme offered by a university.
type Programme struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name,omitempty"`
	University   string          `json:"university,omitempty"`
	Requirements RequirementList `json:"requirements"`
}

// BoolPtr is a convenience for building requirements in code and tests.
func BoolPtr(v bool) *bool {
	return &v
}
