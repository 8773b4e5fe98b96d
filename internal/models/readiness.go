// internal/models/readiness.go
package models

// RequirementStatus is the computed state of one requirement.
type RequirementStatus string

const (
	StatusMissing   RequirementStatus = "missing"
	StatusSatisfied RequirementStatus = "satisfied"
	// StatusPartial is accepted on the wire but not produced by the current rules.
	StatusPartial RequirementStatus = "partial"
)

// RequirementKind tells how a requirement is satisfied.
type RequirementKind string

const (
	KindDocument RequirementKind = "document"
	KindEssay    RequirementKind = "essay"
)

// CategoryKey identifies one of the fixed display groups.
type CategoryKey string

const (
	CategoryPersonalInfo    CategoryKey = "personal_info"
	CategoryEducation       CategoryKey = "education"
	CategoryCertificates    CategoryKey = "certificates"
	CategoryFamily          CategoryKey = "family"
	CategoryApplicationDocs CategoryKey = "application_docs"
	CategoryFinancialDocs   CategoryKey = "financial_docs"
)

// ReadinessRequirement is a requirement together with its computed status.
type ReadinessRequirement struct {
	Requirement   Requirement       `json:"requirement"`
	Kind          RequirementKind   `json:"kind"`
	Status        RequirementStatus `json:"status"`
	Reason        string            `json:"reason,omitempty"`
	MatchedRecord *Document         `json:"matched_record,omitempty"`
	Category      CategoryKey       `json:"category,omitempty"`
	CharLimit     int               `json:"char_limit,omitempty"`
	CharCount     int               `json:"char_count,omitempty"`
}

// IsBlocking reports whether this requirement prevents submission.
func (r ReadinessRequirement) IsBlocking() bool {
	return r.Requirement.IsRequired() && r.Status == StatusMissing
}

// CategoryStatus summarizes the document requirements of one display group.
type CategoryStatus struct {
	Key                CategoryKey `json:"key"`
	Title              string      `json:"title"`
	RequirementIDs     []int64     `json:"requirement_ids"`
	HasMissingRequired bool        `json:"has_missing_required"`
	AllSatisfied       bool        `json:"all_satisfied"`
}

// Readiness is the per-requirement status table of one programme.
type Readiness struct {
	ProgrammeID     int64                  `json:"programme_id"`
	Requirements    []ReadinessRequirement `json:"requirements"`
	MissingRequired []int64                `json:"missing_required"`
	Categories      []CategoryStatus       `json:"categories"`
	ReadyToSubmit   bool                   `json:"ready_to_submit"`
}
