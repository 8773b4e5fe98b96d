// internal/workers/application/compute-readiness/models.go
package computereadiness

import "gradabroad-workers/internal/models"

type Input struct {
	AccessToken string `json:"accessToken"`
	ProgrammeID int64  `json:"programmeId"`
	// Programme skips the programme fetch when it carries requirements.
	Programme *models.Programme `json:"programme,omitempty"`
	// DocumentStatus skips the document fetch. When it is null and
	// DocumentsAvailable is false the documents are treated as unavailable.
	DocumentStatus     *models.DocumentStatus `json:"documentStatus,omitempty"`
	DocumentsAvailable *bool                  `json:"documentsAvailable,omitempty"`
	EssayAnswers       map[int64]string       `json:"essayAnswers,omitempty"`
	UploadedLabels     []string               `json:"uploadedLabels,omitempty"`
}

type Output struct {
	Readiness       *models.Readiness `json:"readiness"`
	ReadyToSubmit   bool              `json:"readyToSubmit"`
	MissingRequired []int64           `json:"missingRequired"`
	ProgrammeName   string            `json:"programmeName,omitempty"`
}
