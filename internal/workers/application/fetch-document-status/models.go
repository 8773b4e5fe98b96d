// internal/workers/application/fetch-document-status/models.go
package fetchdocumentstatus

import "gradabroad-workers/internal/models"

type Input struct {
	AccessToken string `json:"accessToken"`
	// Refresh drops any cached status before fetching.
	Refresh bool `json:"refresh,omitempty"`
}

type Output struct {
	DocumentStatus     *models.DocumentStatus `json:"documentStatus"`
	DocumentsAvailable bool                   `json:"documentsAvailable"`
	FailedCategories   []string               `json:"failedCategories,omitempty"`
	FromCache          bool                   `json:"fromCache"`
}
