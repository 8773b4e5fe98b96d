// internal/readiness/programme.go
package readiness

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gradabroad-workers/internal/common/auth"
	apphttp "gradabroad-workers/internal/common/http"
	"gradabroad-workers/internal/models"
)

var ErrProgrammeNotFound = errors.New("programme not found")

// ProgrammeLoader reads a programme and its requirements from the backend.
type ProgrammeLoader struct {
	client interface {
		GetJSON(ctx context.Context, token, path string, out interface{}) error
	}
}

func NewProgrammeLoader(client *apphttp.Client) *ProgrammeLoader {
	return &ProgrammeLoader{client: client}
}

// Load returns ErrProgrammeNotFound for a 404. Requirements are never nil.
func (l *ProgrammeLoader) Load(ctx context.Context, token string, programmeID int64) (*models.Programme, error) {
	token = auth.StripBearer(token)
	if token == "" {
		return nil, auth.ErrTokenMissing
	}

	var p models.Programme
	err := l.client.GetJSON(ctx, token, fmt.Sprintf("/api/programmes/%d/", programmeID), &p)
	if apphttp.IsStatus(err, http.StatusNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrProgrammeNotFound, programmeID)
	}
	if err != nil {
		return nil, fmt.Errorf("load programme %d: %w", programmeID, err)
	}
	if p.ID == 0 {
		p.ID = programmeID
	}
	if p.Requirements == nil {
		p.Requirements = models.RequirementList{}
	}
	return &p, nil
}
