// internal/submission/audit.go
package submission

import (
	"context"
	"database/sql"
	"encoding/json"

	"gradabroad-workers/internal/common/logger"
)

const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Event is one attempted submission step.
type Event struct {
	StudentID     string
	ProgrammeID   int64
	ApplicationID int64
	Step          string
	Outcome       string
	Label         string
	Details       map[string]interface{}
}

// AuditStore appends events to application_submission_events. Writes are
// best-effort: a failed insert is logged and never reaches the caller.
type AuditStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewAuditStore(db *sql.DB, log logger.Logger) *AuditStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &AuditStore{db: db, logger: log}
}

func (s *AuditStore) Record(ctx context.Context, ev Event) {
	if s == nil || s.db == nil {
		return
	}

	details := []byte("{}")
	if len(ev.Details) > 0 {
		b, err := json.Marshal(ev.Details)
		if err != nil {
			s.logger.Warn("failed to marshal audit details", map[string]interface{}{"error": err})
		} else {
			details = b
		}
	}

	var applicationID sql.NullInt64
	if ev.ApplicationID > 0 {
		applicationID = sql.NullInt64{Int64: ev.ApplicationID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO application_submission_events (
			student_id, programme_id, application_id, step, outcome, label, details
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.StudentID,
		ev.ProgrammeID,
		applicationID,
		ev.Step,
		ev.Outcome,
		ev.Label,
		details,
	)
	if err != nil {
		s.logger.Warn("submission audit insert failed", map[string]interface{}{
			"error":         err,
			"step":          ev.Step,
			"applicationId": ev.ApplicationID,
		})
	}
}

// LastStage returns the furthest stage recorded as ok for the pair, and the
// application id it belongs to. ok is false when nothing was recorded.
func (s *AuditStore) LastStage(ctx context.Context, studentID string, programmeID int64) (State, bool, error) {
	if s == nil || s.db == nil {
		return State{}, false, nil
	}

	var (
		step          string
		applicationID sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT step, application_id FROM application_submission_events
		WHERE student_id = $1 AND programme_id = $2 AND outcome = $3
		ORDER BY id DESC
		LIMIT 1`,
		studentID, programmeID, OutcomeOK,
	).Scan(&step, &applicationID)
	if err == sql.ErrNoRows {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}

	state, ok := stateAfterStep(step, applicationID.Int64)
	return state, ok, nil
}

func stateAfterStep(step string, applicationID int64) (State, bool) {
	switch step {
	case StepCreateDraft:
		return DraftCreated(applicationID), true
	case StepUploadAttachments:
		return AttachmentsUploaded(applicationID), true
	case StepUploadEssays:
		return EssaysUploaded(applicationID), true
	case StepFinalize:
		return Submitted(applicationID), true
	}
	return State{}, false
}
