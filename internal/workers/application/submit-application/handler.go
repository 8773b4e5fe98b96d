// internal/workers/application/submit-application/handler.go
package submitapplication

import (
	"context"
	"time"

	"gradabroad-workers/internal/common/auth"
	"gradabroad-workers/internal/common/camunda"
	apperrors "gradabroad-workers/internal/common/errors"
	"gradabroad-workers/internal/common/logger"
	"gradabroad-workers/internal/common/storage"
	"gradabroad-workers/internal/models"
	"gradabroad-workers/internal/submission"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "submit-application"
)

// Advancer is implemented by *submission.Orchestrator.
type Advancer interface {
	Advance(ctx context.Context, token string, state submission.State, draft submission.Draft) (submission.State, error)
}

// Locker is implemented by *submission.Guard.
type Locker interface {
	Acquire(ctx context.Context, studentID string, programmeID int64) (submission.Release, error)
}

// StageLookup is implemented by *submission.AuditStore.
type StageLookup interface {
	LastStage(ctx context.Context, studentID string, programmeID int64) (submission.State, bool, error)
}

type Handler struct {
	config       *Config
	orchestrator Advancer
	guard        Locker
	stages       StageLookup
	store        storage.Store
	tokens       *auth.TokenChecker
	runner       *camunda.Runner
	logger       logger.Logger
	now          func() time.Time
}

type Deps struct {
	Orchestrator Advancer
	Guard        Locker
	Stages       StageLookup
	Store        storage.Store
	Tokens       *auth.TokenChecker
}

func NewHandler(config *Config, runner *camunda.Runner, deps Deps, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		orchestrator: deps.Orchestrator,
		guard:        deps.Guard,
		stages:       deps.Stages,
		store:        deps.Store,
		tokens:       deps.Tokens,
		runner:       runner,
		logger:       logger.ForTask(log, TaskType),
		now:          time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, h.config.Timeout, func(ctx context.Context) (interface{}, error) {
		input, err := h.parseInput(job)
		if err != nil {
			return nil, err
		}
		return h.execute(ctx, input)
	})
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := h.runner.Decode(job.Variables, &input); err != nil {
		return nil, err
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	token, err := h.tokens.Require(input.AccessToken)
	if err != nil {
		return nil, err
	}

	if r := input.Readiness; r != nil && (!r.ReadyToSubmit || len(r.MissingRequired) > 0) {
		h.logger.Info("submission blocked by missing requirements", map[string]interface{}{
			"programmeId":     input.Draft.ProgrammeID,
			"missingRequired": r.MissingRequired,
		})
		return nil, apperrors.NewSubmissionBlockedError(r.MissingRequired)
	}

	programmeID := input.Draft.ProgrammeID
	if h.guard != nil {
		release, err := h.guard.Acquire(ctx, input.StudentID, programmeID)
		if err != nil {
			return nil, submission.ToStandardError(err)
		}
		defer func() {
			// The job context may already be done; release on a fresh one.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := release(releaseCtx); err != nil {
				h.logger.Warn("failed to release submission guard", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	state, resumed, err := h.resolveState(ctx, input)
	if err != nil {
		return nil, err
	}

	// A run that starts at SUBMITTED makes no backend call and has no
	// submission time to report.
	alreadySubmitted := state.Stage == models.StageSubmitted

	draft := submission.DraftFrom(input.StudentID, input.Draft, h.store)
	state, err = h.orchestrator.Advance(ctx, token, state, draft)
	if err != nil {
		return nil, submission.FailedAt(err, state)
	}

	out := &Output{
		ApplicationID:   state.ApplicationID,
		SubmissionStage: state.Stage,
		Resumed:         resumed,
	}
	if !alreadySubmitted {
		submittedAt := h.now().UTC()
		out.SubmittedAt = &submittedAt
	}

	h.logger.Info("application submitted", map[string]interface{}{
		"programmeId":      programmeID,
		"applicationId":    state.ApplicationID,
		"resumed":          resumed,
		"alreadySubmitted": alreadySubmitted,
	})
	return out, nil
}

// resolveState prefers the stage carried by the process. Without one it
// falls back to the audit log, and then to a fresh start.
func (h *Handler) resolveState(ctx context.Context, input *Input) (submission.State, bool, error) {
	var applicationID int64
	if input.ApplicationID != nil {
		applicationID = *input.ApplicationID
	}

	if input.SubmissionStage != "" {
		state, err := submission.StateFrom(input.SubmissionStage, applicationID)
		if err != nil {
			return submission.State{}, false, apperrors.NewInvalidInputError(err.Error())
		}
		return state, submission.Rank(state.Stage) > 0, nil
	}

	if !h.config.ResumeFromAudit || h.stages == nil {
		return submission.NotStarted(), false, nil
	}

	state, ok, err := h.stages.LastStage(ctx, input.StudentID, input.Draft.ProgrammeID)
	if err != nil {
		h.logger.Warn("audit lookup failed, starting a new submission", map[string]interface{}{"error": err.Error()})
		return submission.NotStarted(), false, nil
	}
	if !ok {
		return submission.NotStarted(), false, nil
	}
	h.logger.Info("resuming submission from audit log", map[string]interface{}{
		"stage":         string(state.Stage),
		"applicationId": state.ApplicationID,
	})
	return state, true, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
