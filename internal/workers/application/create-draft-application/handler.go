// internal/workers/application/create-draft-application/handler.go
package createdraftapplication

import (
	"context"

	"gradabroad-workers/internal/common/auth"
	"gradabroad-workers/internal/common/camunda"
	"gradabroad-workers/internal/common/logger"
	"gradabroad-workers/internal/models"
	"gradabroad-workers/internal/submission"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "create-draft-application"
)

// Advancer is implemented by *submission.Orchestrator.
type Advancer interface {
	AdvanceTo(ctx context.Context, token string, state submission.State, draft submission.Draft, target models.SubmissionStage) (submission.State, error)
}

type Handler struct {
	config       *Config
	orchestrator Advancer
	tokens       *auth.TokenChecker
	runner       *camunda.Runner
	logger       logger.Logger
}

func NewHandler(config *Config, runner *camunda.Runner, orchestrator Advancer, tokens *auth.TokenChecker, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		orchestrator: orchestrator,
		tokens:       tokens,
		runner:       runner,
		logger:       logger.ForTask(log, TaskType),
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

// execute always creates a new draft; the backend offers no idempotency key.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	token, err := h.tokens.Require(input.AccessToken)
	if err != nil {
		return nil, err
	}

	draft := submission.Draft{StudentID: input.StudentID, ProgrammeID: input.ProgrammeID}
	state, err := h.orchestrator.AdvanceTo(ctx, token, submission.NotStarted(), draft, models.StageDraftCreated)
	if err != nil {
		return nil, submission.FailedAt(err, state)
	}

	h.logger.Info("draft application created", map[string]interface{}{
		"programmeId":   input.ProgrammeID,
		"applicationId": state.ApplicationID,
	})

	return &Output{
		ApplicationID:   state.ApplicationID,
		SubmissionStage: state.Stage,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
