// internal/workers/application/upload-essays/handler.go
package uploadessays

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
	TaskType = "upload-essays"
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	token, err := h.tokens.Require(input.AccessToken)
	if err != nil {
		return nil, err
	}

	draft := submission.Draft{
		StudentID:   input.StudentID,
		ProgrammeID: input.ProgrammeID,
		Essays: submission.EssayInput{
			Motivation:        input.Motivation,
			WhyThisUniversity: input.WhyThisUniversity,
			RequirementID:     input.EssayRequirementID,
		},
		RequirementEssays: input.EssayAnswers,
	}

	state, err := h.orchestrator.AdvanceTo(ctx, token, submission.AttachmentsUploaded(input.ApplicationID), draft, models.StageEssaysUploaded)
	if err != nil {
		return nil, submission.FailedAt(err, state)
	}

	h.logger.Info("essays uploaded", map[string]interface{}{
		"applicationId":     state.ApplicationID,
		"requirementEssays": len(input.EssayAnswers),
	})

	return &Output{SubmissionStage: state.Stage}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
