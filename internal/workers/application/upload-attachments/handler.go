// internal/workers/application/upload-attachments/handler.go
package uploadattachments

import (
	"context"

	"gradabroad-workers/internal/common/auth"
	"gradabroad-workers/internal/common/camunda"
	"gradabroad-workers/internal/common/logger"
	"gradabroad-workers/internal/common/storage"
	"gradabroad-workers/internal/models"
	"gradabroad-workers/internal/submission"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "upload-attachments"
)

// Advancer is implemented by *submission.Orchestrator.
type Advancer interface {
	AdvanceTo(ctx context.Context, token string, state submission.State, draft submission.Draft, target models.SubmissionStage) (submission.State, error)
}

type Handler struct {
	config       *Config
	orchestrator Advancer
	store        storage.Store
	tokens       *auth.TokenChecker
	runner       *camunda.Runner
	logger       logger.Logger
}

func NewHandler(config *Config, runner *camunda.Runner, orchestrator Advancer, store storage.Store, tokens *auth.TokenChecker, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		orchestrator: orchestrator,
		store:        store,
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

	draft := submission.DraftFrom(input.StudentID, models.DraftApplication{
		ProgrammeID:    input.ProgrammeID,
		Attachments:    input.Attachments,
		PaymentReceipt: input.PaymentReceipt,
	}, h.store)

	state, err := h.orchestrator.AdvanceTo(ctx, token, submission.DraftCreated(input.ApplicationID), draft, models.StageAttachmentsUploaded)
	if err != nil {
		return nil, submission.FailedAt(err, state)
	}

	labels := make([]string, 0, len(draft.Attachments)+1)
	for _, f := range draft.Attachments {
		labels = append(labels, f.Label)
	}
	if draft.PaymentReceipt != nil {
		labels = append(labels, draft.PaymentReceipt.Label)
	}

	h.logger.Info("attachments uploaded", map[string]interface{}{
		"applicationId": state.ApplicationID,
		"labels":        labels,
	})

	return &Output{
		SubmissionStage: state.Stage,
		UploadedLabels:  labels,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
