// internal/workers/application/compute-readiness/handler.go
package computereadiness

import (
	"context"
	"errors"

	"gradabroad-workers/internal/common/auth"
	"gradabroad-workers/internal/common/camunda"
	apperrors "gradabroad-workers/internal/common/errors"
	"gradabroad-workers/internal/common/logger"
	"gradabroad-workers/internal/common/metrics"
	"gradabroad-workers/internal/common/observability"
	"gradabroad-workers/internal/documents"
	"gradabroad-workers/internal/models"
	"gradabroad-workers/internal/readiness"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "compute-readiness"
)

// ProgrammeSource is implemented by *readiness.ProgrammeLoader.
type ProgrammeSource interface {
	Load(ctx context.Context, token string, programmeID int64) (*models.Programme, error)
}

// DocumentSource is implemented by *documents.Accessor.
type DocumentSource interface {
	FetchDocumentStatus(ctx context.Context, token string) (*models.DocumentStatus, error)
}

type Handler struct {
	config     *Config
	programmes ProgrammeSource
	docs       DocumentSource
	aggregator *readiness.Aggregator
	obs        *observability.Observability
	runner     *camunda.Runner
	logger     logger.Logger
}

func NewHandler(
	config *Config,
	runner *camunda.Runner,
	programmes ProgrammeSource,
	docs DocumentSource,
	aggregator *readiness.Aggregator,
	obs *observability.Observability,
	log logger.Logger,
) *Handler {
	if aggregator == nil {
		aggregator = readiness.NewAggregator(nil)
	}
	return &Handler{
		config:     config,
		programmes: programmes,
		docs:       docs,
		aggregator: aggregator,
		obs:        obs,
		runner:     runner,
		logger:     logger.ForTask(log, TaskType),
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
	programme, err := h.loadProgramme(ctx, input)
	if err != nil {
		return nil, err
	}

	docs, err := h.loadDocuments(ctx, input)
	if err != nil {
		return nil, err
	}

	result := h.aggregator.Compute(readiness.Input{
		Programme:      *programme,
		Documents:      docs,
		EssayAnswers:   input.EssayAnswers,
		UploadedLabels: input.UploadedLabels,
	})

	metrics.ReadinessMissingRequired.Observe(float64(len(result.MissingRequired)))
	h.obs.RecordReadiness(ctx, result.ReadyToSubmit)

	h.logger.Info("readiness computed", map[string]interface{}{
		"programmeId":     programme.ID,
		"requirements":    len(result.Requirements),
		"missingRequired": result.MissingRequired,
		"readyToSubmit":   result.ReadyToSubmit,
		"documentsKnown":  docs != nil,
	})

	return &Output{
		Readiness:       result,
		ReadyToSubmit:   result.ReadyToSubmit,
		MissingRequired: result.MissingRequired,
		ProgrammeName:   programme.Name,
	}, nil
}

func (h *Handler) loadProgramme(ctx context.Context, input *Input) (*models.Programme, error) {
	if p := input.Programme; p != nil && p.Requirements != nil {
		if p.ID == 0 {
			clone := *p
			clone.ID = input.ProgrammeID
			return &clone, nil
		}
		return p, nil
	}

	if auth.StripBearer(input.AccessToken) == "" {
		return nil, apperrors.NewTokenMissingError()
	}

	p, err := h.programmes.Load(ctx, input.AccessToken, input.ProgrammeID)
	switch {
	case errors.Is(err, readiness.ErrProgrammeNotFound):
		return nil, apperrors.NewProgrammeNotFoundError(input.ProgrammeID)
	case errors.Is(err, auth.ErrTokenMissing):
		return nil, apperrors.NewTokenMissingError()
	case err != nil:
		return nil, apperrors.NewProgrammeFetchFailedError(err)
	}
	return p, nil
}

// loadDocuments returns nil when the document store is unavailable; the
// aggregator then reports every document requirement without an upload as
// missing.
func (h *Handler) loadDocuments(ctx context.Context, input *Input) (*models.DocumentStatus, error) {
	if input.DocumentStatus != nil {
		return input.DocumentStatus, nil
	}
	if input.DocumentsAvailable != nil && !*input.DocumentsAvailable {
		return nil, nil
	}
	if auth.StripBearer(input.AccessToken) == "" {
		return nil, apperrors.NewTokenMissingError()
	}

	status, err := h.docs.FetchDocumentStatus(ctx, input.AccessToken)
	switch {
	case errors.Is(err, documents.ErrDocumentsUnavailable):
		h.logger.Warn("document status unavailable, evaluating without documents", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, nil
	case errors.Is(err, auth.ErrTokenMissing):
		return nil, apperrors.NewTokenMissingError()
	case err != nil:
		return nil, apperrors.NewDocumentsUnavailableError(err)
	}
	return status, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
