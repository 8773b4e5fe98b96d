// internal/workers/application/fetch-document-status/handler.go
package fetchdocumentstatus

import (
	"context"
	"errors"

	"gradabroad-workers/internal/common/auth"
	"gradabroad-workers/internal/common/camunda"
	apperrors "gradabroad-workers/internal/common/errors"
	"gradabroad-workers/internal/common/logger"
	"gradabroad-workers/internal/documents"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "fetch-document-status"
)

// DocumentFetcher is implemented by *documents.Accessor.
type DocumentFetcher interface {
	Fetch(ctx context.Context, token string) (*documents.Result, error)
	Invalidate(ctx context.Context, token string)
}

type Handler struct {
	config  *Config
	fetcher DocumentFetcher
	tokens  *auth.TokenChecker
	runner  *camunda.Runner
	logger  logger.Logger
}

func NewHandler(config *Config, runner *camunda.Runner, fetcher DocumentFetcher, tokens *auth.TokenChecker, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		fetcher: fetcher,
		tokens:  tokens,
		runner:  runner,
		logger:  logger.ForTask(log, TaskType),
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

	if input.Refresh {
		h.fetcher.Invalidate(ctx, token)
	}

	result, err := h.fetcher.Fetch(ctx, token)
	switch {
	case errors.Is(err, documents.ErrDocumentsUnavailable):
		if h.config.FailWhenUnavailable {
			return nil, apperrors.NewDocumentsUnavailableError(err)
		}
		h.logger.Warn("document status unavailable, continuing without documents", map[string]interface{}{
			"error": err.Error(),
		})
		return &Output{DocumentsAvailable: false}, nil
	case errors.Is(err, auth.ErrTokenMissing):
		return nil, apperrors.NewTokenMissingError()
	case err != nil:
		return nil, apperrors.NewDocumentsUnavailableError(err)
	}

	h.logger.Info("document status fetched", map[string]interface{}{
		"documents":        result.Status.Count(),
		"failedCategories": result.FailedCategories,
		"fromCache":        result.FromCache,
	})

	return &Output{
		DocumentStatus:     result.Status,
		DocumentsAvailable: true,
		FailedCategories:   result.FailedCategories,
		FromCache:          result.FromCache,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
