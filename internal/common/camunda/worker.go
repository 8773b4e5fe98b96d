// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "gradabroad-workers/internal/common/errors"
	"gradabroad-workers/internal/common/logger"
	"gradabroad-workers/internal/common/metrics"
	"gradabroad-workers/internal/common/observability"
	"gradabroad-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// commandTimeout bounds complete, fail and throw commands. They use their
// own context so a job that ran out of time can still be reported.
const commandTimeout = 10 * time.Second

// JobHandler is implemented by every task package.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Runner holds the per-task plumbing shared by all handlers: input
// validation, metrics and reporting the outcome to the engine.
type Runner struct {
	taskType   string
	validator  *validation.InputValidator
	errHandler *apperrors.ErrorHandler
	obs        *observability.Observability
	logger     logger.Logger
}

func NewRunner(taskType string, validator *validation.InputValidator, obs *observability.Observability, log logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = logger.ForTask(log, taskType)
	return &Runner{
		taskType:   taskType,
		validator:  validator,
		errHandler: apperrors.NewErrorHandler(log),
		obs:        obs,
		logger:     log,
	}
}

// Decode validates the job variables against the task's input schema and
// unmarshals them into out.
func (r *Runner) Decode(variables string, out interface{}) error {
	if strings.TrimSpace(variables) == "" {
		variables = "{}"
	}
	// Malformed payloads are the caller's fault, not a validator failure.
	if !json.Valid([]byte(variables)) {
		return apperrors.NewInvalidInputError("job variables are not valid JSON")
	}
	result, err := r.validator.Validate(r.taskType, variables)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !result.Valid {
		return apperrors.NewInvalidInputError(result.Summary())
	}
	if err := json.Unmarshal([]byte(variables), out); err != nil {
		return apperrors.NewInvalidInputError(fmt.Sprintf("parse variables: %v", err))
	}
	return nil
}

// Run executes fn under timeout and completes the job with its output, or
// hands the error to the error handler.
func (r *Runner) Run(client worker.JobClient, job entities.Job, timeout time.Duration, fn func(ctx context.Context) (interface{}, error)) {
	start := time.Now()
	done := metrics.JobStarted(r.taskType)

	r.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
		"retries":     job.Retries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	output, err := fn(ctx)
	cancel()

	sendCtx, sendCancel := context.WithTimeout(context.Background(), commandTimeout)
	defer sendCancel()

	if err != nil {
		d := r.errHandler.HandleJobError(sendCtx, client, job, err)
		done(d.Error.Code)
		r.obs.RecordJob(sendCtx, r.taskType, "failed", time.Since(start))
		return
	}

	r.completeJob(sendCtx, client, job, output)
	done("")
	r.obs.RecordJob(sendCtx, r.taskType, "completed", time.Since(start))
}

func (r *Runner) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		r.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	r.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.Key,
	})
}

// Worker is an open job subscription for one task type.
type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

func NewWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handler JobHandler,
	log logger.Logger,
) *Worker {
	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		Name("gradabroad-workers").
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": maxJobsActive,
	})

	return &Worker{
		worker:   jobWorker,
		logger:   log,
		taskType: taskType,
	}
}

func (w *Worker) TaskType() string {
	return w.taskType
}

// Stop closes the subscription. Close waits for running handlers.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
}
