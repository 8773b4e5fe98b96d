// cmd/worker-manager/workers.go
package main

import (
	"context"
	"fmt"
	"time"

	awsclient "gradabroad-workers/internal/common/aws"
	"gradabroad-workers/internal/common/camunda"
	"gradabroad-workers/internal/common/logger"

	cr "gradabroad-workers/internal/workers/application/compute-readiness"
	cda "gradabroad-workers/internal/workers/application/create-draft-application"
	fds "gradabroad-workers/internal/workers/application/fetch-document-status"
	fa "gradabroad-workers/internal/workers/application/finalize-application"
	sn "gradabroad-workers/internal/workers/application/send-notification"
	sa "gradabroad-workers/internal/workers/application/submit-application"
	ua "gradabroad-workers/internal/workers/application/upload-attachments"
	ue "gradabroad-workers/internal/workers/application/upload-essays"
)

// registerWorkers opens one job subscription per enabled task type.
func registerWorkers(ctx context.Context, svc *services, log logger.Logger) ([]*camunda.Worker, error) {
	var workers []*camunda.Worker
	zc := svc.zeebe.GetClient()

	start := func(taskType string, enabled bool, maxJobs int, timeout time.Duration, h camunda.JobHandler) {
		if !enabled {
			log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
			return
		}
		workers = append(workers, camunda.NewWorker(zc, taskType, maxJobs, timeout, h, log))
	}
	runner := func(taskType string) *camunda.Runner {
		return camunda.NewRunner(taskType, svc.validator, svc.obs, log)
	}

	// --- Readiness ---
	{
		c := fds.LoadConfig(svc.cfg)
		h := fds.NewHandler(c, runner(fds.TaskType), svc.documents, svc.tokens, log)
		start(fds.TaskType, c.Enabled, c.MaxJobsActive, c.Timeout, h)
	}
	{
		c := cr.LoadConfig(svc.cfg)
		h := cr.NewHandler(c, runner(cr.TaskType), svc.programmes, svc.documents, svc.aggregator, svc.obs, log)
		start(cr.TaskType, c.Enabled, c.MaxJobsActive, c.Timeout, h)
	}

	// --- Submission steps ---
	{
		c := cda.LoadConfig(svc.cfg)
		h := cda.NewHandler(c, runner(cda.TaskType), svc.orchestrator, svc.tokens, log)
		start(cda.TaskType, c.Enabled, c.MaxJobsActive, c.Timeout, h)
	}
	{
		c := ua.LoadConfig(svc.cfg)
		h := ua.NewHandler(c, runner(ua.TaskType), svc.orchestrator, svc.store, svc.tokens, log)
		start(ua.TaskType, c.Enabled, c.MaxJobsActive, c.Timeout, h)
	}
	{
		c := ue.LoadConfig(svc.cfg)
		h := ue.NewHandler(c, runner(ue.TaskType), svc.orchestrator, svc.tokens, log)
		start(ue.TaskType, c.Enabled, c.MaxJobsActive, c.Timeout, h)
	}
	{
		c := fa.LoadConfig(svc.cfg)
		h := fa.NewHandler(c, runner(fa.TaskType), svc.orchestrator, svc.tokens, log)
		start(fa.TaskType, c.Enabled, c.MaxJobsActive, c.Timeout, h)
	}
	{
		c := sa.LoadConfig(svc.cfg)
		deps := sa.Deps{
			Orchestrator: svc.orchestrator,
			Store:        svc.store,
			Tokens:       svc.tokens,
		}
		// Interface fields stay nil rather than holding typed nil pointers.
		if svc.guard != nil {
			deps.Guard = svc.guard
		}
		if svc.audit != nil {
			deps.Stages = svc.audit
		}
		h := sa.NewHandler(c, runner(sa.TaskType), deps, log)
		start(sa.TaskType, c.Enabled, c.MaxJobsActive, c.Timeout, h)
	}

	// --- Notifications ---
	{
		c := sn.LoadConfig(svc.cfg)
		var (
			sesClient sn.SESService
			snsClient sn.SNSService
		)
		if c.Enabled && (c.EmailEnabled || c.SMSEnabled) {
			awsCfg, err := awsclient.LoadConfig(ctx, c.AWSRegion)
			if err != nil {
				return nil, fmt.Errorf("send-notification: %w", err)
			}
			if c.EmailEnabled {
				sesClient = awsclient.NewSESClient(awsCfg)
			}
			if c.SMSEnabled {
				snsClient = awsclient.NewSNSClient(awsCfg)
			}
		}
		h := sn.NewHandler(c, runner(sn.TaskType), sesClient, snsClient, log)
		start(sn.TaskType, c.Enabled, c.MaxJobsActive, c.Timeout, h)
	}

	return workers, nil
}
