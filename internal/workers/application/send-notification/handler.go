// internal/workers/application/send-notification/handler.go
package sendnotification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gradabroad-workers/internal/common/camunda"
	apperrors "gradabroad-workers/internal/common/errors"
	"gradabroad-workers/internal/common/logger"
	"gradabroad-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-notification"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type template struct {
	Subject string
	Body    string
}

type Handler struct {
	config    *Config
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
	runner    *camunda.Runner
	templates map[string]template
	now       func() time.Time
}

// NewHandler accepts nil clients for channels that are disabled.
func NewHandler(config *Config, runner *camunda.Runner, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		logger:    logger.ForTask(log, TaskType),
		sesClient: sesClient,
		snsClient: snsClient,
		runner:    runner,
		templates: loadTemplates(),
		now:       time.Now,
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
	notificationType := TypeSubmissionFailed
	if models.SubmissionStage(input.SubmissionStage) == models.StageSubmitted {
		notificationType = TypeApplicationSubmitted
	}
	tmpl := h.templates[notificationType]

	data := map[string]interface{}{
		"applicationId":   input.ApplicationID,
		"programmeName":   input.ProgrammeName,
		"studentName":     input.StudentName,
		"submissionStage": input.SubmissionStage,
		"errorCode":       input.ErrorCode,
	}
	subject := renderTemplate(tmpl.Subject, data)
	body := renderTemplate(tmpl.Body, data)

	out := &Output{
		NotificationID:   uuid.New().String(),
		NotificationType: notificationType,
		Status:           StatusDisabled,
		SentAt:           h.now().UTC().Format(time.RFC3339),
	}

	if h.config.EmailEnabled && h.sesClient != nil && input.StudentEmail != "" {
		if err := h.sendEmail(ctx, input.StudentEmail, subject, body); err != nil {
			return nil, apperrors.NewNotificationSendFailedError("email", err)
		}
		out.Status = StatusSent
	}

	// SMS is a courtesy copy; a failure never fails the job.
	if h.config.SMSEnabled && h.snsClient != nil && input.StudentPhone != "" {
		if err := h.sendSMS(ctx, input.StudentPhone, body); err != nil {
			h.logger.Warn("SMS send failed", map[string]interface{}{
				"error":         err.Error(),
				"applicationId": input.ApplicationID,
			})
		} else {
			out.SMSSent = true
			out.Status = StatusSent
		}
	}

	h.logger.Info("notification processed", map[string]interface{}{
		"applicationId":    input.ApplicationID,
		"notificationType": notificationType,
		"status":           out.Status,
		"smsSent":          out.SMSSent,
	})
	return out, nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	in := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if h.config.SMSSenderID != "" {
		in.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {DataType: aws.String("String"), StringValue: aws.String(h.config.SMSSenderID)},
		}
	}
	_, err := h.snsClient.Publish(ctx, in)
	return err
}

// renderTemplate replaces {{key}} placeholders and drops the ones without a
// value.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		switch tv := v.(type) {
		case string:
			value = tv
		case nil:
		default:
			value = fmt.Sprintf("%v", tv)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}

func loadTemplates() map[string]template {
	return map[string]template{
		TypeApplicationSubmitted: {
			Subject: "Your application to {{programmeName}} was submitted",
			Body:    "Hello {{studentName}}, your application {{applicationId}} to {{programmeName}} has been submitted.",
		},
		TypeSubmissionFailed: {
			Subject: "Your application to {{programmeName}} needs attention",
			Body:    "Hello {{studentName}}, your application {{applicationId}} to {{programmeName}} stopped at {{submissionStage}} ({{errorCode}}). You can retry from where it stopped.",
		},
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
