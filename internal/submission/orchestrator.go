// Package submission drives a draft application through the backend's
// create, attach, essay and finalize calls.
package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gradabroad-workers/internal/common/http"
	"gradabroad-workers/internal/common/logger"
	"gradabroad-workers/internal/common/metrics"
	"gradabroad-workers/internal/common/observability"
	"gradabroad-workers/internal/models"
)

// Backend is the part of the REST client the orchestrator needs.
type Backend interface {
	PostJSON(ctx context.Context, token, path string, body, out interface{}) error
	PatchJSON(ctx context.Context, token, path string, body, out interface{}) error
	PostMultipart(ctx context.Context, token, path string, fields map[string]string, file http.FilePart, out interface{}) error
}

// Recorder receives one event per attempted step.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

// LabeledFile is one attachment. Open is called once, right before the
// upload sequence starts.
type LabeledFile struct {
	Label    string
	FileName string
	Open     func(ctx context.Context) (io.ReadCloser, error)
}

// EssayInput carries the essay text of the essay step. With a RequirementID
// and non-empty Motivation a single requirement essay is posted; otherwise
// the legacy motivation and why_university slots are used.
type EssayInput struct {
	Motivation        string
	WhyThisUniversity string
	RequirementID     *int64
}

// Draft is everything the remaining steps of a submission need.
type Draft struct {
	StudentID         string
	ProgrammeID       int64
	Attachments       []LabeledFile
	PaymentReceipt    *LabeledFile
	Essays            EssayInput
	RequirementEssays map[int64]string
}

// Orchestrator runs the submission steps strictly in sequence. It never
// retries and never rolls back.
type Orchestrator struct {
	backend  Backend
	recorder Recorder
	obs      *observability.Observability
	logger   logger.Logger
}

type Option func(*Orchestrator)

func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

func WithObservability(obs *observability.Observability) Option {
	return func(o *Orchestrator) { o.obs = obs }
}

func NewOrchestrator(backend Backend, log logger.Logger, opts ...Option) *Orchestrator {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	o := &Orchestrator{backend: backend, logger: log}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type createDraftRequest struct {
	ProgrammeID int64 `json:"programme_id"`
}

type createDraftResponse struct {
	ID int64 `json:"id"`
}

// CreateDraftApplication creates a new draft for programmeID. Every call
// creates a new draft on the backend.
func (o *Orchestrator) CreateDraftApplication(ctx context.Context, token string, programmeID int64) (int64, error) {
	if programmeID <= 0 {
		return 0, o.fail(ctx, StepCreateDraft, "", fmt.Errorf("invalid programme id %d", programmeID))
	}

	var resp createDraftResponse
	if err := o.backend.PostJSON(ctx, token, "/api/applications/", createDraftRequest{ProgrammeID: programmeID}, &resp); err != nil {
		return 0, o.fail(ctx, StepCreateDraft, "", err)
	}
	if resp.ID <= 0 {
		return 0, o.fail(ctx, StepCreateDraft, "", errors.New("backend returned no application id"))
	}

	o.succeed(ctx, StepCreateDraft)
	o.logger.Info("draft application created", map[string]interface{}{
		"programmeId":   programmeID,
		"applicationId": resp.ID,
	})
	return resp.ID, nil
}

// UploadAttachments posts each file as multipart form data with its label
// as file_type. Files are uploaded in label order and the first failure
// stops the sequence.
func (o *Orchestrator) UploadAttachments(ctx context.Context, token string, applicationID int64, files []LabeledFile) error {
	return o.uploadFiles(ctx, token, applicationID, sortedFiles(files))
}

func (o *Orchestrator) uploadFiles(ctx context.Context, token string, applicationID int64, files []LabeledFile) error {
	// Open everything first so a missing file fails before any upload.
	readers := make([]io.ReadCloser, len(files))
	defer func() {
		for _, rc := range readers {
			if rc != nil {
				_ = rc.Close()
			}
		}
	}()
	for i, f := range files {
		if f.Open == nil {
			return o.fail(ctx, StepUploadAttachments, f.Label, fmt.Errorf("%w: no content", ErrFileUnavailable))
		}
		rc, err := f.Open(ctx)
		if err != nil {
			return o.fail(ctx, StepUploadAttachments, f.Label, fmt.Errorf("%w: %v", ErrFileUnavailable, err))
		}
		readers[i] = rc
	}

	path := fmt.Sprintf("/api/applications/%d/attachments/", applicationID)
	for i, f := range files {
		part := http.FilePart{Field: "file", FileName: fileName(f), Content: readers[i]}
		if err := o.backend.PostMultipart(ctx, token, path, map[string]string{"file_type": f.Label}, part, nil); err != nil {
			return o.fail(ctx, StepUploadAttachments, f.Label, err)
		}
		o.logger.Debug("attachment uploaded", map[string]interface{}{
			"applicationId": applicationID,
			"label":         f.Label,
		})
	}

	o.succeed(ctx, StepUploadAttachments)
	return nil
}

type essayRequest struct {
	RequirementID *int64 `json:"requirement_id,omitempty"`
	DocType       string `json:"doc_type,omitempty"`
	TextBody      string `json:"text_body"`
}

// UploadEssays posts the requirement essay, or the non-empty legacy essays.
func (o *Orchestrator) UploadEssays(ctx context.Context, token string, applicationID int64, in EssayInput) error {
	if err := o.postEssays(ctx, token, applicationID, essayRequests(in)); err != nil {
		return err
	}
	o.succeed(ctx, StepUploadEssays)
	return nil
}

// UploadRequirementEssays posts one essay per requirement id in id order.
// Blank answers are skipped.
func (o *Orchestrator) UploadRequirementEssays(ctx context.Context, token string, applicationID int64, answers map[int64]string) error {
	if err := o.postEssays(ctx, token, applicationID, requirementEssayRequests(answers, nil)); err != nil {
		return err
	}
	o.succeed(ctx, StepUploadEssays)
	return nil
}

func (o *Orchestrator) postEssays(ctx context.Context, token string, applicationID int64, reqs []essayRequest) error {
	path := fmt.Sprintf("/api/applications/%d/docs/", applicationID)
	for _, req := range reqs {
		if err := o.backend.PostJSON(ctx, token, path, req, nil); err != nil {
			label := req.DocType
			if req.RequirementID != nil {
				label = fmt.Sprintf("requirement:%d", *req.RequirementID)
			}
			return o.fail(ctx, StepUploadEssays, label, err)
		}
	}
	return nil
}

type transitionRequest struct {
	To string `json:"to"`
}

// FinalizeApplication asks the backend to move the draft to submitted. On
// failure the draft stays as it is; retry this step rather than creating a
// new draft.
func (o *Orchestrator) FinalizeApplication(ctx context.Context, token string, applicationID int64) error {
	path := fmt.Sprintf("/api/applications/%d/transition/", applicationID)
	if err := o.backend.PatchJSON(ctx, token, path, transitionRequest{To: "submitted"}, nil); err != nil {
		return o.fail(ctx, StepFinalize, "", err)
	}
	o.succeed(ctx, StepFinalize)
	o.logger.Info("application submitted", map[string]interface{}{"applicationId": applicationID})
	return nil
}

// Submit runs the whole sequence for a fresh draft.
func (o *Orchestrator) Submit(ctx context.Context, token string, draft Draft) (State, error) {
	return o.Advance(ctx, token, NotStarted(), draft)
}

// Advance runs every step after state until the application is submitted.
func (o *Orchestrator) Advance(ctx context.Context, token string, state State, draft Draft) (State, error) {
	return o.AdvanceTo(ctx, token, state, draft, models.StageSubmitted)
}

// AdvanceTo runs the steps after state up to and including target. On
// failure it returns the last state that completed together with the
// step error, so the caller can resume from there. A state already at or
// past target is returned unchanged.
func (o *Orchestrator) AdvanceTo(ctx context.Context, token string, state State, draft Draft, target models.SubmissionStage) (State, error) {
	if err := state.Validate(); err != nil {
		return state, err
	}
	if !target.Valid() {
		return state, fmt.Errorf("unknown target stage %q", target)
	}

	for Rank(state.Stage) < Rank(target) {
		next, step, err := o.step(ctx, token, state, draft)
		if err != nil {
			o.record(ctx, draft, state.ApplicationID, step, OutcomeFailed, failedLabel(err), err)
			return state, err
		}
		o.record(ctx, draft, next.ApplicationID, step, OutcomeOK, "", nil)
		state = next
	}
	return state, nil
}

func (o *Orchestrator) step(ctx context.Context, token string, state State, draft Draft) (State, string, error) {
	id := state.ApplicationID
	switch state.Stage {
	case "", models.StageDraftNotCreated:
		newID, err := o.CreateDraftApplication(ctx, token, draft.ProgrammeID)
		if err != nil {
			return state, StepCreateDraft, err
		}
		return DraftCreated(newID), StepCreateDraft, nil

	case models.StageDraftCreated:
		// The receipt goes after the labeled files.
		files := sortedFiles(draft.Attachments)
		if draft.PaymentReceipt != nil {
			receipt := *draft.PaymentReceipt
			receipt.Label = models.PaymentReceiptFileType
			files = append(files, receipt)
		}
		if err := o.uploadFiles(ctx, token, id, files); err != nil {
			return state, StepUploadAttachments, err
		}
		return AttachmentsUploaded(id), StepUploadAttachments, nil

	case models.StageAttachmentsUploaded:
		reqs := essayRequests(draft.Essays)
		reqs = append(reqs, requirementEssayRequests(draft.RequirementEssays, draft.Essays.RequirementID)...)
		if err := o.postEssays(ctx, token, id, reqs); err != nil {
			return state, StepUploadEssays, err
		}
		o.succeed(ctx, StepUploadEssays)
		return EssaysUploaded(id), StepUploadEssays, nil

	case models.StageEssaysUploaded:
		if err := o.FinalizeApplication(ctx, token, id); err != nil {
			return state, StepFinalize, err
		}
		return Submitted(id), StepFinalize, nil
	}
	return state, "", fmt.Errorf("no step after stage %s", state.Stage)
}

func (o *Orchestrator) fail(ctx context.Context, step, label string, err error) error {
	metrics.SubmissionSteps.WithLabelValues(step, OutcomeFailed).Inc()
	o.obs.RecordSubmissionStep(ctx, step, OutcomeFailed)
	o.logger.Warn("submission step failed", map[string]interface{}{
		"step":  step,
		"label": label,
		"error": err.Error(),
	})
	return stepError(step, label, err)
}

func (o *Orchestrator) succeed(ctx context.Context, step string) {
	metrics.SubmissionSteps.WithLabelValues(step, OutcomeOK).Inc()
	o.obs.RecordSubmissionStep(ctx, step, OutcomeOK)
}

func (o *Orchestrator) record(ctx context.Context, draft Draft, applicationID int64, step, outcome, label string, err error) {
	if o.recorder == nil {
		return
	}
	ev := Event{
		StudentID:     draft.StudentID,
		ProgrammeID:   draft.ProgrammeID,
		ApplicationID: applicationID,
		Step:          step,
		Outcome:       outcome,
		Label:         label,
	}
	if err != nil {
		ev.Details = map[string]interface{}{"error": err.Error()}
	}
	o.recorder.Record(ctx, ev)
}

func failedLabel(err error) string {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Label
	}
	return ""
}

func essayRequests(in EssayInput) []essayRequest {
	if in.RequirementID != nil && strings.TrimSpace(in.Motivation) != "" {
		id := *in.RequirementID
		return []essayRequest{{RequirementID: &id, TextBody: in.Motivation}}
	}

	var reqs []essayRequest
	if strings.TrimSpace(in.Motivation) != "" {
		reqs = append(reqs, essayRequest{DocType: models.EssayDocTypeMotivation, TextBody: in.Motivation})
	}
	if strings.TrimSpace(in.WhyThisUniversity) != "" {
		reqs = append(reqs, essayRequest{DocType: models.EssayDocTypeWhyUniversity, TextBody: in.WhyThisUniversity})
	}
	return reqs
}

func requirementEssayRequests(answers map[int64]string, skip *int64) []essayRequest {
	ids := make([]int64, 0, len(answers))
	for id, text := range answers {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if skip != nil && *skip == id {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	reqs := make([]essayRequest, 0, len(ids))
	for _, id := range ids {
		id := id
		reqs = append(reqs, essayRequest{RequirementID: &id, TextBody: answers[id]})
	}
	return reqs
}

func sortedFiles(files []LabeledFile) []LabeledFile {
	out := make([]LabeledFile, len(files))
	copy(out, files)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func fileName(f LabeledFile) string {
	if f.FileName != "" {
		return f.FileName
	}
	return f.Label
}
