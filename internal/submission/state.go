// internal/submission/state.go
package submission

import (
	"fmt"

	"gradabroad-workers/internal/models"
)

// State is the last known-good point of one submission. Every stage after
// DRAFT_NOT_CREATED carries the application id the backend assigned.
type State struct {
	Stage         models.SubmissionStage `json:"submissionStage"`
	ApplicationID int64                  `json:"applicationId,omitempty"`
}

func NotStarted() State {
	return State{Stage: models.StageDraftNotCreated}
}

func DraftCreated(applicationID int64) State {
	return State{Stage: models.StageDraftCreated, ApplicationID: applicationID}
}

func AttachmentsUploaded(applicationID int64) State {
	return State{Stage: models.StageAttachmentsUploaded, ApplicationID: applicationID}
}

func EssaysUploaded(applicationID int64) State {
	return State{Stage: models.StageEssaysUploaded, ApplicationID: applicationID}
}

func Submitted(applicationID int64) State {
	return State{Stage: models.StageSubmitted, ApplicationID: applicationID}
}

var stageRank = map[models.SubmissionStage]int{
	"":                              0,
	models.StageDraftNotCreated:     0,
	models.StageDraftCreated:        1,
	models.StageAttachmentsUploaded: 2,
	models.StageEssaysUploaded:      3,
	models.StageSubmitted:           4,
}

// Rank orders stages; an empty stage ranks with DRAFT_NOT_CREATED.
func Rank(stage models.SubmissionStage) int {
	return stageRank[stage]
}

// StateFrom rebuilds a state from process variables.
func StateFrom(stage models.SubmissionStage, applicationID int64) (State, error) {
	s := State{Stage: stage, ApplicationID: applicationID}
	if s.Stage == "" {
		s.Stage = models.StageDraftNotCreated
	}
	if err := s.Validate(); err != nil {
		return State{}, err
	}
	return s, nil
}

// Validate checks that the stage is known and that an application id is
// present once a draft exists.
func (s State) Validate() error {
	if !s.Stage.Valid() {
		return fmt.Errorf("unknown submission stage %q", s.Stage)
	}
	if Rank(s.Stage) > 0 && s.ApplicationID <= 0 {
		return fmt.Errorf("stage %s requires an application id", s.Stage)
	}
	return nil
}

func (s State) Done() bool {
	return s.Stage == models.StageSubmitted
}

func (s State) String() string {
	if s.ApplicationID == 0 {
		return string(s.Stage)
	}
	return fmt.Sprintf("%s(%d)", s.Stage, s.ApplicationID)
}
