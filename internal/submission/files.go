// internal/submission/files.go
package submission

import (
	"context"
	"errors"
	"io"
	"sort"

	"gradabroad-workers/internal/common/storage"
	"gradabroad-workers/internal/models"
)

var errStorageDisabled = errors.New("object storage is not configured")

// FileFromStore streams ref from store when the upload step opens it.
func FileFromStore(store storage.Store, label string, ref models.FileRef) LabeledFile {
	name := ref.FileName
	if name == "" {
		name = label
	}
	return LabeledFile{
		Label:    label,
		FileName: name,
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			if store == nil {
				return nil, errStorageDisabled
			}
			rc, _, err := store.Get(ctx, ref.Key)
			return rc, err
		},
	}
}

// FilesFromStore maps label to staged file, in label order.
func FilesFromStore(store storage.Store, refs map[string]models.FileRef) []LabeledFile {
	labels := make([]string, 0, len(refs))
	for label := range refs {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	files := make([]LabeledFile, 0, len(labels))
	for _, label := range labels {
		files = append(files, FileFromStore(store, label, refs[label]))
	}
	return files
}

// DraftFrom builds the orchestrator input from the draft kept in process
// variables.
func DraftFrom(studentID string, d models.DraftApplication, store storage.Store) Draft {
	draft := Draft{
		StudentID:   studentID,
		ProgrammeID: d.ProgrammeID,
		Attachments: FilesFromStore(store, d.Attachments),
		Essays: EssayInput{
			Motivation:        d.Motivation,
			WhyThisUniversity: d.WhyThisUniversity,
			RequirementID:     d.EssayRequirementID,
		},
		RequirementEssays: d.EssayAnswers,
	}
	if d.PaymentReceipt != nil {
		receipt := FileFromStore(store, models.PaymentReceiptFileType, *d.PaymentReceipt)
		draft.PaymentReceipt = &receipt
	}
	return draft
}
