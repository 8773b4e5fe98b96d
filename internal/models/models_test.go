package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentList_UnmarshalShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
		wantErr bool
	}{
		{name: "bare array", payload: `[{"id":1,"doc_type":"passport"},{"id":2,"name":"Photo"}]`, want: 2},
		{name: "wrapped results", payload: `{"count":1,"results":[{"id":3,"title":"IELTS"}]}`, want: 1},
		{name: "wrapped without results", payload: `{"detail":"ok"}`, want: 0},
		{name: "null", payload: `null`, want: 0},
		{name: "empty array", payload: `[]`, want: 0},
		{name: "scalar", payload: `"nope"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var list DocumentList
			err := json.Unmarshal([]byte(tt.payload), &list)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, list)
			assert.Len(t, list, tt.want)
		})
	}
}

func TestDocumentStatus_NilSafe(t *testing.T) {
	var s *DocumentStatus
	assert.Nil(t, s.All())
	assert.Equal(t, 0, s.Count())

	data, err := json.Marshal(DocumentStatus{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"personal":[],"education":[],"certificates":[],"financial":[]}`, string(data))
}

func TestDocumentStatus_AllKeepsCategoryOrder(t *testing.T) {
	s := &DocumentStatus{
		Personal:     DocumentList{{ID: 1}},
		Education:    DocumentList{{ID: 2}},
		Certificates: DocumentList{{ID: 3}, {ID: 4}},
		Financial:    DocumentList{{ID: 5}},
	}

	var ids []int64
	for _, d := range s.All() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids)
	assert.Equal(t, 5, s.Count())
}

func TestRequirement_Unmarshal(t *testing.T) {
	var reqs RequirementList
	payload := `{"results":[
		{"id":7,"requirementType":"essay","label":"Motivation Letter","note":"Max 500 words"},
		{"id":8,"requirement_type":"document","label":"Passport","required":false,"matching_doc_type":"passport"}
	]}`
	require.NoError(t, json.Unmarshal([]byte(payload), &reqs))
	require.Len(t, reqs, 2)

	assert.Equal(t, "essay", reqs[0].RequirementType)
	assert.True(t, reqs[0].IsRequired(), "absent flag defaults to required")
	assert.Equal(t, "Max 500 words", reqs[0].Note)

	assert.Equal(t, "document", reqs[1].RequirementType)
	assert.False(t, reqs[1].IsRequired())
	assert.Equal(t, "passport", reqs[1].MatchingDocType)
}

func TestSubmissionStage_Valid(t *testing.T) {
	assert.True(t, SubmissionStage("").Valid())
	assert.True(t, StageEssaysUploaded.Valid())
	assert.False(t, SubmissionStage("ARCHIVED").Valid())
}
