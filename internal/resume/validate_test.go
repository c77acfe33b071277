package resume

import (
	"errors"
	"testing"

	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	prev := "before"
	valid := func() *types.ResumeDocument {
		return &types.ResumeDocument{
			IDSeq:        2,
			PersonalInfo: types.PersonalInfo{Name: "Jane Doe", Email: "jane@example.com"},
			WorkExperience: []types.WorkExperience{
				{ID: "we-1", Responsibilities: []types.Responsibility{{Text: "a"}, {Text: "b", PreviousText: &prev, Mode: types.ModeEditing}}},
				{ID: "we-2", Mode: types.EntryProposedNew},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(d *types.ResumeDocument)
		wantErr string
	}{
		{"valid", func(d *types.ResumeDocument) {}, ""},
		{"missing name", func(d *types.ResumeDocument) { d.PersonalInfo.Name = "" }, "Name"},
		{"bad email", func(d *types.ResumeDocument) { d.PersonalInfo.Email = "nope" }, "Email"},
		{"missing id", func(d *types.ResumeDocument) { d.WorkExperience[1].ID = "" }, "ID"},
		{"duplicate id", func(d *types.ResumeDocument) { d.WorkExperience[1].ID = "we-1" }, "duplicate id"},
		{"id ahead of sequence", func(d *types.ResumeDocument) { d.IDSeq = 1 }, "ahead of id_seq"},
		{"editing without previous text", func(d *types.ResumeDocument) {
			d.WorkExperience[0].Responsibilities[1].PreviousText = nil
		}, "must keep its previous text"},
		{"previous text while committed", func(d *types.ResumeDocument) {
			d.WorkExperience[0].Responsibilities[0].PreviousText = &prev
		}, "only kept while editing"},
		{"unknown mode", func(d *types.ResumeDocument) {
			d.WorkExperience[0].Responsibilities[0].Mode = "archived"
		}, "Mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := valid()
			tt.mutate(doc)
			err := Validate(doc)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckInvariants_AllowsIncompleteDocument(t *testing.T) {
	doc := New()
	AddEntry(doc, BlankEntry())
	assert.Error(t, Validate(doc), "name is still empty")
	assert.NoError(t, CheckInvariants(doc))
}
