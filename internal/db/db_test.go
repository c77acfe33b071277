package db

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-builder/internal/types"
)

func TestParseID(t *testing.T) {
	id := uuid.New()
	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseID("resume-1")
	assert.True(t, errors.Is(err, ErrInvalidID))
}

func TestCheckLink(t *testing.T) {
	ids := make([]uuid.UUID, MaxLinkedJobs)
	for i := range ids {
		ids[i] = uuid.New()
	}

	tests := []struct {
		name     string
		linked   []uuid.UUID
		job      uuid.UUID
		expected error
	}{
		{"empty", nil, ids[0], nil},
		{"below limit", ids[:4], uuid.New(), nil},
		{"duplicate", ids[:2], ids[1], ErrJobAlreadyLinked},
		{"limit reached", ids, uuid.New(), ErrJobLimitReached},
		{"limit checked before duplicate", ids, ids[0], ErrJobLimitReached},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CheckLink(tt.linked, tt.job))
		})
	}
}

func TestResumeUpdate_IsEmpty(t *testing.T) {
	title := "Backend"
	assert.True(t, (*ResumeUpdate)(nil).IsEmpty())
	assert.True(t, (&ResumeUpdate{}).IsEmpty())
	assert.False(t, (&ResumeUpdate{Title: &title}).IsEmpty())
	assert.False(t, (&ResumeUpdate{Analysis: json.RawMessage(`{}`)}).IsEmpty())
}

func TestDecodeChatLog(t *testing.T) {
	turns, err := DecodeChatLog(nil)
	require.NoError(t, err)
	assert.Empty(t, turns)

	turns, err = DecodeChatLog(json.RawMessage("null"))
	require.NoError(t, err)
	assert.Empty(t, turns)

	turns, err = DecodeChatLog(json.RawMessage(`[{"role":"user","content":"hi","timestamp":"2024-05-01T10:00:00Z"}]`))
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, types.RoleUser, turns[0].Role)
	assert.Equal(t, "hi", turns[0].Content)

	_, err = DecodeChatLog(json.RawMessage(`{"role":"user"}`))
	assert.Error(t, err)
}

func TestDescriptions(t *testing.T) {
	jobs := []Job{{Description: "Go backend"}, {Description: ""}, {Description: "Platform"}}
	assert.Equal(t, []string{"Go backend", "Platform"}, Descriptions(jobs))
	assert.Empty(t, Descriptions(nil))
}

func TestJobCreateInput_Validation(t *testing.T) {
	assert.NoError(t, validate.Struct(&JobCreateInput{Company: "Acme", Position: "Engineer"}))
	assert.Error(t, validate.Struct(&JobCreateInput{Company: "Acme"}))
	assert.Error(t, validate.Struct(&JobCreateInput{Company: "Acme", Position: "Engineer", URL: "not a url"}))
}
