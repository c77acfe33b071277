package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Resume type values
const (
	ResumeTypeBase     = "base"
	ResumeTypeTailored = "tailored"
)

// Resume is a stored resume row. Content is the document JSON as stored.
type Resume struct {
	ID        uuid.UUID       `json:"id"`
	Title     string          `json:"title"`
	Type      string          `json:"type"`
	Content   json.RawMessage `json:"content"`
	ChatLog   json.RawMessage `json:"chat_log"`
	Analysis  json.RawMessage `json:"analysis,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ResumeCreateInput holds the fields for inserting a resume
type ResumeCreateInput struct {
	Title   string
	Type    string
	Content any
}

// ResumeUpdate is a partial update; nil fields are left unchanged
type ResumeUpdate struct {
	Title    *string
	Type     *string
	Content  any
	ChatLog  any
	Analysis json.RawMessage
}

// IsEmpty reports whether the update changes nothing
func (u *ResumeUpdate) IsEmpty() bool {
	return u == nil || (u.Title == nil && u.Type == nil && u.Content == nil && u.ChatLog == nil && u.Analysis == nil)
}

// Job is a target job posting
type Job struct {
	ID          uuid.UUID  `json:"id"`
	Company     string     `json:"company"`
	Position    string     `json:"position"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	URL         *string    `json:"url,omitempty"`
	AppliedAt   *time.Time `json:"applied_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// JobCreateInput holds the fields for creating a job. A job with a URL
// already on file is updated in place.
type JobCreateInput struct {
	Company     string `validate:"required"`
	Position    string `validate:"required"`
	Description string
	Location    string
	URL         string `validate:"omitempty,url"`
}

// Descriptions returns the description of every job, skipping blanks
func Descriptions(jobs []Job) []string {
	out := make([]string, 0, len(jobs))
	for _, job := range jobs {
		if job.Description != "" {
			out = append(out, job.Description)
		}
	}
	return out
}
