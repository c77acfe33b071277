package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/types"
)

const resumeColumns = `id, title, type, content, chat_log, analysis, created_at, updated_at`

func scanResume(row pgx.Row) (*Resume, error) {
	var r Resume
	var content, chatLog, analysis []byte
	if err := row.Scan(&r.ID, &r.Title, &r.Type, &content, &chatLog, &analysis, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Content = content
	r.ChatLog = chatLog
	if analysis != nil {
		r.Analysis = analysis
	}
	return &r, nil
}

// GetResume retrieves a resume by id. Returns nil, nil when it does not exist.
func (db *DB) GetResume(ctx context.Context, id string) (*Resume, error) {
	resumeID, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	r, err := scanResume(db.pool.QueryRow(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE id = $1`, resumeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return r, nil
}

// InsertResume stores a new resume and returns the created row
func (db *DB) InsertResume(ctx context.Context, input *ResumeCreateInput) (*Resume, error) {
	content, err := json.Marshal(input.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resume content: %w", err)
	}
	title := input.Title
	if title == "" {
		title = "-"
	}
	kind := input.Type
	if kind == "" {
		kind = ResumeTypeBase
	}

	r, err := scanResume(db.pool.QueryRow(ctx,
		`INSERT INTO resumes (id, title, type, content)
		 VALUES ($1, $2, $3, $4::jsonb)
		 RETURNING `+resumeColumns,
		uuid.New(), title, kind, content))
	if err != nil {
		return nil, fmt.Errorf("failed to insert resume: %w", err)
	}
	return r, nil
}

// UpdateResume applies a partial update. Returns ErrResumeNotFound when no row matched.
func (db *DB) UpdateResume(ctx context.Context, id string, update *ResumeUpdate) error {
	if update.IsEmpty() {
		return nil
	}
	resumeID, err := ParseID(id)
	if err != nil {
		return err
	}

	content, err := marshalOptional(update.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal resume content: %w", err)
	}
	chatLog, err := marshalOptional(update.ChatLog)
	if err != nil {
		return fmt.Errorf("failed to marshal chat log: %w", err)
	}
	var analysis []byte
	if update.Analysis != nil {
		analysis = []byte(update.Analysis)
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE resumes SET
		     title = COALESCE($2, title),
		     type = COALESCE($3, type),
		     content = COALESCE($4::jsonb, content),
		     chat_log = COALESCE($5::jsonb, chat_log),
		     analysis = COALESCE($6::jsonb, analysis),
		     updated_at = NOW()
		 WHERE id = $1`,
		resumeID, update.Title, update.Type, content, chatLog, analysis)
	if err != nil {
		return fmt.Errorf("failed to update resume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrResumeNotFound
	}
	return nil
}

// UpdateContent replaces the stored document
func (db *DB) UpdateContent(ctx context.Context, id string, doc *types.ResumeDocument) error {
	return db.UpdateResume(ctx, id, &ResumeUpdate{Content: doc})
}

// UpdateChatLog replaces the stored chat log
func (db *DB) UpdateChatLog(ctx context.Context, id string, turns []types.ChatTurn) error {
	if turns == nil {
		turns = []types.ChatTurn{}
	}
	return db.UpdateResume(ctx, id, &ResumeUpdate{ChatLog: turns})
}

// UpdateAnalysis stores the latest analysis result verbatim
func (db *DB) UpdateAnalysis(ctx context.Context, id string, analysis json.RawMessage) error {
	if len(analysis) == 0 {
		return fmt.Errorf("failed to update analysis: empty result")
	}
	return db.UpdateResume(ctx, id, &ResumeUpdate{Analysis: analysis})
}

// LoadDocument returns the migrated document and chat log of a resume.
// Returns nil, nil, nil when the resume does not exist.
func (db *DB) LoadDocument(ctx context.Context, id string) (*types.ResumeDocument, []types.ChatTurn, error) {
	r, err := db.GetResume(ctx, id)
	if err != nil || r == nil {
		return nil, nil, err
	}

	doc, err := resume.Decode(r.Content)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode resume %s: %w", id, err)
	}
	turns, err := DecodeChatLog(r.ChatLog)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode chat log of %s: %w", id, err)
	}
	return doc, turns, nil
}

// DecodeChatLog parses a stored chat log. Null and empty values give an empty log.
func DecodeChatLog(raw json.RawMessage) ([]types.ChatTurn, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var turns []types.ChatTurn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, err
	}
	return turns, nil
}

func marshalOptional(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
