package db

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var validate = validator.New()

const jobColumns = `id, company, position, description, location, url, applied_at, created_at, updated_at`

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.Company, &j.Position, &j.Description, &j.Location,
		&j.URL, &j.AppliedAt, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func collectJobs(rows pgx.Rows) ([]Job, error) {
	defer rows.Close()
	jobs := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// ListJobs returns all jobs, newest first. A non-empty search filters on
// position, company and location.
func (db *DB) ListJobs(ctx context.Context, search string) ([]Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE $1 = '' OR position ILIKE '%' || $1 || '%'
		    OR company ILIKE '%' || $1 || '%'
		    OR location ILIKE '%' || $1 || '%'
		 ORDER BY created_at DESC`,
		search)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	jobs, err := collectJobs(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan jobs: %w", err)
	}
	return jobs, nil
}

// GetJob retrieves a job by id. Returns nil, nil when it does not exist.
func (db *DB) GetJob(ctx context.Context, id string) (*Job, error) {
	jobID, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	j, err := scanJob(db.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

// CreateJob stores a job. A job whose URL is already stored is refreshed instead.
func (db *DB) CreateJob(ctx context.Context, input *JobCreateInput) (*Job, error) {
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid job: %w", err)
	}

	j, err := scanJob(db.pool.QueryRow(ctx,
		`INSERT INTO jobs (id, company, position, description, location, url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (url) WHERE url IS NOT NULL DO UPDATE SET
		     company = $2,
		     position = $3,
		     description = $4,
		     location = $5,
		     updated_at = NOW()
		 RETURNING `+jobColumns,
		uuid.New(), input.Company, input.Position, input.Description, input.Location, nullIfEmpty(input.URL)))
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return j, nil
}

// ListLinkedJobs returns the jobs linked to a resume in the order they were linked
func (db *DB) ListLinkedJobs(ctx context.Context, resumeID string) ([]Job, error) {
	rid, err := ParseID(resumeID)
	if err != nil {
		return nil, err
	}
	rows, err := db.pool.Query(ctx,
		`SELECT j.id, j.company, j.position, j.description, j.location, j.url, j.applied_at, j.created_at, j.updated_at
		 FROM resume_jobs rj JOIN jobs j ON j.id = rj.job_id
		 WHERE rj.resume_id = $1
		 ORDER BY rj.created_at`,
		rid)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked jobs: %w", err)
	}
	jobs, err := collectJobs(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan linked jobs: %w", err)
	}
	return jobs, nil
}

// LinkJob attaches a job to a resume. It fails with ErrJobLimitReached once
// MaxLinkedJobs are linked and with ErrJobAlreadyLinked on a duplicate.
func (db *DB) LinkJob(ctx context.Context, resumeID, jobID string) error {
	rid, err := ParseID(resumeID)
	if err != nil {
		return err
	}
	jid, err := ParseID(jobID)
	if err != nil {
		return err
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// lock the resume so concurrent links see each other's rows
	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM resumes WHERE id = $1 FOR UPDATE`, rid).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrResumeNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock resume: %w", err)
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM jobs WHERE id = $1)`, jid).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check job: %w", err)
	}
	if !exists {
		return ErrJobNotFound
	}

	rows, err := tx.Query(ctx, `SELECT job_id FROM resume_jobs WHERE resume_id = $1`, rid)
	if err != nil {
		return fmt.Errorf("failed to list linked jobs: %w", err)
	}
	linked, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return fmt.Errorf("failed to scan linked jobs: %w", err)
	}
	if err := CheckLink(linked, jid); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO resume_jobs (resume_id, job_id) VALUES ($1, $2)`, rid, jid); err != nil {
		return fmt.Errorf("failed to link job: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CheckLink reports whether jobID may be added to the linked set
func CheckLink(linked []uuid.UUID, jobID uuid.UUID) error {
	if len(linked) >= MaxLinkedJobs {
		return ErrJobLimitReached
	}
	if slices.Contains(linked, jobID) {
		return ErrJobAlreadyLinked
	}
	return nil
}

// UnlinkJob detaches a job from a resume. Unlinking a job that is not linked is a no-op.
func (db *DB) UnlinkJob(ctx context.Context, resumeID, jobID string) error {
	rid, err := ParseID(resumeID)
	if err != nil {
		return err
	}
	jid, err := ParseID(jobID)
	if err != nil {
		return err
	}
	if _, err := db.pool.Exec(ctx, `DELETE FROM resume_jobs WHERE resume_id = $1 AND job_id = $2`, rid, jid); err != nil {
		return fmt.Errorf("failed to unlink job: %w", err)
	}
	return nil
}
